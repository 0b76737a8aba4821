package attachment_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailward/mailward/pkg/attachment"
)

func b64(size int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, size))
}

func TestValidate_Empty(t *testing.T) {
	t.Parallel()

	require.NoError(t, attachment.Validate(nil))
	require.NoError(t, attachment.Validate([]attachment.Attachment{}))
}

func TestValidate_CountLimit(t *testing.T) {
	t.Parallel()

	list := make([]attachment.Attachment, 11)
	for i := range list {
		list[i] = attachment.Attachment{
			Filename:    "file.txt",
			ContentType: "text/plain",
			Content:     b64(10),
		}
	}

	err := attachment.Validate(list)
	require.Error(t, err)

	var countErr *attachment.CountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 11, countErr.Count)
	assert.Equal(t, 10, countErr.Max)
	assert.ErrorIs(t, err, attachment.ErrInvalid)
}

func TestValidate_TotalSizeAcrossItems(t *testing.T) {
	t.Parallel()

	// Three 10 MiB attachments: each under the 25 MiB per-file cap, but
	// the aggregate crosses it on the third item.
	ten := b64(10 << 20)
	list := []attachment.Attachment{
		{Filename: "a.pdf", ContentType: "application/pdf", Content: ten},
		{Filename: "b.pdf", ContentType: "application/pdf", Content: ten},
		{Filename: "c.pdf", ContentType: "application/pdf", Content: ten},
	}

	err := attachment.Validate(list)
	require.Error(t, err)

	var totalErr *attachment.TotalSizeError
	require.ErrorAs(t, err, &totalErr)
	assert.Equal(t, int64(30<<20), totalErr.Total)
	assert.Equal(t, int64(25<<20), totalErr.Limit)
}

func TestValidate_PerFileSizeLimit(t *testing.T) {
	t.Parallel()

	err := attachment.Validate([]attachment.Attachment{
		{Filename: "big.bin", ContentType: "application/octet-stream", Content: b64(26 << 20)},
	})
	require.Error(t, err)

	var invalidErr *attachment.InvalidError
	require.ErrorAs(t, err, &invalidErr)
	require.Len(t, invalidErr.Invalid, 1)
	assert.Equal(t, "big.bin", invalidErr.Invalid[0].Filename)
}

func TestValidate_FilenameLengthBoundary(t *testing.T) {
	t.Parallel()

	at255 := strings.Repeat("a", 251) + ".txt"
	at256 := strings.Repeat("a", 252) + ".txt"
	require.Len(t, at255, 255)
	require.Len(t, at256, 256)

	ok := attachment.Validate([]attachment.Attachment{
		{Filename: at255, ContentType: "text/plain", Content: b64(4)},
	})
	require.NoError(t, ok)

	err := attachment.Validate([]attachment.Attachment{
		{Filename: at256, ContentType: "text/plain", Content: b64(4)},
	})
	var invalidErr *attachment.InvalidError
	require.ErrorAs(t, err, &invalidErr)
}

func TestValidate_BadFilenames(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		filename string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"path traversal dots", "../etc/passwd"},
		{"forward slash", "dir/file.txt"},
		{"backslash", `dir\file.txt`},
		{"null byte", "file\x00.txt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := attachment.Validate([]attachment.Attachment{
				{Filename: tc.filename, ContentType: "text/plain", Content: b64(4)},
			})
			require.ErrorIs(t, err, attachment.ErrInvalid)
		})
	}
}

func TestValidate_DangerousTypes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		att  attachment.Attachment
	}{
		{"exe extension", attachment.Attachment{Filename: "virus.exe", ContentType: "application/octet-stream", Content: b64(4)}},
		{"uppercase extension", attachment.Attachment{Filename: "VIRUS.EXE", ContentType: "application/octet-stream", Content: b64(4)}},
		{"js extension", attachment.Attachment{Filename: "script.js", ContentType: "text/javascript", Content: b64(4)}},
		{"dangerous mime", attachment.Attachment{Filename: "setup.bin", ContentType: "application/x-msdownload", Content: b64(4)}},
		{"dangerous mime mixed case", attachment.Attachment{Filename: "setup.bin", ContentType: "Application/X-MSDownload", Content: b64(4)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := attachment.Validate([]attachment.Attachment{tc.att})
			var invalidErr *attachment.InvalidError
			require.ErrorAs(t, err, &invalidErr)
		})
	}
}

func TestValidate_Base64Content(t *testing.T) {
	t.Parallel()

	t.Run("invalid alphabet", func(t *testing.T) {
		t.Parallel()
		err := attachment.Validate([]attachment.Attachment{
			{Filename: "f.txt", ContentType: "text/plain", Content: "not base64!!!"},
		})
		require.ErrorIs(t, err, attachment.ErrInvalid)
	})

	t.Run("unpadded accepted", func(t *testing.T) {
		t.Parallel()
		err := attachment.Validate([]attachment.Attachment{
			{Filename: "f.txt", ContentType: "text/plain", Content: "aGk"}, // "hi" without padding
		})
		require.NoError(t, err)
	})
}

func TestValidate_MissingContentAndURL(t *testing.T) {
	t.Parallel()

	err := attachment.Validate([]attachment.Attachment{
		{Filename: "orphan.txt", ContentType: "text/plain"},
	})

	var invalidErr *attachment.InvalidError
	require.ErrorAs(t, err, &invalidErr)
	require.Len(t, invalidErr.Invalid, 1)
}

func TestValidate_URLOnlyIsValid(t *testing.T) {
	t.Parallel()

	err := attachment.Validate([]attachment.Attachment{
		{Filename: "remote.pdf", ContentType: "application/pdf", URL: "https://example.com/doc.pdf"},
	})
	require.NoError(t, err)
}

func TestValidate_CollectsAllInvalid(t *testing.T) {
	t.Parallel()

	err := attachment.Validate([]attachment.Attachment{
		{Filename: "ok.txt", ContentType: "text/plain", Content: b64(4)},
		{Filename: "../bad", ContentType: "text/plain", Content: b64(4)},
		{Filename: "evil.exe", ContentType: "application/octet-stream", Content: b64(4)},
	})

	var invalidErr *attachment.InvalidError
	require.ErrorAs(t, err, &invalidErr)
	require.Len(t, invalidErr.Invalid, 2)
	assert.True(t, errors.Is(err, attachment.ErrInvalid))
}
