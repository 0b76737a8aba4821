package attachment_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailward/mailward/pkg/attachment"
)

func TestResolver_Success(t *testing.T) {
	t.Parallel()

	payload := []byte("fake pdf bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mailward/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(payload)
	}))
	defer srv.Close()

	r := attachment.NewResolver(attachment.ResolverConfig{})
	resolved, err := r.Resolve(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), resolved.Content)
	assert.Equal(t, int64(len(payload)), resolved.Size)
	assert.Equal(t, "application/pdf", resolved.ContentType)
}

func TestResolver_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := attachment.NewResolver(attachment.ResolverConfig{})
	_, err := r.Resolve(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)

	var fetchErr *attachment.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.ErrorIs(t, err, attachment.ErrResolve)
	assert.Contains(t, err.Error(), "failed to load attachment")
}

func TestResolver_UnsupportedScheme(t *testing.T) {
	t.Parallel()

	r := attachment.NewResolver(attachment.ResolverConfig{})

	for _, u := range []string{"file:///etc/passwd", "ftp://example.com/file"} {
		_, err := r.Resolve(context.Background(), u)
		require.ErrorIs(t, err, attachment.ErrResolve)
		require.Contains(t, err.Error(), "unsupported protocol")
	}
}

func TestResolver_DeclaredSizeTooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2048")
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	r := attachment.NewResolver(attachment.ResolverConfig{MaxSize: 1024})
	_, err := r.Resolve(context.Background(), srv.URL)

	var sizeErr *attachment.SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, int64(1024), sizeErr.Limit)
}

func TestResolver_ActualSizeTooLarge(t *testing.T) {
	t.Parallel()

	// Chunked response without a Content-Length header: the early check
	// cannot fire, the post-read check must.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
		fl.Flush()
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	r := attachment.NewResolver(attachment.ResolverConfig{MaxSize: 1024})
	_, err := r.Resolve(context.Background(), srv.URL)

	var sizeErr *attachment.SizeError
	require.ErrorAs(t, err, &sizeErr)
}

func TestResolver_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	r := attachment.NewResolver(attachment.ResolverConfig{FetchTimeout: 50 * time.Millisecond})
	_, err := r.Resolve(context.Background(), srv.URL)

	require.ErrorIs(t, err, attachment.ErrResolveTimeout)
	require.ErrorIs(t, err, attachment.ErrResolve)
}

func TestResolver_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	r := attachment.NewResolver(attachment.ResolverConfig{})
	_, err := r.Resolve(ctx, srv.URL)
	require.Error(t, err)
}
