package attachment

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// dangerousExtensions and dangerousMIMETypes block executable payloads that
// mail providers and receiving clients commonly flag or run.
var (
	dangerousExtensions = []string{".exe", ".bat", ".cmd", ".com", ".pif", ".scr", ".vbs", ".js"}

	dangerousMIMETypes = []string{
		"application/x-msdownload",
		"application/x-executable",
		"application/x-msdos-program",
		"application/x-ms-installer",
	}
)

// base64Re matches the standard base64 alphabet with up to two trailing
// padding characters.
var base64Re = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

const maxFilenameLen = 255

// checkFilename rejects empty names, path traversal characters, NUL bytes,
// and names longer than 255 characters.
func checkFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: filename cannot be empty", ErrInvalid)
	}

	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: filename %q contains path traversal characters", ErrInvalid, filename)
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("%w: filename %q contains null bytes", ErrInvalid, filename)
	}

	if len(filename) > maxFilenameLen {
		return fmt.Errorf("%w: filename %q is too long (max %d characters)", ErrInvalid, filename, maxFilenameLen)
	}

	return nil
}

// checkType rejects attachments with dangerous file extensions or MIME
// types. Matching is case-insensitive.
func checkType(contentType, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, dangerous := range dangerousExtensions {
		if ext == dangerous {
			return fmt.Errorf("%w: attachment %q has a potentially dangerous file type", ErrInvalid, filename)
		}
	}

	ct := strings.ToLower(contentType)
	for _, dangerous := range dangerousMIMETypes {
		if ct == dangerous {
			return fmt.Errorf("%w: attachment %q has a potentially dangerous MIME type %q", ErrInvalid, filename, contentType)
		}
	}

	return nil
}

// checkSize validates the inline base64 payload and enforces the per-file
// decoded size ceiling. Returns the decoded size on success.
func checkSize(content, filename string) (int64, error) {
	if !base64Re.MatchString(content) {
		return 0, fmt.Errorf("%w: invalid base64 content for attachment %q", ErrInvalid, filename)
	}

	decoded, err := decodeBase64(content)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid base64 content for attachment %q: %v", ErrInvalid, filename, err)
	}

	size := int64(len(decoded))
	if content != "" && size == 0 {
		return 0, fmt.Errorf("%w: invalid base64 content for attachment %q: unable to decode", ErrInvalid, filename)
	}

	if size > MaxSize {
		return 0, &SizeError{Filename: filename, Size: size, Limit: MaxSize}
	}

	return size, nil
}

// Validate enforces the attachment policy over a whole list: count cap,
// per-item filename/type/size checks, and the aggregate decoded size
// ceiling. Items providing neither inline content nor a URL are invalid.
//
// Per-item failures accumulate into an InvalidError naming the offenders;
// count and total-size violations abort immediately with their own error
// kinds since they concern the list as a whole.
func Validate(attachments []Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	if len(attachments) > MaxCount {
		return &CountError{Count: len(attachments), Max: MaxCount}
	}

	var invalid []Attachment
	var total int64

	for _, att := range attachments {
		if err := checkFilename(att.Filename); err != nil {
			invalid = append(invalid, att)
			continue
		}

		if err := checkType(att.ContentType, att.Filename); err != nil {
			invalid = append(invalid, att)
			continue
		}

		if att.Content != "" {
			size, err := checkSize(att.Content, att.Filename)
			if err != nil {
				invalid = append(invalid, att)
				continue
			}
			total += size
		} else if att.URL == "" {
			// Neither inline content nor a URL to fetch from.
			invalid = append(invalid, att)
			continue
		}

		if total > MaxSize {
			return &TotalSizeError{Total: total, Limit: MaxSize}
		}
	}

	if len(invalid) > 0 {
		return &InvalidError{Invalid: invalid}
	}

	return nil
}
