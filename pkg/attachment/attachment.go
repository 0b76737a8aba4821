// Package attachment defines email attachment descriptors and enforces the
// provider's attachment policy: filename hygiene, a denylist of dangerous
// types, per-file and aggregate size ceilings, and a count cap. It also
// resolves remote attachments referenced by URL under size and time bounds.
package attachment

import "encoding/base64"

const (
	// MaxSize is the decoded size ceiling per attachment and for all
	// attachments combined (provider hard limit).
	MaxSize = 25 << 20

	// MaxCount is the maximum number of attachments per message.
	MaxCount = 10
)

// Attachment describes a single attachment. Exactly one of Content (base64)
// or URL must be set; inline content takes precedence when both are present.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url,omitempty"`
}

// DecodeContent decodes the inline base64 payload. Unpadded input is
// accepted alongside standard padding.
func (a Attachment) DecodeContent() ([]byte, error) {
	return decodeBase64(a.Content)
}

func decodeBase64(s string) ([]byte, error) {
	if len(s)%4 == 0 {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
