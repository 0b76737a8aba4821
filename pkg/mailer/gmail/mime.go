package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mailward/mailward/pkg/attachment"
	"github.com/mailward/mailward/pkg/mailer"
)

// MaxMessageSize is the Gmail API limit for a complete message, measured on
// the composed bytes before the base64url envelope.
const MaxMessageSize = 25 << 20

// The composed message is a small part tree: text and html leaves, one
// attachment leaf per file, and alternative/mixed containers. A single
// serializer renders the tree, so CRLF discipline and boundary handling
// live in one place.
type part interface {
	render(b *strings.Builder)
}

type textPart struct {
	body string
}

func (p textPart) render(b *strings.Builder) {
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	b.WriteString(p.body)
	b.WriteString("\r\n\r\n")
}

type htmlPart struct {
	body string
}

func (p htmlPart) render(b *strings.Builder) {
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	b.WriteString(p.body)
	b.WriteString("\r\n\r\n")
}

type attachmentPart struct {
	att attachment.Attachment
}

func (p attachmentPart) render(b *strings.Builder) {
	fmt.Fprintf(b, "Content-Type: %s\r\n", p.att.ContentType)
	fmt.Fprintf(b, "Content-Disposition: attachment; filename=\"%s\"\r\n", encodeFilename(p.att.Filename))
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(wrapBase64(p.att.Content))
	b.WriteString("\r\n")
}

// multipartPart is an alternative or mixed container with its own boundary.
type multipartPart struct {
	subtype  string
	boundary string
	children []part
}

// render emits the container as a nested part: its closing delimiter is
// followed by a blank line, unlike the message's top-level container.
func (p multipartPart) render(b *strings.Builder) {
	p.renderInner(b)
	b.WriteString("\r\n\r\n")
}

func (p multipartPart) renderInner(b *strings.Builder) {
	fmt.Fprintf(b, "Content-Type: multipart/%s; boundary=\"%s\"\r\n\r\n", p.subtype, p.boundary)
	for _, child := range p.children {
		fmt.Fprintf(b, "--%s\r\n", p.boundary)
		child.render(b)
	}
	fmt.Fprintf(b, "--%s--", p.boundary)
}

// newBoundary generates a boundary unlikely to collide with part content:
// a nanosecond timestamp plus a random suffix. Uniqueness is probabilistic;
// part bodies are not scanned for collisions.
func newBoundary() string {
	suffix, _, _ := strings.Cut(uuid.NewString(), "-")
	return fmt.Sprintf("----=_Part_%d_%s", time.Now().UnixNano(), suffix)
}

// compose assembles the complete wire-format message: header block plus a
// multipart/alternative body, wrapped in multipart/mixed when attachments
// are present. Fails with SizeLimitError when the result exceeds
// MaxMessageSize.
func compose(email *mailer.Email, fromEmail, fromName string) (string, error) {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(email.To, ", "))
	if len(email.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(email.CC, ", "))
	}
	if len(email.BCC) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\r\n", strings.Join(email.BCC, ", "))
	}
	if len(email.ReplyTo) > 0 {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", strings.Join(email.ReplyTo, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	var bodyParts []part
	if email.Text != "" {
		bodyParts = append(bodyParts, textPart{body: email.Text})
	}
	if email.HTML != "" {
		bodyParts = append(bodyParts, htmlPart{body: email.HTML})
	}

	var root multipartPart
	if len(email.Attachments) == 0 {
		root = multipartPart{subtype: "alternative", boundary: newBoundary(), children: bodyParts}
	} else {
		var children []part
		if len(bodyParts) > 0 {
			children = append(children, multipartPart{
				subtype:  "alternative",
				boundary: newBoundary(),
				children: bodyParts,
			})
		}
		for _, att := range email.Attachments {
			children = append(children, attachmentPart{att: att})
		}
		root = multipartPart{subtype: "mixed", boundary: newBoundary(), children: children}
	}

	root.renderInner(&b)

	msg := b.String()
	if size := int64(len(msg)); size > MaxMessageSize {
		return "", &SizeLimitError{Size: size, Limit: MaxMessageSize}
	}

	return msg, nil
}

// encodeRaw produces the Gmail API envelope: base64 made URL-safe with
// padding stripped.
func encodeRaw(msg string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(msg))
}

// encodeFilename prepares a filename for the Content-Disposition header.
// Names containing bytes outside printable ASCII are header-encoded as an
// RFC 2047 base64 word; plain ASCII names only get embedded quotes escaped.
func encodeFilename(name string) string {
	if isPrintableASCII(name) {
		return strings.ReplaceAll(name, `"`, `\"`)
	}
	return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(name)) + "?="
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// wrapBase64 rewraps base64 content at the MIME-standard 76-character line
// width with CRLF breaks.
func wrapBase64(content string) string {
	if len(content) <= 76 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content) + len(content)/76*2)
	for len(content) >= 76 {
		b.WriteString(content[:76])
		b.WriteString("\r\n")
		content = content[76:]
	}
	b.WriteString(content)
	return b.String()
}
