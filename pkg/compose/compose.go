// Package compose renders a mail.Message into a multipart MIME document.
//
// The produced structure is:
//
//	multipart/mixed
//	├── multipart/alternative
//	│   ├── text/plain (the body)
//	│   └── multipart/related (only when an HTML rendition is needed)
//	│       ├── text/html (body + signature)
//	│       └── inline signature image (referenced by Content-ID)
//	└── attachment parts (base64, one per attachment)
//
// A document is rendered exactly once per send: the same bytes are
// handed to SMTP transmission and to the IMAP archive append.
package compose

import (
	"bytes"
	"fmt"
	"html"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/freeflowuniverse/heromail/internal/tools"
	"github.com/freeflowuniverse/heromail/pkg/mail"
)

// CIDPlaceholder is the token a signature fragment can use to reference
// the inline signature image. It is replaced with the generated
// Content-ID of the embedded image.
const CIDPlaceholder = "cid:signature-image"

// RenderError reports a failure to build the MIME document.
type RenderError struct {
	Part string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Part, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Render builds the MIME document for the given message. The message
// must already be validated. Payloads are deterministic for identical
// input; MIME boundaries and Content-IDs are freshly generated on every
// call so they can never collide with body content.
func Render(msg *mail.Message) ([]byte, error) {
	for _, att := range msg.Attachments {
		if _, _, err := mime.ParseMediaType(att.ContentType); err != nil {
			return nil, &RenderError{
				Part: fmt.Sprintf("attachment %q", att.Filename),
				Err:  fmt.Errorf("invalid content type %q: %w", att.ContentType, err),
			}
		}
	}
	if img := msg.SignatureImage; img != nil {
		if len(img.Data) == 0 {
			return nil, &RenderError{Part: "signature image", Err: fmt.Errorf("image data is empty")}
		}
		if _, _, err := mime.ParseMediaType(img.ContentType); err != nil {
			return nil, &RenderError{
				Part: "signature image",
				Err:  fmt.Errorf("invalid content type %q: %w", img.ContentType, err),
			}
		}
	}

	var buf bytes.Buffer
	root, err := message.CreateWriter(&buf, buildHeader(msg))
	if err != nil {
		return nil, &RenderError{Part: "message", Err: err}
	}

	if err := writeAlternative(root, msg); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		if err := writeAttachment(root, att); err != nil {
			return nil, err
		}
	}

	if err := root.Close(); err != nil {
		return nil, &RenderError{Part: "message", Err: err}
	}

	return buf.Bytes(), nil
}

func buildHeader(msg *mail.Message) message.Header {
	var h gomail.Header
	h.SetDate(time.Now())
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*gomail.Address{{Address: msg.From}})
	h.SetAddressList("To", toAddressList(msg.To))
	if len(msg.Cc) > 0 {
		h.SetAddressList("Cc", toAddressList(msg.Cc))
	}
	h.SetMsgIDList("Message-Id", []string{fmt.Sprintf("%s@%s", uuid.New().String(), addressDomain(msg.From))})
	h.Set("MIME-Version", "1.0")
	h.SetContentType("multipart/mixed", nil)
	return h.Header
}

func writeAlternative(root *message.Writer, msg *mail.Message) error {
	var altHeader message.Header
	altHeader.SetContentType("multipart/alternative", nil)

	alt, err := root.CreatePart(altHeader)
	if err != nil {
		return &RenderError{Part: "alternative", Err: err}
	}

	var textHeader message.Header
	textHeader.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	textHeader.Set("Content-Transfer-Encoding", "quoted-printable")

	text, err := alt.CreatePart(textHeader)
	if err != nil {
		return &RenderError{Part: "text body", Err: err}
	}
	if _, err := text.Write([]byte(msg.Body)); err != nil {
		return &RenderError{Part: "text body", Err: err}
	}
	if err := text.Close(); err != nil {
		return &RenderError{Part: "text body", Err: err}
	}

	if needsHTML(msg) {
		if err := writeHTML(alt, msg); err != nil {
			return err
		}
	}

	if err := alt.Close(); err != nil {
		return &RenderError{Part: "alternative", Err: err}
	}
	return nil
}

// needsHTML reports whether an HTML rendition must accompany the plain
// text part. A plain message without signature or markdown stays
// text-only.
func needsHTML(msg *mail.Message) bool {
	return msg.Signature != "" || msg.SignatureImage != nil || msg.Markdown
}

func writeHTML(alt *message.Writer, msg *mail.Message) error {
	cid := ""
	if msg.SignatureImage != nil {
		cid = fmt.Sprintf("%s@heromail", uuid.New().String())
	}

	htmlBody, err := renderHTMLBody(msg, cid)
	if err != nil {
		return err
	}

	var relHeader message.Header
	relHeader.SetContentType("multipart/related", map[string]string{"type": "text/html"})

	rel, err := alt.CreatePart(relHeader)
	if err != nil {
		return &RenderError{Part: "html body", Err: err}
	}

	var htmlHeader message.Header
	htmlHeader.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	htmlHeader.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := rel.CreatePart(htmlHeader)
	if err != nil {
		return &RenderError{Part: "html body", Err: err}
	}
	if _, err := part.Write([]byte(htmlBody)); err != nil {
		return &RenderError{Part: "html body", Err: err}
	}
	if err := part.Close(); err != nil {
		return &RenderError{Part: "html body", Err: err}
	}

	if img := msg.SignatureImage; img != nil {
		var imgHeader message.Header
		imgHeader.SetContentType(img.ContentType, nil)
		imgHeader.Set("Content-Transfer-Encoding", "base64")
		imgHeader.Set("Content-ID", fmt.Sprintf("<%s>", cid))
		imgHeader.SetContentDisposition("inline", map[string]string{
			"filename": tools.FilenameFix(img.Filename),
		})

		part, err := rel.CreatePart(imgHeader)
		if err != nil {
			return &RenderError{Part: "signature image", Err: err}
		}
		if _, err := part.Write(img.Data); err != nil {
			return &RenderError{Part: "signature image", Err: err}
		}
		if err := part.Close(); err != nil {
			return &RenderError{Part: "signature image", Err: err}
		}
	}

	if err := rel.Close(); err != nil {
		return &RenderError{Part: "html body", Err: err}
	}
	return nil
}

// renderHTMLBody produces the HTML rendition: the plain body wrapped in
// a preformatted block so whitespace and tabs survive, or the markdown
// conversion when requested, followed by the signature fragment.
func renderHTMLBody(msg *mail.Message, cid string) (string, error) {
	var b strings.Builder
	b.WriteString("<html><body>")

	if msg.Markdown {
		var converted bytes.Buffer
		if err := goldmark.Convert([]byte(msg.Body), &converted); err != nil {
			return "", &RenderError{Part: "markdown body", Err: err}
		}
		b.Write(converted.Bytes())
	} else {
		b.WriteString(`<pre style="font-family: inherit; white-space: pre-wrap;">`)
		b.WriteString(html.EscapeString(msg.Body))
		b.WriteString("</pre>")
	}

	if msg.Signature != "" {
		sig := msg.Signature
		if cid != "" {
			sig = strings.ReplaceAll(sig, CIDPlaceholder, "cid:"+cid)
		}
		b.WriteString(sig)
	}

	// Signature image supplied but never referenced from the markup:
	// still show it at the bottom.
	if cid != "" && !strings.Contains(msg.Signature, CIDPlaceholder) {
		fmt.Fprintf(&b, `<img src="cid:%s" alt="signature">`, cid)
	}

	b.WriteString("</body></html>")
	return b.String(), nil
}

func writeAttachment(root *message.Writer, att mail.Attachment) error {
	filename := tools.FilenameFix(att.Filename)

	var h message.Header
	h.SetContentType(att.ContentType, map[string]string{"name": filename})
	h.Set("Content-Transfer-Encoding", "base64")
	h.SetContentDisposition("attachment", map[string]string{"filename": filename})

	part, err := root.CreatePart(h)
	if err != nil {
		return &RenderError{Part: fmt.Sprintf("attachment %q", filename), Err: err}
	}
	if _, err := part.Write(att.Data); err != nil {
		return &RenderError{Part: fmt.Sprintf("attachment %q", filename), Err: err}
	}
	if err := part.Close(); err != nil {
		return &RenderError{Part: fmt.Sprintf("attachment %q", filename), Err: err}
	}
	return nil
}

func toAddressList(addrs []string) []*gomail.Address {
	list := make([]*gomail.Address, 0, len(addrs))
	for _, addr := range addrs {
		list = append(list, &gomail.Address{Address: addr})
	}
	return list
}

func addressDomain(addr string) string {
	if idx := strings.LastIndex(addr, "@"); idx >= 0 {
		return addr[idx+1:]
	}
	return "localhost"
}
