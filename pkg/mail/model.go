package mail

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	netmail "net/mail"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Message represents an outgoing email. The caller fills it in, the
// composer renders it, and the sender transmits the rendered bytes.
// A Message is not modified after it has been handed to the composer.
type Message struct {
	From           string       `json:"from"`
	To             []string     `json:"to"`
	Cc             []string     `json:"cc,omitempty"`
	Subject        string       `json:"subject"`
	Body           string       `json:"body"`
	Markdown       bool         `json:"markdown,omitempty"`
	Signature      string       `json:"signature,omitempty"`
	SignatureImage *InlineImage `json:"signature_image,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Attachment represents an email attachment. The caller supplies the
// bytes; nothing here reads from disk.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// InlineImage is an image embedded in the HTML part and referenced by
// Content-ID, typically a signature logo.
type InlineImage struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ValidationError reports a malformed Message, detected before any
// network connection is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %s: %s", e.Field, e.Reason)
}

// Validate checks that the message has a well-formed sender and at
// least one well-formed To recipient, and normalizes all addresses
// in place (whitespace trimmed, display names stripped).
func (m *Message) Validate() error {
	from, err := normalizeAddress(m.From)
	if err != nil {
		return &ValidationError{Field: "from", Reason: err.Error()}
	}
	m.From = from

	if len(m.To) == 0 {
		return &ValidationError{Field: "to", Reason: "at least one recipient is required"}
	}

	for i, addr := range m.To {
		to, err := normalizeAddress(addr)
		if err != nil {
			return &ValidationError{Field: "to", Reason: err.Error()}
		}
		m.To[i] = to
	}

	for i, addr := range m.Cc {
		cc, err := normalizeAddress(addr)
		if err != nil {
			return &ValidationError{Field: "cc", Reason: err.Error()}
		}
		m.Cc[i] = cc
	}

	return nil
}

// Recipients returns the full envelope recipient list, To followed by
// Cc, preserving order.
func (m *Message) Recipients() []string {
	recipients := make([]string, 0, len(m.To)+len(m.Cc))
	recipients = append(recipients, m.To...)
	recipients = append(recipients, m.Cc...)
	return recipients
}

// UID returns the Blake2b-192 hash of the message in JSON format.
// The outbox uses it as a stable queue key.
func (m *Message) UID() (string, error) {
	msgJSON, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	hash, err := blake2b.New(24, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create Blake2b hash: %w", err)
	}

	if _, err := hash.Write(msgJSON); err != nil {
		return "", fmt.Errorf("failed to write to hash: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

func normalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("address is empty")
	}
	parsed, err := netmail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("malformed address %q: %w", addr, err)
	}
	return parsed.Address, nil
}
