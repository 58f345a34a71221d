package smtpclient

import "fmt"

// ConnectionError reports a failed TCP connect or TLS negotiation.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("SMTP connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError reports rejected credentials.
type AuthenticationError struct {
	Username string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("SMTP authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TransmissionError reports a rejected sender, recipient or message.
type TransmissionError struct {
	Recipient string
	Err       error
}

func (e *TransmissionError) Error() string {
	if e.Recipient != "" {
		return fmt.Sprintf("SMTP recipient %s rejected: %v", e.Recipient, e.Err)
	}
	return fmt.Sprintf("SMTP transmission failed: %v", e.Err)
}

func (e *TransmissionError) Unwrap() error { return e.Err }
