// Package smtpclient transmits a rendered MIME document over SMTP.
// One connection per call: connect, optionally upgrade to TLS,
// authenticate, send, quit. The connection is closed on every exit
// path and nothing is retried.
package smtpclient

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// TLSMode selects how the connection is secured.
type TLSMode string

const (
	// TLSNone uses a plain TCP connection.
	TLSNone TLSMode = "none"
	// TLSStartTLS connects plain and upgrades via STARTTLS (explicit TLS).
	TLSStartTLS TLSMode = "starttls"
	// TLSImplicit wraps the connection in TLS from the start.
	TLSImplicit TLSMode = "implicit"
)

// AuthMechanism selects the SASL mechanism used for AUTH.
type AuthMechanism string

const (
	AuthPlain AuthMechanism = "plain"
	AuthLogin AuthMechanism = "login"
)

// Config holds the SMTP server settings for one account.
type Config struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	TLS      TLSMode       `yaml:"tls"`
	Auth     AuthMechanism `yaml:"auth"`
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client sends messages through a single SMTP server.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a sender for the given server configuration. A nil
// logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Send transmits raw to all recipients in a single SMTP transaction.
// Exactly one attempt is made; the caller owns any retry policy.
func (c *Client) Send(ctx context.Context, from string, recipients []string, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Addr: c.cfg.Addr(), Err: err}
	}

	addr := c.cfg.Addr()
	c.logger.Debug("connecting to SMTP server", "addr", addr, "tls", string(c.cfg.TLS))

	var client *smtp.Client
	var err error
	switch c.cfg.TLS {
	case TLSImplicit:
		client, err = smtp.DialTLS(addr, nil)
	case TLSStartTLS:
		client, err = smtp.DialStartTLS(addr, nil)
	default:
		client, err = smtp.Dial(addr)
	}
	if err != nil {
		return &ConnectionError{Addr: addr, Err: err}
	}
	defer client.Close()

	if c.cfg.Username != "" {
		var auth sasl.Client
		switch c.cfg.Auth {
		case AuthLogin:
			auth = sasl.NewLoginClient(c.cfg.Username, c.cfg.Password)
		default:
			auth = sasl.NewPlainClient("", c.cfg.Username, c.cfg.Password)
		}
		if err := client.Auth(auth); err != nil {
			return &AuthenticationError{Username: c.cfg.Username, Err: err}
		}
	}

	if err := client.Mail(from, nil); err != nil {
		return &TransmissionError{Err: fmt.Errorf("MAIL FROM %s rejected: %w", from, err)}
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt, nil); err != nil {
			return &TransmissionError{Recipient: rcpt, Err: err}
		}
	}

	w, err := client.Data()
	if err != nil {
		return &TransmissionError{Err: fmt.Errorf("DATA rejected: %w", err)}
	}
	if _, err := bytes.NewReader(raw).WriteTo(w); err != nil {
		w.Close()
		return &TransmissionError{Err: fmt.Errorf("writing message body: %w", err)}
	}
	if err := w.Close(); err != nil {
		return &TransmissionError{Err: fmt.Errorf("message rejected: %w", err)}
	}

	if err := client.Quit(); err != nil {
		// Delivery already succeeded; a failed QUIT is not worth an error.
		c.logger.Warn("SMTP QUIT failed", "addr", addr, "error", err)
	}

	c.logger.Info("message transmitted", "addr", addr, "from", from, "recipients", len(recipients))
	return nil
}
