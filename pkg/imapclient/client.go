// Package imapclient appends a transmitted message to the account's
// "Sent" folder over IMAP. One connection per call: connect, login,
// list folders, select the sent folder, append, logout. The folder is
// discovered from a fixed candidate list and never created.
package imapclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// TLSMode selects how the connection is secured.
type TLSMode string

const (
	TLSNone     TLSMode = "none"
	TLSStartTLS TLSMode = "starttls"
	TLSImplicit TLSMode = "implicit"
)

// Config holds the IMAP server settings for one account.
type Config struct {
	Host     string  `yaml:"host"`
	Port     int     `yaml:"port"`
	Username string  `yaml:"username"`
	Password string  `yaml:"password"`
	TLS      TLSMode `yaml:"tls"`
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client archives sent messages on a single IMAP server.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an archiver for the given server configuration. A nil
// logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Archive appends raw to the account's sent folder with the current
// timestamp and the \Seen flag. raw must be the exact bytes that were
// transmitted over SMTP.
func (c *Client) Archive(ctx context.Context, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Addr: c.cfg.Addr(), Err: err}
	}

	addr := c.cfg.Addr()
	c.logger.Debug("connecting to IMAP server", "addr", addr, "tls", string(c.cfg.TLS))

	var conn *client.Client
	var err error
	switch c.cfg.TLS {
	case TLSImplicit:
		conn, err = client.DialTLS(addr, nil)
	default:
		conn, err = client.Dial(addr)
	}
	if err != nil {
		return &ConnectionError{Addr: addr, Err: err}
	}
	defer conn.Logout()

	if c.cfg.TLS == TLSStartTLS {
		if err := conn.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
			return &ConnectionError{Addr: addr, Err: err}
		}
	}

	if err := conn.Login(c.cfg.Username, c.cfg.Password); err != nil {
		return &AuthenticationError{Username: c.cfg.Username, Err: err}
	}

	names, err := listFolders(conn)
	if err != nil {
		return &ArchiveError{Err: err}
	}

	folder, ok := FindSentFolder(names)
	if !ok {
		return &FolderNotFoundError{Folders: names}
	}
	c.logger.Debug("archiving to sent folder", "folder", folder)

	if _, err := conn.Select(folder, false); err != nil {
		return &ArchiveError{Folder: folder, Err: err}
	}

	literal := bytes.NewBuffer(raw)
	if err := conn.Append(folder, []string{imap.SeenFlag}, time.Now(), literal); err != nil {
		return &ArchiveError{Folder: folder, Err: err}
	}

	c.logger.Info("message archived", "addr", addr, "folder", folder, "size", len(raw))
	return nil
}

func listFolders(conn *client.Client) ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 16)
	done := make(chan error, 1)
	go func() {
		done <- conn.List("", "*", mailboxes)
	}()

	var names []string
	for m := range mailboxes {
		names = append(names, m.Name)
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return names, nil
}
