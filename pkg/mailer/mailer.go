// Package mailer coordinates one send operation end to end: validate
// the message, render it once, transmit the bytes over SMTP, and
// append the same bytes to the IMAP sent folder. Every failure is
// converted into the returned Outcome; nothing escapes as a panic or
// a naked transport error.
package mailer

import (
	"context"
	"log/slog"

	"github.com/freeflowuniverse/heromail/pkg/compose"
	"github.com/freeflowuniverse/heromail/pkg/imapclient"
	"github.com/freeflowuniverse/heromail/pkg/mail"
	"github.com/freeflowuniverse/heromail/pkg/smtpclient"
)

// Transmitter transmits a rendered document over SMTP.
type Transmitter interface {
	Send(ctx context.Context, from string, recipients []string, raw []byte) error
}

// Archiver appends a rendered document to the account's sent folder.
type Archiver interface {
	Archive(ctx context.Context, raw []byte) error
}

// Mailer performs synchronous send operations. Each operation opens
// its own connections; a Mailer holds no connection state and is safe
// for concurrent use.
type Mailer struct {
	transmitter Transmitter
	archiver    Archiver
	logger      *slog.Logger
}

// New creates a Mailer from explicit transmit and archive
// implementations. archiver may be nil to disable archiving. A nil
// logger falls back to slog.Default().
func New(transmitter Transmitter, archiver Archiver, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		transmitter: transmitter,
		archiver:    archiver,
		logger:      logger,
	}
}

// NewFromConfig creates a Mailer backed by real SMTP and IMAP clients.
func NewFromConfig(cfg *Config, logger *slog.Logger) *Mailer {
	var archiver Archiver
	if cfg.Archive {
		archiver = imapclient.New(cfg.IMAP, logger)
	}
	return New(smtpclient.New(cfg.SMTP, logger), archiver, logger)
}

// Send performs one send operation: validate, render, transmit,
// archive, in strict order. Validation or render failures make no
// network connection; a transmit failure skips archiving entirely; an
// archive failure leaves Sent true.
func (m *Mailer) Send(ctx context.Context, msg *mail.Message) Outcome {
	if err := msg.Validate(); err != nil {
		m.logger.Warn("message rejected", "stage", StageValidate, "error", err)
		return Outcome{FailedStage: StageValidate, SendErr: err}
	}

	raw, err := compose.Render(msg)
	if err != nil {
		m.logger.Warn("message rejected", "stage", StageRender, "error", err)
		return Outcome{FailedStage: StageRender, SendErr: err}
	}

	if err := m.transmitter.Send(ctx, msg.From, msg.Recipients(), raw); err != nil {
		m.logger.Error("transmit failed", "subject", msg.Subject, "error", err)
		return Outcome{FailedStage: StageTransmit, SendErr: err}
	}

	outcome := Outcome{Sent: true}
	if m.archiver == nil {
		return outcome
	}

	if err := m.archiver.Archive(ctx, raw); err != nil {
		// The message is already delivered; report the archive failure
		// alongside the successful send, never instead of it.
		m.logger.Error("archive failed", "subject", msg.Subject, "error", err)
		outcome.FailedStage = StageArchive
		outcome.ArchiveErr = err
		return outcome
	}

	outcome.Archived = true
	return outcome
}

// Send is the one-shot form: build clients from the two configs,
// perform the operation, release everything.
func Send(ctx context.Context, msg *mail.Message, smtpCfg smtpclient.Config, imapCfg imapclient.Config) Outcome {
	cfg := &Config{SMTP: smtpCfg, IMAP: imapCfg, Archive: true}
	return NewFromConfig(cfg, nil).Send(ctx, msg)
}
