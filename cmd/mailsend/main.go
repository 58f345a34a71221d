package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/freeflowuniverse/heromail/pkg/mail"
	"github.com/freeflowuniverse/heromail/pkg/mailer"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "heromail.yaml", "Path to YAML configuration file")
	from := flag.String("from", "", "Sender address (default: smtp username from config)")
	to := flag.String("to", "", "Recipient addresses (comma-separated)")
	cc := flag.String("cc", "", "CC addresses (comma-separated)")
	subject := flag.String("subject", "", "Email subject")
	body := flag.String("body", "", "Email body text")
	bodyFile := flag.String("body-file", "", "Read the body from a file instead of -body")
	markdown := flag.Bool("markdown", false, "Render the body as markdown in the HTML part")
	attachments := flag.String("attach", "", "Paths of files to attach (comma-separated)")
	signatureFile := flag.String("signature", "", "Path to an HTML signature fragment")
	signatureImage := flag.String("signature-image", "", "Path to an inline signature image")
	noArchive := flag.Bool("no-archive", false, "Skip the IMAP sent-folder append")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := mailer.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *noArchive {
		cfg.Archive = false
	}

	msg, err := buildMessage(cfg, *from, *to, *cc, *subject, *body, *bodyFile, *markdown, *attachments, *signatureFile, *signatureImage)
	if err != nil {
		logger.Error("failed to build message", "error", err)
		os.Exit(1)
	}

	outcome := mailer.NewFromConfig(cfg, logger).Send(context.Background(), msg)
	fmt.Println(outcome.Message())
	if !outcome.Sent || outcome.ArchiveErr != nil {
		os.Exit(1)
	}
}

func buildMessage(cfg *mailer.Config, from, to, cc, subject, body, bodyFile string, markdown bool, attachments, signatureFile, signatureImage string) (*mail.Message, error) {
	if from == "" {
		from = cfg.SMTP.Username
	}

	msg := &mail.Message{
		From:     from,
		To:       splitList(to),
		Cc:       splitList(cc),
		Subject:  subject,
		Body:     body,
		Markdown: markdown,
	}

	if bodyFile != "" {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		msg.Body = string(data)
	}

	if signatureFile != "" {
		data, err := os.ReadFile(signatureFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read signature file: %w", err)
		}
		msg.Signature = string(data)
	}

	if signatureImage != "" {
		data, err := os.ReadFile(signatureImage)
		if err != nil {
			return nil, fmt.Errorf("failed to read signature image: %w", err)
		}
		msg.SignatureImage = &mail.InlineImage{
			Filename:    filepath.Base(signatureImage),
			ContentType: contentTypeFor(signatureImage),
			Data:        data,
		}
	}

	for _, path := range splitList(attachments) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
		}
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Filename:    filepath.Base(path),
			ContentType: contentTypeFor(path),
			Data:        data,
		})
	}

	return msg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
