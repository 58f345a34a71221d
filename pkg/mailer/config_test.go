package mailer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeflowuniverse/heromail/pkg/imapclient"
	"github.com/freeflowuniverse/heromail/pkg/smtpclient"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heromail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
smtp:
  host: smtp.example.com
  username: jan@example.com
  password: secret
imap:
  host: imap.example.com
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, smtpclient.TLSStartTLS, cfg.SMTP.TLS)
	assert.Equal(t, smtpclient.AuthPlain, cfg.SMTP.Auth)
	assert.Equal(t, 993, cfg.IMAP.Port)
	assert.Equal(t, imapclient.TLSImplicit, cfg.IMAP.TLS)
	assert.True(t, cfg.Archive)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
smtp:
  host: smtp.example.com
  port: 465
  tls: implicit
  auth: login
imap:
  host: imap.example.com
  port: 143
  tls: starttls
archive: false
redis:
  addr: redis.internal:6380
  db: 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, smtpclient.TLSImplicit, cfg.SMTP.TLS)
	assert.Equal(t, smtpclient.AuthLogin, cfg.SMTP.Auth)
	assert.Equal(t, 143, cfg.IMAP.Port)
	assert.Equal(t, imapclient.TLSStartTLS, cfg.IMAP.TLS)
	assert.False(t, cfg.Archive)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadConfigMissingSMTPHost(t *testing.T) {
	path := writeConfig(t, `
imap:
  host: imap.example.com
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "smtp.host is required")
}

func TestLoadConfigMissingIMAPHostWithArchive(t *testing.T) {
	path := writeConfig(t, `
smtp:
  host: smtp.example.com
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "imap.host is required")
}

func TestLoadConfigIMAPHostOptionalWithoutArchive(t *testing.T) {
	path := writeConfig(t, `
smtp:
  host: smtp.example.com
archive: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Archive)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
