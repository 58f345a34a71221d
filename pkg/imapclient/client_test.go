package imapclient

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingListener records every accepted connection so tests can
// assert the server side saw it closed again.
type trackingListener struct {
	net.Listener

	mu    sync.Mutex
	conns []*trackedConn
}

func (l *trackingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	tracked := &trackedConn{Conn: conn}
	l.mu.Lock()
	l.conns = append(l.conns, tracked)
	l.mu.Unlock()
	return tracked, nil
}

func (l *trackingListener) allClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.conns) == 0 {
		return false
	}
	for _, conn := range l.conns {
		if !conn.closed.Load() {
			return false
		}
	}
	return true
}

type trackedConn struct {
	net.Conn
	closed atomic.Bool
}

func (c *trackedConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

// startServer runs an in-process IMAP server on a random port, backed
// by the in-memory backend (account "username"/"password", only INBOX
// pre-created), and returns the backend, the listener wrapper, and the
// client config pointing at it.
func startServer(t *testing.T) (*memory.Backend, *trackingListener, Config) {
	t.Helper()

	backend := memory.New()

	srv := server.New(backend)
	srv.AllowInsecureAuth = true

	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	listener := &trackingListener{Listener: inner}
	go srv.Serve(listener)
	t.Cleanup(func() { srv.Close() })

	host, portStr, err := net.SplitHostPort(inner.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return backend, listener, Config{
		Host:     host,
		Port:     port,
		Username: "username",
		Password: "password",
		TLS:      TLSNone,
	}
}

func createMailbox(t *testing.T, backend *memory.Backend, name string) {
	t.Helper()
	user, err := backend.Login(nil, "username", "password")
	require.NoError(t, err)
	require.NoError(t, user.CreateMailbox(name))
}

func storedMessages(t *testing.T, backend *memory.Backend, name string) []*memory.Message {
	t.Helper()
	user, err := backend.Login(nil, "username", "password")
	require.NoError(t, err)
	mbox, err := user.GetMailbox(name)
	require.NoError(t, err)
	return mbox.(*memory.Mailbox).Messages
}

func TestArchiveAppendsExactBytes(t *testing.T) {
	backend, _, cfg := startServer(t)
	createMailbox(t, backend, "Sent")

	raw := []byte("Subject: test\r\nFrom: a@x.com\r\n\r\nhello world\r\nsecond line\r\n")
	err := New(cfg, nil).Archive(context.Background(), raw)
	require.NoError(t, err)

	msgs := storedMessages(t, backend, "Sent")
	require.Len(t, msgs, 1)
	assert.Equal(t, raw, msgs[0].Body, "sent folder must hold the exact transmitted bytes")

	seen := false
	for _, flag := range msgs[0].Flags {
		if strings.EqualFold(flag, imap.SeenFlag) {
			seen = true
		}
	}
	assert.True(t, seen, "archived message must carry the Seen flag")
}

func TestArchiveDiscoversProviderFolder(t *testing.T) {
	backend, _, cfg := startServer(t)
	createMailbox(t, backend, "Sent Items")

	err := New(cfg, nil).Archive(context.Background(), []byte("Subject: hi\r\n\r\nhi\r\n"))
	require.NoError(t, err)

	msgs := storedMessages(t, backend, "Sent Items")
	assert.Len(t, msgs, 1)
}

func TestArchiveNoSentFolder(t *testing.T) {
	_, listener, cfg := startServer(t)

	err := New(cfg, nil).Archive(context.Background(), []byte("Subject: hi\r\n\r\nhi\r\n"))
	var ferr *FolderNotFoundError
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, ferr.Folders, "INBOX")

	assert.Eventually(t, listener.allClosed, 2*time.Second, 10*time.Millisecond,
		"connection must be closed after a failed archive")
}

func TestArchiveRejectedCredentials(t *testing.T) {
	_, listener, cfg := startServer(t)
	cfg.Password = "wrong"

	err := New(cfg, nil).Archive(context.Background(), []byte("Subject: hi\r\n\r\nhi\r\n"))
	var autherr *AuthenticationError
	require.ErrorAs(t, err, &autherr)
	assert.Equal(t, "username", autherr.Username)

	assert.Eventually(t, listener.allClosed, 2*time.Second, 10*time.Millisecond,
		"connection must be closed after a failed login")
}

func TestArchiveConnectionRefused(t *testing.T) {
	// Grab a port and close it again so nothing is listening there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, _ := strconv.Atoi(portStr)

	cfg := Config{Host: host, Port: port, TLS: TLSNone}
	err = New(cfg, nil).Archive(context.Background(), []byte("hi\r\n"))
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestArchiveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Host: "localhost", Port: 1143, TLS: TLSNone}
	err := New(cfg, nil).Archive(ctx, []byte("hi\r\n"))
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, context.Canceled)
}
