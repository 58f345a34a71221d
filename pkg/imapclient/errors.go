package imapclient

import "fmt"

// ConnectionError reports a failed TCP connect or TLS negotiation.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("IMAP connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError reports rejected credentials.
type AuthenticationError struct {
	Username string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("IMAP authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// FolderNotFoundError reports that no folder in the account's listing
// matched the sent-folder candidates.
type FolderNotFoundError struct {
	// Folders is the listing that was searched.
	Folders []string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("no sent folder found among %d folders", len(e.Folders))
}

// ArchiveError reports a failed SELECT or APPEND.
type ArchiveError struct {
	Folder string
	Err    error
}

func (e *ArchiveError) Error() string {
	if e.Folder != "" {
		return fmt.Sprintf("archiving to %q failed: %v", e.Folder, e.Err)
	}
	return fmt.Sprintf("archiving failed: %v", e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
