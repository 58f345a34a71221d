package mailer

import "fmt"

// Stage identifies where a send operation failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageRender   Stage = "render"
	StageTransmit Stage = "transmit"
	StageArchive  Stage = "archive"
)

// Outcome is the result of one send operation. Transmit and archive
// are independent outcomes: a message can be delivered and still fail
// to land in the Sent folder, and neither error ever overwrites the
// other.
type Outcome struct {
	// Sent reports whether the message was accepted by the SMTP server.
	Sent bool
	// Archived reports whether the message was appended to the IMAP
	// sent folder. Always false when Sent is false or archiving is
	// disabled.
	Archived bool
	// FailedStage is the first stage that failed, empty on full success.
	FailedStage Stage
	// SendErr is the failure that prevented transmission: a
	// mail.ValidationError, compose.RenderError, or one of the
	// smtpclient errors. nil when Sent is true.
	SendErr error
	// ArchiveErr is the archive-stage failure, one of the imapclient
	// errors. nil when Archived is true or archiving never ran.
	ArchiveErr error
}

// Message returns a human-readable summary naming the failing stage,
// or "sent" / "sent and archived" on success.
func (o Outcome) Message() string {
	switch {
	case o.SendErr != nil:
		return fmt.Sprintf("%s failed: %v", o.FailedStage, o.SendErr)
	case o.ArchiveErr != nil:
		return fmt.Sprintf("sent, but archive failed: %v", o.ArchiveErr)
	case o.Archived:
		return "sent and archived"
	default:
		return "sent"
	}
}
