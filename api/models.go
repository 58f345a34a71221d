package api

import "github.com/freeflowuniverse/heromail/pkg/mailer"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Send Models

// SendMailResponse represents the outcome of a synchronous send
type SendMailResponse struct {
	Sent         bool   `json:"sent"`
	Archived     bool   `json:"archived"`
	Message      string `json:"message"`
	FailedStage  string `json:"failed_stage,omitempty"`
	Error        string `json:"error,omitempty"`
	ArchiveError string `json:"archive_error,omitempty"`
}

// NewSendMailResponse maps a send outcome to its response body
func NewSendMailResponse(outcome mailer.Outcome) SendMailResponse {
	resp := SendMailResponse{
		Sent:        outcome.Sent,
		Archived:    outcome.Archived,
		Message:     outcome.Message(),
		FailedStage: string(outcome.FailedStage),
	}
	if outcome.SendErr != nil {
		resp.Error = outcome.SendErr.Error()
	}
	if outcome.ArchiveErr != nil {
		resp.ArchiveError = outcome.ArchiveErr.Error()
	}
	return resp
}

// Queue Models

// QueueMailResponse represents the response from queueing a message
type QueueMailResponse struct {
	ID string `json:"id"`
}

// QueueStatusResponse represents the state of the outbox queue
type QueueStatusResponse struct {
	Count   int64    `json:"count"`
	Pending []string `json:"pending"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}
