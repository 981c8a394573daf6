package models

import "time"

// Scrape session statuses
const (
	SessionPending   = "pending"
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// ScrapeSession tracks one HTTP fetch + extraction attempt against a
// product's URL. The terminal state (completed/failed) is set exactly once.
type ScrapeSession struct {
	ID         int64
	SessionKey string
	ProductID  int64
	Platform   string
	URL        string

	Status      string
	StartedAt   *time.Time
	CompletedAt *time.Time

	// Results
	Success           bool
	PriceFound        bool
	TitleFound        bool
	AvailabilityFound bool

	// Raw snapshot of what was extracted
	ScrapedPrice        string
	ScrapedTitle        string
	ScrapedAvailability string
	ScrapedImageURL     string
	ScrapedRating       string
	ScrapedReviewCount  string

	// Technical details
	ResponseTimeMs int
	HTTPStatus     int

	// Error information
	ErrorMessage string
	ErrorType    string

	CreatedAt time.Time
}

// Start marks the session as running.
func (s *ScrapeSession) Start(now time.Time) {
	s.Status = SessionRunning
	s.StartedAt = &now
}

// Complete marks the session as completed. It is a no-op once the session
// has reached a terminal state.
func (s *ScrapeSession) Complete(now time.Time, success bool) {
	if s.IsTerminal() {
		return
	}
	s.Status = SessionCompleted
	s.Success = success
	s.CompletedAt = &now
}

// Fail marks the session as failed with the given error detail. It is a
// no-op once the session has reached a terminal state.
func (s *ScrapeSession) Fail(now time.Time, message, errorType string) {
	if s.IsTerminal() {
		return
	}
	s.Status = SessionFailed
	s.Success = false
	s.ErrorMessage = message
	s.ErrorType = errorType
	s.CompletedAt = &now
}

// IsTerminal reports whether the session has completed or failed.
func (s *ScrapeSession) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionFailed
}

// Duration returns the session duration, zero if not yet finished.
func (s *ScrapeSession) Duration() time.Duration {
	if s.StartedAt == nil || s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(*s.StartedAt)
}

// ScrapeIssue captures failure detail for a scrape session.
type ScrapeIssue struct {
	ID        int64
	SessionID int64

	ErrorType    string
	ErrorMessage string

	URL        string
	HTTPStatus int

	CreatedAt time.Time
}

// IsRetryable reports whether this error type is worth retrying on a
// later tick.
func (e *ScrapeIssue) IsRetryable() bool {
	switch e.ErrorType {
	case "network", "timeout", "connection", "server_error":
		return true
	}
	return false
}
