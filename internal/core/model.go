package core

import (
	"time"
)

// EmailMessage represents a single mailbox message. Instances are built by a
// mail client per fetch and never mutated by the pipeline. ID is an opaque
// identifier that is unique within a mail source and stable across repeated
// fetches of the same message.
type EmailMessage struct {
	ID          string
	From        string
	To          string
	Date        string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment represents a file attached to an email message. The scoring
// pipeline never reads attachments; they exist for send and fetch operations.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportRow is one line of the spam report: a message id and its spam
// probability as a percentage. PctSpam is always within [0, 100].
type ReportRow struct {
	MailID  string
	PctSpam float64
}

// ReportSummary describes the outcome of one detection run.
type ReportSummary struct {
	Processed int
	Succeeded int
	Failed    int
	FailedIDs []string
}

// CacheEntry is a cached spam score for a sender address.
type CacheEntry struct {
	SenderEmail string
	PctSpam     float64
	LastSeen    time.Time
	ExpiresAt   time.Time
}
