package core

import (
	"context"
	"errors"
)

// ErrNoMoreMessages is returned by MessageIterator.Next once the enumeration
// is exhausted. Any other error from Next means the mail source itself is
// unusable.
var ErrNoMoreMessages = errors.New("no more messages")

// MessageIterator is a lazy, finite, forward-only sequence of messages. It is
// not restartable; callers obtain a fresh iterator for each pass.
type MessageIterator interface {
	Next(ctx context.Context) (*EmailMessage, error)
}

// MailClient defines the capabilities of a mail source.
type MailClient interface {
	// ListMessages enumerates mailbox messages lazily, in source order.
	ListMessages(ctx context.Context) MessageIterator

	// GetMessage fetches a single message by id. It returns (nil, nil) when
	// the id is unknown.
	GetMessage(ctx context.Context, id string) (*EmailMessage, error)

	// SendMessage sends an email with optional attachments.
	SendMessage(ctx context.Context, to, subject, body string, attachments []Attachment) error

	// DeleteMessage removes a message from the mailbox.
	DeleteMessage(ctx context.Context, id string) error
}

// SpamClassifier scores a message for spam likelihood. The returned text is
// the model's raw reply and is untrusted: it may be non-numeric, out of range
// or empty. Coercion and clamping are the pipeline's responsibility.
type SpamClassifier interface {
	ClassifyMessage(ctx context.Context, msg *EmailMessage) (string, error)
}

// ScoreCache stores spam scores keyed by sender address.
type ScoreCache interface {
	// Get retrieves a cached entry for a sender
	Get(ctx context.Context, senderEmail string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, senderEmail string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// SenderWhitelist reports whether a sender address is trusted and therefore
// exempt from classification.
type SenderWhitelist interface {
	IsWhitelisted(from string) bool
}
