package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/mikey/mail-spam-detector/internal/core"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const defaultMaxResults = 50

// Client is an implementation of the MailClient interface backed by the
// Gmail API. All operations act on the authenticated user's mailbox.
type Client struct {
	svc        *gmailapi.Service
	logger     *zap.Logger
	maxResults int64
}

// NewClient creates a Gmail client from stored OAuth credentials.
func NewClient(ctx context.Context, credentialsFile, tokenFile string, maxResults int64, logger *zap.Logger) (*Client, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	ts, err := tokenSource(ctx, credentialsFile, tokenFile, logger)
	if err != nil {
		return nil, err
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{svc: svc, logger: logger, maxResults: maxResults}, nil
}

// ListMessages returns a lazy iterator over the inbox. No network request is
// made until the first Next call.
func (c *Client) ListMessages(ctx context.Context) core.MessageIterator {
	return &messageIterator{client: c}
}

type messageIterator struct {
	client *Client
	listed bool
	ids    []string
	pos    int
	err    error
}

// Next fetches the next inbox message. The id page is listed on first use;
// individual messages that have disappeared between list and get are skipped,
// while a failed list call poisons the iterator.
func (it *messageIterator) Next(ctx context.Context) (*core.EmailMessage, error) {
	if it.err != nil {
		return nil, it.err
	}

	if !it.listed {
		resp, err := it.client.svc.Users.Messages.List("me").
			LabelIds("INBOX").
			MaxResults(it.client.maxResults).
			Context(ctx).Do()
		if err != nil {
			it.err = fmt.Errorf("failed to list inbox messages: %w", err)
			return nil, it.err
		}
		for _, m := range resp.Messages {
			it.ids = append(it.ids, m.Id)
		}
		it.listed = true
	}

	for it.pos < len(it.ids) {
		id := it.ids[it.pos]
		it.pos++

		msg, err := it.client.GetMessage(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				it.err = ctx.Err()
				return nil, it.err
			}
			it.client.logger.Warn("Skipping unfetchable message",
				zap.String("mail_id", id),
				zap.Error(err))
			continue
		}
		if msg == nil {
			continue
		}
		return msg, nil
	}

	it.err = core.ErrNoMoreMessages
	return nil, it.err
}

// GetMessage retrieves a specific message by id. Unknown ids yield (nil, nil).
func (c *Client) GetMessage(ctx context.Context, id string) (*core.EmailMessage, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	return c.convertMessage(ctx, msg)
}

// SendMessage sends a plain-text email with optional attachments through the
// Gmail API.
func (c *Client) SendMessage(ctx context.Context, to, subject, body string, attachments []core.Attachment) error {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(subject)
	h.SetAddressList("To", []*mail.Address{{Address: to}})

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return fmt.Errorf("failed to create message writer: %w", err)
	}

	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return fmt.Errorf("failed to create message body: %w", err)
	}
	if _, err := io.WriteString(tw, body); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	tw.Close()

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		var ah mail.AttachmentHeader
		ah.SetContentType(contentType, nil)
		ah.SetFilename(att.Filename)

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("failed to create attachment %s: %w", att.Filename, err)
		}
		if _, err := aw.Write(att.Data); err != nil {
			return fmt.Errorf("failed to write attachment %s: %w", att.Filename, err)
		}
		aw.Close()
	}
	mw.Close()

	raw := base64.URLEncoding.EncodeToString(buf.Bytes())
	if _, err := c.svc.Users.Messages.Send("me", &gmailapi.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	c.logger.Info("Message sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("attachments", len(attachments)))
	return nil
}

// DeleteMessage moves a message to the trash rather than deleting it
// permanently.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	if _, err := c.svc.Users.Messages.Trash("me", id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to trash message %s: %w", id, err)
	}
	return nil
}
