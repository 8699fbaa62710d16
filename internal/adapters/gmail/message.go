package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/mikey/mail-spam-detector/internal/core"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
)

// convertMessage maps a Gmail API message onto the core message record.
func (c *Client) convertMessage(ctx context.Context, msg *gmailapi.Message) (*core.EmailMessage, error) {
	out := &core.EmailMessage{ID: msg.Id}
	if msg.Payload == nil {
		return out, nil
	}

	for _, h := range msg.Payload.Headers {
		switch {
		case strings.EqualFold(h.Name, "From"):
			out.From = h.Value
		case strings.EqualFold(h.Name, "To"):
			out.To = h.Value
		case strings.EqualFold(h.Name, "Subject"):
			out.Subject = h.Value
		case strings.EqualFold(h.Name, "Date"):
			out.Date = h.Value
		}
	}

	out.Body = extractBody(msg.Payload)

	attachments, err := c.collectAttachments(ctx, msg.Id, msg.Payload)
	if err != nil {
		return nil, err
	}
	out.Attachments = attachments

	return out, nil
}

// extractBody walks the MIME tree and returns the first text/plain part,
// falling back to text/html and finally to the top-level body.
func extractBody(payload *gmailapi.MessagePart) string {
	if body := findBodyPart(payload, "text/plain"); body != "" {
		return body
	}
	if body := findBodyPart(payload, "text/html"); body != "" {
		return body
	}
	if payload.Body != nil && payload.Body.Data != "" {
		if decoded, err := decodeBase64URL(payload.Body.Data); err == nil {
			return string(decoded)
		}
	}
	return ""
}

func findBodyPart(part *gmailapi.MessagePart, mimeType string) string {
	// Parts carrying filenames are attachments, not body candidates.
	if part.Filename == "" && part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeBase64URL(part.Body.Data); err == nil {
			return string(decoded)
		}
	}
	for _, child := range part.Parts {
		if body := findBodyPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func (c *Client) collectAttachments(ctx context.Context, messageID string, payload *gmailapi.MessagePart) ([]core.Attachment, error) {
	var attachments []core.Attachment

	var walk func(part *gmailapi.MessagePart) error
	walk = func(part *gmailapi.MessagePart) error {
		if part.Filename != "" {
			data, err := c.attachmentData(ctx, messageID, part)
			if err != nil {
				return err
			}
			attachments = append(attachments, core.Attachment{
				Filename:    part.Filename,
				ContentType: attachmentContentType(part.Filename, part.MimeType),
				Data:        data,
			})
		}
		for _, child := range part.Parts {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(payload); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (c *Client) attachmentData(ctx context.Context, messageID string, part *gmailapi.MessagePart) ([]byte, error) {
	if part.Body == nil {
		return nil, nil
	}

	if part.Body.Data != "" {
		data, err := decodeBase64URL(part.Body.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment %s: %w", part.Filename, err)
		}
		return data, nil
	}

	if part.Body.AttachmentId == "" {
		return nil, nil
	}

	// Large attachments are stored separately and fetched by id.
	resp, err := c.svc.Users.Messages.Attachments.Get("me", messageID, part.Body.AttachmentId).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment %s: %w", part.Filename, err)
	}
	data, err := decodeBase64URL(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment %s: %w", part.Filename, err)
	}

	c.logger.Debug("Fetched attachment body",
		zap.String("mail_id", messageID),
		zap.String("filename", part.Filename),
		zap.Int("size", len(data)))
	return data, nil
}

// attachmentContentType falls back to guessing from the filename extension
// when the part carries no MIME type.
func attachmentContentType(filename, mimeType string) string {
	if mimeType == "" && filename != "" {
		if guessed := mime.TypeByExtension(filepath.Ext(filename)); guessed != "" {
			return guessed
		}
	}
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}

// decodeBase64URL decodes Gmail's URL-safe base64, which arrives both with
// and without padding.
func decodeBase64URL(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}
