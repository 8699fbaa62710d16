package gmail

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestDecodeBase64URL(t *testing.T) {
	t.Run("padded", func(t *testing.T) {
		got, err := decodeBase64URL(base64.URLEncoding.EncodeToString([]byte("hello")))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	})

	t.Run("unpadded", func(t *testing.T) {
		got, err := decodeBase64URL(base64.RawURLEncoding.EncodeToString([]byte("hello")))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := decodeBase64URL("not base64 at all!!")
		assert.Error(t, err)
	})
}

func TestExtractBody(t *testing.T) {
	t.Run("prefers text/plain over text/html", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: b64("<b>html</b>")}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: b64("plain text")}},
			},
		}
		assert.Equal(t, "plain text", extractBody(payload))
	})

	t.Run("falls back to html", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: b64("<b>html</b>")}},
			},
		}
		assert.Equal(t, "<b>html</b>", extractBody(payload))
	})

	t.Run("falls back to top level body", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "text/x-unknown",
			Body:     &gmailapi.MessagePartBody{Data: b64("raw body")},
		}
		assert.Equal(t, "raw body", extractBody(payload))
	})

	t.Run("skips attachment parts", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "text/plain",
					Filename: "notes.txt",
					Body:     &gmailapi.MessagePartBody{Data: b64("attached file")},
				},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: b64("actual body")}},
			},
		}
		assert.Equal(t, "actual body", extractBody(payload))
	})

	t.Run("finds nested part", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: b64("nested")}},
					},
				},
			},
		}
		assert.Equal(t, "nested", extractBody(payload))
	})

	t.Run("empty payload", func(t *testing.T) {
		assert.Equal(t, "", extractBody(&gmailapi.MessagePart{}))
	})
}

func TestAttachmentContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", attachmentContentType("report.pdf", "application/pdf"))
	assert.Equal(t, "application/pdf", attachmentContentType("report.pdf", ""))
	assert.Equal(t, "application/octet-stream", attachmentContentType("blob.weirdext", ""))
	assert.Equal(t, "application/octet-stream", attachmentContentType("", ""))
}

func TestConvertMessage(t *testing.T) {
	client := &Client{logger: zap.NewNop()}

	msg := &gmailapi.Message{
		Id: "m42",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "from", Value: "Alice <alice@example.com>"},
				{Name: "To", Value: "bob@example.com"},
				{Name: "SUBJECT", Value: "Meeting notes"},
				{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
				{Name: "X-Other", Value: "ignored"},
			},
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: b64("see attached")}},
				{
					MimeType: "text/csv",
					Filename: "notes.csv",
					Body:     &gmailapi.MessagePartBody{Data: b64("a,b\n1,2\n")},
				},
			},
		},
	}

	got, err := client.convertMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "m42", got.ID)
	assert.Equal(t, "Alice <alice@example.com>", got.From)
	assert.Equal(t, "bob@example.com", got.To)
	assert.Equal(t, "Meeting notes", got.Subject)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", got.Date)
	assert.Equal(t, "see attached", got.Body)

	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "notes.csv", got.Attachments[0].Filename)
	assert.Equal(t, "text/csv", got.Attachments[0].ContentType)
	assert.Equal(t, "a,b\n1,2\n", string(got.Attachments[0].Data))
}

func TestConvertMessage_NoPayload(t *testing.T) {
	client := &Client{logger: zap.NewNop()}

	got, err := client.convertMessage(context.Background(), &gmailapi.Message{Id: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
	assert.Empty(t, got.Body)
	assert.Empty(t, got.Attachments)
}
