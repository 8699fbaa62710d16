package openai

import (
	"context"
	"fmt"

	"github.com/mikey/mail-spam-detector/internal/core"
	"github.com/mikey/mail-spam-detector/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client is an implementation of the SpamClassifier interface using OpenAI.
type Client struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewClient creates a new OpenAI classifier client
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return &Client{
		client:        openai.NewClient(apiKey),
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are an email classifier. Given the following email content, analyze and output the probability that this email is spam. Reply only with a number between 0 and 100. No explanation.

Subject: %s
From: %s
To: %s
Date: %s
Body: %s
`,
	}, nil
}

// ClassifyMessage asks OpenAI for the message's spam probability and returns
// the model's reply verbatim.
func (c *Client) ClassifyMessage(ctx context.Context, msg *core.EmailMessage) (string, error) {
	body := c.textProcessor.ProcessText(msg.Body, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, msg.Subject, msg.From, msg.To, msg.Date, body)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an email spam classifier. Respond only with a number between 0 and 100.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	responseText := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI response received",
		zap.String("mail_id", msg.ID),
		zap.String("model", c.modelName),
		zap.String("response", responseText))

	return responseText, nil
}
