// Command score-email scores a single RFC 5322 message, read from a file or
// stdin, with the configured LLM provider. It exists for trying out prompt
// and provider settings without touching a mailbox.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mikey/mail-spam-detector/internal/config"
	"github.com/mikey/mail-spam-detector/internal/core"
	"github.com/mikey/mail-spam-detector/internal/factory"
	"github.com/mikey/mail-spam-detector/internal/logging"
	"github.com/mikey/mail-spam-detector/internal/utils"
	"go.uber.org/zap"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "gemini", "LLM provider (gemini, openai, bedrock)")
	maxTokens   = flag.Int("max-tokens", 100, "Maximum tokens for the model reply")
	temperature = flag.Float64("temperature", 0.1, "Temperature for generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum email body size to send to the model")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini (or GEMINI_API_KEY)")
	geminiModelName = flag.String("gemini-model", "gemini-2.0-flash", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI (or OPENAI_API_KEY)")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Input flags
	inputFile = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog   = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := createConfigFromFlags()

	textProcessor := utils.NewTextProcessor(logger)
	classifier, err := factory.NewLLMFactory(cfg, logger, textProcessor).CreateClassifier()
	if err != nil {
		logger.Fatal("Failed to create classifier", zap.Error(err))
	}

	msg, err := readMessage(logger)
	if err != nil {
		logger.Fatal("Failed to read email", zap.Error(err))
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", msg.From)
	fmt.Printf("To: %s\n", msg.To)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.Body))

	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetLLM().Provider)

	startTime := time.Now()
	raw, err := classifier.ClassifyMessage(context.Background(), msg)
	if err != nil {
		logger.Fatal("Failed to classify email", zap.Error(err))
	}
	score, err := core.NormalizeScore(raw)
	if err != nil {
		logger.Fatal("Failed to interpret classifier reply", zap.Error(err))
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Spam probability: %.1f%%\n", score)
	fmt.Printf("Processing time: %v\n", time.Since(startTime))

	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}
}

// readMessage parses the input email into the core message record.
func readMessage(logger *zap.Logger) (*core.EmailMessage, error) {
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	parsed, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	bodyBytes, err := io.ReadAll(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	id := parsed.Header.Get("Message-Id")
	if id == "" {
		id = "local"
	}

	return &core.EmailMessage{
		ID:      id,
		From:    parsed.Header.Get("From"),
		To:      parsed.Header.Get("To"),
		Date:    parsed.Header.Get("Date"),
		Subject: parsed.Header.Get("Subject"),
		Body:    string(bodyBytes),
	}, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)

	switch *provider {
	case "gemini":
		v.Set("gemini.api_key", apiKey(*geminiAPIKey, "GEMINI_API_KEY"))
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
		v.Set("gemini.max_body_size", *maxBodySize)
	case "openai":
		v.Set("openai.api_key", apiKey(*openaiAPIKey, "OPENAI_API_KEY"))
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
		v.Set("openai.max_body_size", *maxBodySize)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
		v.Set("bedrock.max_body_size", *maxBodySize)
	}

	return config.NewFromViper(v)
}

func apiKey(flagValue, envName string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envName)
}
