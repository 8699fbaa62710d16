package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/mail-spam-detector/internal/adapters/bedrock"
	"github.com/mikey/mail-spam-detector/internal/adapters/gemini"
	"github.com/mikey/mail-spam-detector/internal/adapters/openai"
	"github.com/mikey/mail-spam-detector/internal/config"
	"github.com/mikey/mail-spam-detector/internal/core"
	"github.com/mikey/mail-spam-detector/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates spam classifiers
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a spam classifier based on the configured provider
func (f *LLMFactory) CreateClassifier() (core.SpamClassifier, error) {
	switch provider := f.cfg.GetLLM().Provider; provider {
	case "gemini":
		c := f.cfg.GetGemini()
		return gemini.NewClient(
			c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxBodySize, f.logger, f.textProcessor)
	case "openai":
		c := f.cfg.GetOpenAI()
		return openai.NewClient(
			c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxBodySize, f.logger, f.textProcessor)
	case "bedrock":
		c := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(c.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return bedrock.NewClient(
			bedrockruntime.NewFromConfig(awsCfg),
			c.ModelID, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxBodySize, f.logger, f.textProcessor), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
