package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-spam-detector/internal/config"
	"github.com/mikey/mail-spam-detector/internal/core"
	"github.com/mikey/mail-spam-detector/internal/factory"
	"github.com/mikey/mail-spam-detector/internal/logging"
	"github.com/mikey/mail-spam-detector/internal/utils"
	"github.com/mikey/mail-spam-detector/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register spam classifier
	if err := container.Provide(func(f *factory.LLMFactory) (core.SpamClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register score cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ScoreCache, error) {
		return f.CreateScoreCache()
	}); err != nil {
		return nil, err
	}

	// Register mail client
	if err := container.Provide(func(f *factory.MailFactory) (core.MailClient, error) {
		return f.CreateMailClient()
	}); err != nil {
		return nil, err
	}

	// Register whitelist checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		domains := cfg.GetStringSlice("spam.whitelisted_domains")
		if len(domains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", domains))
		}
		return whitelist.NewChecker(domains, logger)
	}); err != nil {
		return nil, err
	}

	// Register spam detector
	if err := container.Provide(func(
		mail core.MailClient,
		classifier core.SpamClassifier,
		cache core.ScoreCache,
		checker *whitelist.Checker,
		logger *zap.Logger,
		cfg *config.Config,
		cacheFactory *factory.CacheFactory,
	) (*core.SpamDetector, error) {
		ttl, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}
		detectorCfg := cfg.GetDetector()
		return core.NewSpamDetector(
			mail,
			classifier,
			cache,
			checker,
			logger,
			cacheFactory.IsCacheEnabled(),
			ttl,
			detectorCfg.MaxEmails,
			detectorCfg.Workers,
		), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
