package factory

import (
	"context"

	"github.com/mikey/mail-spam-detector/internal/adapters/gmail"
	"github.com/mikey/mail-spam-detector/internal/config"
	"github.com/mikey/mail-spam-detector/internal/core"
	"go.uber.org/zap"
)

// MailFactory creates mail clients
type MailFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailFactory creates a new mail factory
func NewMailFactory(cfg *config.Config, logger *zap.Logger) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailClient creates the Gmail-backed mail client
func (f *MailFactory) CreateMailClient() (core.MailClient, error) {
	gmailCfg := f.cfg.GetGmail()
	return gmail.NewClient(
		context.Background(),
		gmailCfg.CredentialsFile,
		gmailCfg.TokenFile,
		gmailCfg.MaxResults,
		f.logger,
	)
}
