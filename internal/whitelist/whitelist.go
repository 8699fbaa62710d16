package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether a sender's domain is on a trusted list. Whitelisted
// senders are never sent to the classifier.
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a checker for the given domains. Domains are compared
// case-insensitively.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	set := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			set[domain] = struct{}{}
		}
	}

	if len(set) > 0 && logger != nil {
		logger.Info("Initialized whitelist checker", zap.Int("domains", len(set)))
	}

	return &Checker{domains: set, logger: logger}
}

// IsWhitelisted checks if the sender's domain is in the whitelist.
func (c *Checker) IsWhitelisted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	at := strings.LastIndex(from, "@")
	if at < 0 || at == len(from)-1 {
		return false
	}
	domain := strings.ToLower(strings.TrimSuffix(from[at+1:], ">"))

	if _, ok := c.domains[domain]; !ok {
		return false
	}
	if c.logger != nil {
		c.logger.Debug("Sender domain is whitelisted",
			zap.String("domain", domain),
			zap.String("email", from))
	}
	return true
}
