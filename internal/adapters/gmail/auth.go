package gmail

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// tokenSource builds a refreshing token source from the installed-app client
// secrets and a previously stored token. Refreshed tokens are written back so
// the next run does not have to redo the authorization flow.
func tokenSource(ctx context.Context, credentialsFile, tokenFile string, logger *zap.Logger) (oauth2.TokenSource, error) {
	conf, err := oauthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := readToken(tokenFile)
	if err != nil {
		return nil, err
	}

	return &savingTokenSource{
		src:    conf.TokenSource(ctx, tok),
		path:   tokenFile,
		last:   tok,
		logger: logger,
	}, nil
}

func oauthConfig(credentialsFile string) (*oauth2.Config, error) {
	secrets, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read OAuth client secrets: %w", err)
	}
	conf, err := google.ConfigFromJSON(secrets, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client secrets: %w", err)
	}
	return conf, nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no stored token at %s, run the authorization flow first", path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// savingTokenSource wraps a refreshing token source and persists every new
// access token it observes.
type savingTokenSource struct {
	src    oauth2.TokenSource
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := writeToken(s.path, tok); err != nil {
			// A failed write never fails the refresh itself.
			s.logger.Warn("Failed to persist refreshed token", zap.Error(err))
		}
	}
	return tok, nil
}

// Authorize runs the interactive installed-app authorization flow: it prints
// the consent URL, reads the authorization code from in, exchanges it and
// stores the resulting token at tokenFile.
func Authorize(ctx context.Context, credentialsFile, tokenFile string, in io.Reader, out io.Writer) error {
	conf, err := oauthConfig(credentialsFile)
	if err != nil {
		return err
	}

	url := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following link in your browser, then paste the authorization code:\n%v\n> ", url)

	var code string
	if _, err := fmt.Fscan(bufio.NewReader(in), &code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := writeToken(tokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token stored at %s\n", tokenFile)
	return nil
}
