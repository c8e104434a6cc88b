package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"channel-extractor/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const readonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

// newOAuthHTTPClient returns an HTTP client authorized through the device
// flow. The token is persisted to cfg.TokenFile and rewritten on refresh.
func newOAuthHTTPClient(ctx context.Context, cfg *config.YouTubeConfig, logger *slog.Logger) (*http.Client, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{readonlyScope},
		Endpoint:     google.Endpoint,
	}

	token, err := getToken(ctx, oauthConfig, cfg.TokenFile, logger)
	if err != nil {
		return nil, err
	}

	ts := &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
		logger:    logger,
	}
	return oauth2.NewClient(ctx, ts), nil
}

// tokenSaver is an oauth2.TokenSource that writes refreshed tokens back to disk.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	logger    *slog.Logger
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			ts.logger.Warn("failed to save refreshed token", slog.Any("err", err))
		} else {
			ts.logger.Info("token refreshed", slog.String("file", ts.tokenFile))
		}
	}

	return newToken, nil
}

// getToken loads a stored token, keeping expired ones that can still be
// refreshed, and falls back to the device flow.
func getToken(ctx context.Context, cfg *oauth2.Config, tokenFile string, logger *slog.Logger) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err == nil && (tok.RefreshToken != "" || tok.Valid()) {
		logger.Debug("loaded token from file", slog.String("file", tokenFile), slog.Time("expiry", tok.Expiry))
		return tok, nil
	}

	tok, err = deviceFlowToken(ctx, cfg)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			logger.Error("device authorization rejected",
				slog.String("status", retrieveErr.Response.Status),
				slog.String("body", strings.TrimSpace(string(retrieveErr.Body))))
		}
		return nil, fmt.Errorf("device authorization failed: %w", err)
	}

	if err := saveToken(tokenFile, tok); err != nil {
		logger.Warn("failed to save token", slog.Any("err", err))
	}
	return tok, nil
}

func deviceFlowToken(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	resp, err := cfg.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nYouTube authorization required.\n")
	fmt.Fprintf(os.Stderr, "Visit %s and enter the code %s\n", resp.VerificationURI, resp.UserCode)
	fmt.Fprintf(os.Stderr, "Waiting for authorization... (Ctrl+C to cancel)\n\n")

	tok, err := cfg.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
