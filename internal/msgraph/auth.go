package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/trivial-activity-tracker/internal/logging"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

const tokenFileName = "msgraph_tokens.json"

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// TokenCache persists OAuth2 tokens as a JSON file below a directory.
type TokenCache struct {
	path string
}

// NewTokenCache returns a cache storing tokens in dir/msgraph_tokens.json.
func NewTokenCache(dir string) *TokenCache {
	return &TokenCache{path: filepath.Join(dir, tokenFileName)}
}

// Path returns the token file location.
func (c *TokenCache) Path() string { return c.path }

// Load returns the stored token, or nil when none has been saved yet.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", c.path, err)
	}
	return &tok, nil
}

// Save writes tok atomically with owner-only permissions.
func (c *TokenCache) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// AuthOptions configures GetHTTPClient.
type AuthOptions struct {
	TenantID string
	ClientID string
	Cache    *TokenCache
	// Prompt receives the device code instructions.
	Prompt io.Writer
	Log    *slog.Logger
}

// oauth2Config returns the oauth2.Config for Microsoft Graph using the
// provided tenant and client IDs.
func oauth2Config(tenantID, clientID string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(tenantID, "devicecode"),
			TokenURL:      msEndpoint(tenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// GetHTTPClient returns a token and config for Microsoft Graph.
// It loads the cached token, refreshes it if needed, or initiates a new
// device code flow if no valid token is available.
func GetHTTPClient(ctx context.Context, opts AuthOptions) (*oauth2.Token, *oauth2.Config, error) {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	prompt := opts.Prompt
	if prompt == nil {
		prompt = os.Stdout
	}
	cfg := oauth2Config(opts.TenantID, opts.ClientID)

	tok, err := opts.Cache.Load()
	if err != nil {
		// Corrupt token: warn and re-auth.
		log.Warn("ignoring stored token", slog.Any("error", err))
		tok = nil
	}

	if tok != nil && tok.Valid() {
		return tok, cfg, nil
	}

	// Try to refresh.
	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := opts.Cache.Save(refreshed); err != nil {
				log.Warn("could not save refreshed token", slog.Any("error", err))
			}
			return refreshed, cfg, nil
		}
		log.Warn("token refresh failed, re-authenticating", slog.Any("error", err))
	}

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(prompt)
	fmt.Fprintln(prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(prompt)

	newTok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, nil, fmt.Errorf("device authentication failed: %w", err)
	}

	if err := opts.Cache.Save(newTok); err != nil {
		log.Warn("could not save token", slog.Any("error", err))
	}

	return newTok, cfg, nil
}
