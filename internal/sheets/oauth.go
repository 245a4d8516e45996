package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"github.com/ospect/amosheets/internal/common"
)

// interactiveTimeout bounds how long the bootstrap flow waits for the
// operator to finish in the browser.
const interactiveTimeout = 5 * time.Minute

// Authorizer owns the OAuth handshake with Google: it issues authorization
// URLs carrying single-use state tokens, exchanges callback codes, and
// persists the granted token where the sheet client looks for it.
type Authorizer struct {
	cfg    Config
	states *stateRegistry
	client *Client
}

// NewAuthorizer creates an authorizer. client may be nil; when set, its
// cached service is invalidated after every fresh grant so the next sheet
// call picks up the new token.
func NewAuthorizer(cfg Config, client *Client) *Authorizer {
	return &Authorizer{
		cfg:    cfg,
		states: newStateRegistry(stateTTL),
		client: client,
	}
}

// AuthURL returns the Google consent URL for a newly issued state token.
func (a *Authorizer) AuthURL() (string, error) {
	oauthCfg, err := loadOAuthConfig(a.cfg.CredentialsFile, a.cfg.RedirectURL)
	if err != nil {
		return "", err
	}
	state := a.states.Issue()
	return oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// HandleCallback validates the state token, exchanges the authorization
// code, and saves the token. The state is consumed either way, so a replayed
// callback fails.
func (a *Authorizer) HandleCallback(ctx context.Context, state, code string) error {
	if !a.states.Consume(state) {
		return fmt.Errorf("unknown or expired oauth state")
	}
	if code == "" {
		return fmt.Errorf("no authorization code received")
	}

	oauthCfg, err := loadOAuthConfig(a.cfg.CredentialsFile, a.cfg.RedirectURL)
	if err != nil {
		return err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := saveToken(a.cfg.TokenFile, token); err != nil {
		return err
	}
	slog.Info("Google token saved", "file", a.cfg.TokenFile)

	if a.client != nil {
		a.client.Invalidate()
	}
	return nil
}

// RunInteractive performs the browser flow without the daemon: it serves
// the callback on addr, prints the consent URL, and returns once a token is
// saved or the timeout elapses.
func (a *Authorizer) RunInteractive(ctx context.Context, addr string) error {
	authURL, err := a.AuthURL()
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/google/oauth2/callback", func(w http.ResponseWriter, r *http.Request) {
		err := a.HandleCallback(r.Context(), r.URL.Query().Get("state"), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			done <- err
			return
		}
		_, _ = fmt.Fprintf(w, `<html><body>
			<h1>Authentication Successful!</h1>
			<p>You can close this window and return to the terminal.</p>
			<script>window.setTimeout(function(){window.close();}, 3000);</script>
		</body></html>`)
		done <- nil
	})

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			done <- fmt.Errorf("failed to start callback server: %w", err)
		}
	}()

	slog.Info("🔐 Google Sheets authorization required")
	slog.Info("Please visit this URL to authorize", "url", authURL)
	slog.Info("Waiting for the callback...")

	var flowErr error
	select {
	case flowErr = <-done:
	case <-time.After(interactiveTimeout):
		flowErr = fmt.Errorf("authorization timeout - no response received within %s", interactiveTimeout)
	case <-ctx.Done():
		flowErr = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Error shutting down callback server", "error", err)
	}
	return flowErr
}

// loadOAuthConfig builds the oauth2 client from the downloaded secrets
// file.
func loadOAuthConfig(credentialsFile, redirectURL string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("%w: google credentials file: %v", common.ErrMissingConfig, err)
	}

	cfg, err := google.ConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	cfg.RedirectURL = redirectURL
	return cfg, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

// saveToken saves a token to file.
func saveToken(path string, token *oauth2.Token) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// savingTokenSource re-persists the token whenever the wrapped source
// refreshes it, so token.json stays usable across restarts.
type savingTokenSource struct {
	src  oauth2.TokenSource
	file string

	mu   sync.Mutex
	last *oauth2.Token
}

func newSavingTokenSource(src oauth2.TokenSource, file string, current *oauth2.Token) oauth2.TokenSource {
	return &savingTokenSource{src: src, file: file, last: current}
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || token.AccessToken != s.last.AccessToken {
		if err := saveToken(s.file, token); err != nil {
			slog.Warn("Failed to save refreshed token", "error", err, "file", s.file)
		}
		s.last = token
	}
	return token, nil
}
