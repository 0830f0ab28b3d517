package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/logging"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"

	// CalendarEventsScope allows inserting events
	CalendarEventsScope = "https://www.googleapis.com/auth/calendar.events"
)

// ErrConsentDenied is returned when the user declines the consent screen
var ErrConsentDenied = errors.New("calendar consent denied")

// TokenBrokerConfig configures the OAuth flow
type TokenBrokerConfig struct {
	ClientSecret string
	CachePath    string // token cache file; empty disables caching
	AuthURL      string
	TokenURL     string

	// Opener shows the consent URL to the user, typically in the browser.
	// When nil the URL is only logged.
	Opener func(ctx context.Context, url string) error
}

type cachedToken struct {
	ClientID string        `json:"client_id"`
	Token    *oauth2.Token `json:"token"`
}

// oauthBroker obtains calendar tokens with the installed-app flow:
// a cached or refreshed token when possible, otherwise PKCE consent through
// a loopback redirect.
type oauthBroker struct {
	cfg TokenBrokerConfig
	mu  sync.Mutex
	log *logging.Logger
}

// NewTokenBroker creates a token broker
func NewTokenBroker(cfg TokenBrokerConfig) repo.TokenBroker {
	if cfg.AuthURL == "" {
		cfg.AuthURL = googleAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = googleTokenURL
	}
	return &oauthBroker{cfg: cfg, log: logging.New("OAuth")}
}

func (b *oauthBroker) oauthConfig(clientID, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: b.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  b.cfg.AuthURL,
			TokenURL: b.cfg.TokenURL,
		},
		RedirectURL: redirectURL,
		Scopes:      []string{CalendarEventsScope},
	}
}

// Token returns an access token for clientID. Calls are serialised so
// concurrent bookings share one consent prompt.
func (b *oauthBroker) Token(ctx context.Context, clientID string) (string, error) {
	if clientID == "" {
		return "", errors.New("no calendar client id set")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if cached := b.loadCache(clientID); cached != nil {
		tok, err := b.oauthConfig(clientID, "").TokenSource(ctx, cached).Token()
		if err == nil {
			if tok.AccessToken != cached.AccessToken {
				b.saveCache(clientID, tok)
			}
			return tok.AccessToken, nil
		}
		b.log.Warnf("Cached token unusable, starting consent: %v", err)
	}

	tok, err := b.consent(ctx, clientID)
	if err != nil {
		return "", err
	}
	b.saveCache(clientID, tok)
	return tok.AccessToken, nil
}

func (b *oauthBroker) consent(ctx context.Context, clientID string) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth redirect: %w", err)
	}

	conf := b.oauthConfig(clientID, fmt.Sprintf("http://%s/callback", listener.Addr().String()))
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var res result
		switch {
		case query.Get("state") != state:
			res.err = errors.New("oauth state mismatch")
		case query.Get("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrConsentDenied, query.Get("error"))
		case query.Get("code") == "":
			res.err = errors.New("oauth redirect without code")
		default:
			res.code = query.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Calendar access granted. You can close this tab.")
		}
		select {
		case results <- res:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go server.Serve(listener)
	defer server.Close()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	b.log.Infof("Calendar consent required: %s", authURL)
	if b.cfg.Opener != nil {
		if err := b.cfg.Opener(ctx, authURL); err != nil {
			b.log.Warnf("Failed to open consent page: %v", err)
		}
	}

	// Consent waits on a human; only ctx bounds it
	var res result
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for calendar consent: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange oauth code: %w", err)
	}
	return tok, nil
}

func (b *oauthBroker) loadCache(clientID string) *oauth2.Token {
	if b.cfg.CachePath == "" {
		return nil
	}
	data, err := os.ReadFile(b.cfg.CachePath)
	if err != nil {
		return nil
	}
	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		b.log.Warnf("Ignoring corrupt token cache: %v", err)
		return nil
	}
	if cached.ClientID != clientID || cached.Token == nil {
		return nil
	}
	return cached.Token
}

func (b *oauthBroker) saveCache(clientID string, tok *oauth2.Token) {
	if b.cfg.CachePath == "" {
		return
	}
	data, err := json.MarshalIndent(cachedToken{ClientID: clientID, Token: tok}, "", "  ")
	if err != nil {
		b.log.Warnf("Failed to encode token cache: %v", err)
		return
	}
	if err := writeFileAtomic(b.cfg.CachePath, data, 0600); err != nil {
		b.log.Warnf("Failed to write token cache: %v", err)
	}
}

// writeFileAtomic writes through a temp file in the same directory and renames it into place
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	return os.Rename(tmpPath, path)
}
