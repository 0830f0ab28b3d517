package data

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T, accessToken string, forms chan<- url.Values) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if forms != nil {
			forms <- r.PostForm
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  accessToken,
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func writeCache(t *testing.T, path, clientID string, tok *oauth2.Token) {
	t.Helper()
	data, _ := json.Marshal(cachedToken{ClientID: clientID, Token: tok})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write cache: %v", err)
	}
}

func TestTokenFromValidCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "token.json")
	writeCache(t, cachePath, "client-1", &oauth2.Token{
		AccessToken: "cached",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})

	broker := NewTokenBroker(TokenBrokerConfig{
		CachePath: cachePath,
		TokenURL:  "http://127.0.0.1:1/unused",
		Opener: func(ctx context.Context, u string) error {
			t.Error("Expected no consent for a valid cached token")
			return nil
		},
	})

	tok, err := broker.Token(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "cached" {
		t.Errorf("Expected cached token, got %q", tok)
	}
}

func TestTokenRefreshesExpiredCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "token.json")
	writeCache(t, cachePath, "client-1", &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(-time.Hour),
	})

	forms := make(chan url.Values, 1)
	server := newTokenServer(t, "fresh", forms)

	broker := NewTokenBroker(TokenBrokerConfig{CachePath: cachePath, TokenURL: server.URL})
	tok, err := broker.Token(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "fresh" {
		t.Errorf("Expected fresh token, got %q", tok)
	}

	form := <-forms
	if form.Get("grant_type") != "refresh_token" {
		t.Errorf("Expected refresh grant, got %q", form.Get("grant_type"))
	}

	data, _ := os.ReadFile(cachePath)
	var cached cachedToken
	json.Unmarshal(data, &cached)
	if cached.Token == nil || cached.Token.AccessToken != "fresh" {
		t.Errorf("Expected refreshed token in cache, got %s", data)
	}
}

func TestTokenConsentFlow(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "sub", "token.json")
	forms := make(chan url.Values, 1)
	server := newTokenServer(t, "granted", forms)

	var authURL *url.URL
	broker := NewTokenBroker(TokenBrokerConfig{
		CachePath: cachePath,
		AuthURL:   "https://auth.example/authorize",
		TokenURL:  server.URL,
		Opener: func(ctx context.Context, raw string) error {
			u, err := url.Parse(raw)
			if err != nil {
				return err
			}
			authURL = u
			q := u.Query()
			redirect := q.Get("redirect_uri") + "?code=abc&state=" + url.QueryEscape(q.Get("state"))
			go func() {
				resp, err := http.Get(redirect)
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	})

	tok, err := broker.Token(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "granted" {
		t.Errorf("Expected granted token, got %q", tok)
	}

	q := authURL.Query()
	if q.Get("client_id") != "client-1" {
		t.Errorf("Expected client_id client-1, got %q", q.Get("client_id"))
	}
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		t.Error("Expected PKCE challenge in consent URL")
	}
	if q.Get("access_type") != "offline" {
		t.Error("Expected offline access")
	}
	if q.Get("scope") != CalendarEventsScope {
		t.Errorf("Unexpected scope %q", q.Get("scope"))
	}

	form := <-forms
	if form.Get("code") != "abc" {
		t.Errorf("Expected code abc, got %q", form.Get("code"))
	}
	if form.Get("code_verifier") == "" {
		t.Error("Expected code_verifier in exchange")
	}

	if _, err := os.Stat(cachePath); err != nil {
		t.Errorf("Expected token cache to be written: %v", err)
	}
}

func TestTokenConsentDenied(t *testing.T) {
	broker := NewTokenBroker(TokenBrokerConfig{
		TokenURL: "http://127.0.0.1:1/unused",
		Opener: func(ctx context.Context, raw string) error {
			u, _ := url.Parse(raw)
			q := u.Query()
			redirect := q.Get("redirect_uri") + "?error=access_denied&state=" + url.QueryEscape(q.Get("state"))
			go func() {
				resp, err := http.Get(redirect)
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	})

	_, err := broker.Token(context.Background(), "client-1")
	if !errors.Is(err, ErrConsentDenied) {
		t.Errorf("Expected ErrConsentDenied, got %v", err)
	}
}

func TestTokenConsentCancelled(t *testing.T) {
	broker := NewTokenBroker(TokenBrokerConfig{TokenURL: "http://127.0.0.1:1/unused"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := broker.Token(ctx, "client-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestTokenRequiresClientID(t *testing.T) {
	if _, err := NewTokenBroker(TokenBrokerConfig{}).Token(context.Background(), ""); err == nil {
		t.Error("Expected error without client id")
	}
}
