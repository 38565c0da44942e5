package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"taskledger/internal/config"
)

const (
	// CallbackTimeout bounds the wait for the browser redirect.
	CallbackTimeout = 5 * time.Minute

	// TokenExchangeTimeout bounds the code exchange.
	TokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	callbackStartPort = 8085

	// Max port attempts
	callbackMaxPortAttempts = 5
)

// LoadOAuthConfig reads oauth_client.json.
func LoadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oc, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oc, nil
}

// Authorizer runs the installed-app OAuth flow with PKCE and a local
// callback server.
type Authorizer struct {
	Config *oauth2.Config

	// OnURL receives the consent URL the user must open.
	OnURL func(url string)

	// Listen opens the callback listener. Defaults to the first free port
	// from 8085.
	Listen func() (net.Listener, error)

	// Timeout bounds the wait for the callback. Defaults to CallbackTimeout.
	Timeout time.Duration
}

// Authorize waits for the user to grant access and exchanges the code.
func (a *Authorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	listen := a.Listen
	if listen == nil {
		listen = listenCallback
	}
	timeout := a.Timeout
	if timeout == 0 {
		timeout = CallbackTimeout
	}

	listener, err := listen()
	if err != nil {
		return nil, fmt.Errorf("could not bind to local port for OAuth callback: %w", err)
	}
	defer listener.Close()

	oc := *a.Config
	oc.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr())

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := oc.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
	if a.OnURL != nil {
		a.OnURL(authURL)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, errors.New("oauth state mismatch"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, errors.New("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authorization successful</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(timeout):
		return nil, errors.New("oauth callback timed out")
	case <-ctx.Done():
		return nil, errors.New("cancelled")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, TokenExchangeTimeout)
	defer cancel()
	token, err := oc.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// listenCallback tries ports from callbackStartPort.
func listenCallback() (net.Listener, error) {
	for i := 0; i < callbackMaxPortAttempts; i++ {
		l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", callbackStartPort+i))
		if err == nil {
			return l, nil
		}
	}
	return nil, errors.New("no available port found")
}

// LoadToken reads a stored token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}
	return &token, nil
}

// SaveToken saves an OAuth token to a file with mode 0600.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TokenUsable reports whether token has a refresh token and can be refreshed.
func TokenUsable(ctx context.Context, oc *oauth2.Config, token *oauth2.Token) bool {
	if token == nil || token.RefreshToken == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := oc.TokenSource(ctx, token).Token()
	return err == nil
}

// RevokeURL is Google's token revocation endpoint.
var RevokeURL = "https://oauth2.googleapis.com/revoke"

// RevokeToken asks Google to invalidate token. The refresh token is
// preferred since revoking it also revokes its access tokens.
func RevokeToken(ctx context.Context, hc *http.Client, token *oauth2.Token) error {
	value := token.RefreshToken
	if value == "" {
		value = token.AccessToken
	}
	if value == "" {
		return errors.New("token has nothing to revoke")
	}

	ctx, cancel := context.WithTimeout(ctx, TokenExchangeTimeout)
	defer cancel()
	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke token: unexpected status %s", resp.Status)
	}
	return nil
}
