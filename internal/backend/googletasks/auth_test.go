package googletasks

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("code") != "the-code" || r.Form.Get("code_verifier") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testAuthorizer(srv *httptest.Server, onURL func(string)) *Authorizer {
	return &Authorizer{
		Config: &oauth2.Config{
			ClientID: "client",
			Endpoint: oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
			Scopes:   []string{Scope},
		},
		OnURL:   onURL,
		Listen:  func() (net.Listener, error) { return net.Listen("tcp", "127.0.0.1:0") },
		Timeout: 5 * time.Second,
	}
}

// redirect simulates the browser following the consent redirect.
func redirect(t *testing.T, authURL string, mutate func(q url.Values)) {
	u, err := url.Parse(authURL)
	if err != nil {
		t.Errorf("bad auth url: %v", err)
		return
	}
	q := u.Query()
	cb, _ := url.Parse(q.Get("redirect_uri"))
	params := url.Values{"code": {"the-code"}, "state": {q.Get("state")}}
	if mutate != nil {
		mutate(params)
	}
	cb.RawQuery = params.Encode()
	go func() {
		resp, err := http.Get(cb.String())
		if err == nil {
			resp.Body.Close()
		}
	}()
}

func TestAuthorize(t *testing.T) {
	srv := tokenServer(t)
	a := testAuthorizer(srv, func(u string) {
		if !strings.Contains(u, "code_challenge=") || !strings.Contains(u, "access_type=offline") {
			t.Errorf("auth url lacks PKCE or offline access: %s", u)
		}
		redirect(t, u, nil)
	})

	token, err := a.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if token.AccessToken != "access" || token.RefreshToken != "refresh" {
		t.Errorf("unexpected token %+v", token)
	}
}

func TestAuthorize_StateMismatch(t *testing.T) {
	srv := tokenServer(t)
	a := testAuthorizer(srv, func(u string) {
		redirect(t, u, func(q url.Values) { q.Set("state", "forged") })
	})

	_, err := a.Authorize(context.Background())
	if err == nil || !strings.Contains(err.Error(), "state mismatch") {
		t.Errorf("expected state mismatch, got %v", err)
	}
}

func TestAuthorize_Cancelled(t *testing.T) {
	srv := tokenServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testAuthorizer(srv, nil).Authorize(ctx)
	if err == nil || err.Error() != "cancelled" {
		t.Errorf("expected cancelled, got %v", err)
	}
}

func TestTokenRoundTripAndUsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := SaveToken(path, &oauth2.Token{AccessToken: "a"}); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	token, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if token.AccessToken != "a" {
		t.Errorf("expected access token %q, got %q", "a", token.AccessToken)
	}
	if TokenUsable(context.Background(), &oauth2.Config{}, token) {
		t.Error("token without refresh token must not be usable")
	}
}
