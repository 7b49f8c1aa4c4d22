package tests

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"teamline/internal/app"
	"teamline/pkg/config"
)

// newServer boots the full application over an in-memory store and
// returns a live httptest server wrapping its handler. Each call is an
// isolated workspace.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	var eff config.EffectiveConfigResult
	eff.DBPath = ":memory:"
	eff.Addr = "127.0.0.1:0"
	eff.Source = "default"
	eff.Config.Security.RateLimit.RPS = 1000
	eff.Config.Security.RateLimit.Burst = 1000

	a, err := app.New(eff, "test", "", "")
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen tcp4: %v", err)
	}
	srv := httptest.NewUnstartedServer(a.Handler())
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

// do sends one JSON request and decodes the JSON response body into a
// generic map. A nil body sends no payload.
func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func post(t *testing.T, srv *httptest.Server, path, token string, body any) (int, map[string]any) {
	t.Helper()
	return do(t, srv, http.MethodPost, path, token, body)
}

func get(t *testing.T, srv *httptest.Server, path, token string) (int, map[string]any) {
	t.Helper()
	return do(t, srv, http.MethodGet, path, token, nil)
}

func put(t *testing.T, srv *httptest.Server, path, token string, body any) (int, map[string]any) {
	t.Helper()
	return do(t, srv, http.MethodPut, path, token, body)
}

func del(t *testing.T, srv *httptest.Server, path, token string) (int, map[string]any) {
	t.Helper()
	return do(t, srv, http.MethodDelete, path, token, nil)
}

// num pulls an integer field out of a decoded JSON map.
func num(t *testing.T, m map[string]any, key string) int64 {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Fatalf("response missing %q: %v", key, m)
	}
	f, ok := v.(float64)
	if !ok {
		t.Fatalf("field %q is not a number: %v", key, v)
	}
	return int64(f)
}

// register creates a user and returns their token and id. The first call
// against a fresh server yields the workspace's global owner.
func register(t *testing.T, srv *httptest.Server, email, first, last string) (string, int64) {
	t.Helper()
	status, body := post(t, srv, "/v1/auth/register", "", map[string]any{
		"email": email, "password": "secret1",
		"name_first": first, "name_last": last,
	})
	if status != http.StatusOK {
		t.Fatalf("register %s: status %d, body %v", email, status, body)
	}
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatalf("register %s: no token in %v", email, body)
	}
	return tok, num(t, body, "auth_user_id")
}
