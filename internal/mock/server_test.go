package mock

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/postcli/internal/types"
)

func newBackend(t *testing.T, cfg *Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func call(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func register(t *testing.T, base, username, password string) string {
	t.Helper()
	resp, payload := call(t, http.MethodPost, base+"/api/register", "", types.Credentials{Username: username, Password: password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return payload["token"].(string)
}

func TestRegisterAndLogin(t *testing.T) {
	_, srv := newBackend(t, nil)

	token := register(t, srv.URL, "alice", "secret")
	assert.NotEmpty(t, token)

	resp, payload := call(t, http.MethodPost, srv.URL+"/api/login", "", types.Credentials{Username: "alice", Password: "secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, msgLoggedIn, payload["message"])
	assert.NotEmpty(t, payload["token"])
}

func TestRegister_Errors(t *testing.T) {
	_, srv := newBackend(t, nil)
	register(t, srv.URL, "alice", "secret")

	resp, payload := call(t, http.MethodPost, srv.URL+"/api/register", "", types.Credentials{Username: "alice", Password: "other"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgUserExists, payload["message"])

	resp, payload = call(t, http.MethodPost, srv.URL+"/api/register", "", types.Credentials{Username: "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgMissingCredentials, payload["message"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	_, srv := newBackend(t, &Config{Secret: "s", Users: []SeedUser{{Username: "alice", Password: "secret"}}})

	for _, creds := range []types.Credentials{
		{Username: "alice", Password: "wrong"},
		{Username: "nobody", Password: "secret"},
	} {
		resp, payload := call(t, http.MethodPost, srv.URL+"/api/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, msgInvalidCredentials, payload["message"])
	}
}

func TestTokenCarriesSubjectAndExpiry(t *testing.T) {
	_, srv := newBackend(t, &Config{Secret: "s", TokenTTL: time.Minute})
	token := register(t, srv.URL, "alice", "secret")

	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestAuthMiddleware(t *testing.T) {
	_, srv := newBackend(t, nil)

	resp, payload := call(t, http.MethodGet, srv.URL+"/api/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, msgNoToken, payload["message"])

	resp, payload = call(t, http.MethodGet, srv.URL+"/api/history", "not-a-jwt", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, msgInvalidToken, payload["message"])

	// signed with another secret
	other, _ := newBackend(t, &Config{Secret: "other"})
	forged, err := other.issueToken("alice")
	require.NoError(t, err)
	resp, _ = call(t, http.MethodGet, srv.URL+"/api/history", forged, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestExpiredTokenIsForbidden(t *testing.T) {
	s, srv := newBackend(t, &Config{Secret: "s"})
	register(t, srv.URL, "alice", "secret")

	s.config.TokenTTL = -time.Minute
	token, err := s.issueToken("alice")
	require.NoError(t, err)

	resp, _ := call(t, http.MethodGet, srv.URL+"/api/history", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProxyRecordsHistoryNewestFirst(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer target.Close()

	s, srv := newBackend(t, nil)
	alice := register(t, srv.URL, "alice", "secret")
	bob := register(t, srv.URL, "bob", "secret")

	for _, path := range []string{"/first", "/second"} {
		resp, payload := call(t, http.MethodPost, srv.URL+"/api/proxy", alice, types.ProxyEnvelope{
			URL:     target.URL + path,
			Method:  types.MethodGet,
			Headers: map[string]any{"Accept": "application/json"},
			Body:    map[string]any{},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(200), payload["status"])
		assert.Equal(t, map[string]any{"path": path}, payload["data"])
	}

	entries := s.History("alice")
	require.Len(t, entries, 2)
	assert.Equal(t, target.URL+"/second", entries[0].URL)
	assert.Equal(t, target.URL+"/first", entries[1].URL)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	assert.Equal(t, 200, entries[0].ResponseStatus)

	assert.Empty(t, s.History("bob"))
	resp, _ := call(t, http.MethodGet, srv.URL+"/api/history", bob, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProxyErrors(t *testing.T) {
	_, srv := newBackend(t, nil)
	token := register(t, srv.URL, "alice", "secret")

	resp, payload := call(t, http.MethodPost, srv.URL+"/api/proxy", token, types.ProxyEnvelope{Method: types.MethodGet})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgURLRequired, payload["error"])

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	resp, payload = call(t, http.MethodPost, srv.URL+"/api/proxy", token, types.ProxyEnvelope{URL: closed.URL, Method: types.MethodGet})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, payload["error"])
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backend.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 6000\nsecret: abc\ntokenTTL: 2h\nusers:\n  - username: alice\n    password: x\n"), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "abc", cfg.Secret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Len(t, cfg.Users, 1)

	bad := filepath.Join(dir, "backend.toml")
	require.NoError(t, os.WriteFile(bad, []byte(""), 0600))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	assert.Error(t, validateConfig(&Config{}))
	assert.Error(t, validateConfig(&Config{Secret: "s", Port: 70000}))
	assert.Error(t, validateConfig(&Config{Secret: "s", Users: []SeedUser{{Username: "a", Password: "x"}, {Username: "a", Password: "y"}}}))
	assert.NoError(t, validateConfig(DefaultConfig()))
}
