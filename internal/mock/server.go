// Package mock implements a development backend serving /api/register,
// /api/login, /api/history and /api/proxy from memory.
package mock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/studiowebux/postcli/internal/executor"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// maxRequestBody bounds incoming payloads
const maxRequestBody = 1 << 20

// Server represents the development backend
type Server struct {
	config     *Config
	httpServer *http.Server
	listener   net.Listener
	outbound   *http.Client
	logger     *slog.Logger

	mu      sync.RWMutex
	users   map[string]*user
	records []record
}

// NewServer creates a backend from config, creating the seed users
func NewServer(config *Config, logger *slog.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = time.Hour
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		config:   config,
		outbound: executor.NewClient(executor.ClientOptions{Timeout: config.ProxyTimeout}),
		logger:   logger,
		users:    make(map[string]*user),
	}

	for _, seed := range config.Users {
		if err := s.addUser(seed.Username, seed.Password); err != nil {
			return nil, fmt.Errorf("failed to create user %q: %w", seed.Username, err)
		}
	}

	return s, nil
}

// Handler returns the HTTP handler, also used directly by tests
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/history", s.requireAuth(s.handleHistory))
	mux.HandleFunc("POST /api/proxy", s.requireAuth(s.handleProxy))
	return s.logRequests(mux)
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("backend server error", "error", err)
		}
	}()

	s.logger.Info("development backend started", "address", s.GetAddress())
	return nil
}

// Stop stops the server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// GetAddress returns the server base URL
func (s *Server) GetAddress() string {
	if s.listener != nil {
		return "http://" + s.listener.Addr().String()
	}
	return fmt.Sprintf("http://%s:%d", s.config.Host, s.config.Port)
}

func (s *Server) addUser(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return errUserExists
	}
	s.users[username] = &user{Username: username, PasswordHash: hash, CreatedAt: time.Now()}
	return nil
}

var errUserExists = errors.New(msgUserExists)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	if err := s.addUser(creds.Username, creds.Password); err != nil {
		if errors.Is(err, errUserExists) {
			writeJSON(w, http.StatusBadRequest, messageBody{Message: msgUserExists})
			return
		}
		s.logger.Error("register failed", "username", creds.Username, "error", err)
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Server error during registration"})
		return
	}

	token, err := s.issueToken(creds.Username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Server error during registration"})
		return
	}

	writeJSON(w, http.StatusCreated, messageBody{Message: msgRegistered, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	u, exists := s.users[creds.Username]
	s.mu.RUnlock()

	if !exists || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(creds.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, messageBody{Message: msgInvalidCredentials})
		return
	}

	token, err := s.issueToken(creds.Username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Server error during login"})
		return
	}

	writeJSON(w, http.StatusOK, messageBody{Message: msgLoggedIn, Token: token})
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (types.Credentials, bool) {
	var creds types.Credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgMissingCredentials})
		return creds, false
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgMissingCredentials})
		return creds, false
	}
	return creds, true
}

type ctxKey struct{}

// requireAuth rejects requests without a valid bearer token:
// 401 when it is missing, 403 when it does not verify.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, messageBody{Message: msgNoToken})
			return
		}

		username, err := s.validateToken(strings.TrimSpace(token))
		if err != nil {
			s.logger.Debug("rejected token", "error", err)
			writeJSON(w, http.StatusForbidden, messageBody{Message: msgInvalidToken})
			return
		}

		s.mu.RLock()
		_, exists := s.users[username]
		s.mu.RUnlock()
		if !exists {
			writeJSON(w, http.StatusForbidden, messageBody{Message: msgInvalidToken})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, username)))
	}
}

func usernameFrom(r *http.Request) string {
	username, _ := r.Context().Value(ctxKey{}).(string)
	return username
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.History(usernameFrom(r)))
}

// History returns username's entries, newest first
func (s *Server) History(username string) []types.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// records are kept in insertion order
	entries := make([]types.HistoryEntry, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Owner == username {
			entries = append(entries, s.records[i].Entry)
		}
	}
	return entries
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var env types.ProxyEnvelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request payload"})
		return
	}
	if strings.TrimSpace(env.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgURLRequired})
		return
	}
	if env.Method == "" {
		env.Method = types.MethodGet
	}
	if env.Headers == nil {
		env.Headers = map[string]any{}
	}

	start := time.Now()
	outcome, err := executor.Execute(r.Context(), s.outbound, &env)
	if err != nil {
		s.logger.Warn("proxied call failed", "method", env.Method, "url", env.URL, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	s.logger.Debug("proxied call",
		"method", env.Method,
		"url", env.URL,
		"status", outcome.Status,
		"took", executor.FormatDuration(time.Since(start).Milliseconds()))

	s.record(usernameFrom(r), &env, outcome)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) record(owner string, env *types.ProxyEnvelope, outcome *types.RequestOutcome) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record{
		Owner:   owner,
		Created: now,
		Entry: types.HistoryEntry{
			ID:              uuid.New().String(),
			URL:             env.URL,
			Method:          string(env.Method),
			Headers:         env.Headers,
			Body:            env.Body,
			ResponseStatus:  outcome.Status,
			ResponseHeaders: outcome.Headers,
			ResponseData:    outcome.Data,
			Timestamp:       now.UTC().Format(time.RFC3339Nano),
		},
	})
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
