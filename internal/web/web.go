// Package web serves the dashboard UI and its JSON API. It is the
// interactive surface over the core: filter and reconcile are the only
// entry points it calls for query and mutation.
package web

import (
	"crypto/rand"
	"crypto/subtle"
	"embed"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Wei1024/embase-conference-dashboard/internal/config"
	"github.com/Wei1024/embase-conference-dashboard/internal/dataset"
	"github.com/Wei1024/embase-conference-dashboard/internal/fetch"
	appLog "github.com/Wei1024/embase-conference-dashboard/internal/log"
	"github.com/Wei1024/embase-conference-dashboard/internal/pinned"
)

// sessionCookie names the login session cookie.
const sessionCookie = "confdash_session"

// Server holds the application state for one dashboard instance: the
// table cache, the pinned set and its store, and the login sessions.
// All state is explicit here; the core packages hold none.
type Server struct {
	cfg     *config.Config
	cache   *dataset.Cache
	store   *pinned.Store
	fetcher *fetch.Fetcher
	mux     *http.ServeMux

	// pinnedMu serializes pin mutations; one interactive session is
	// assumed, the mutex is hygiene for overlapping HTTP requests.
	pinnedMu  sync.Mutex
	pinnedSet pinned.Set

	sessionMu sync.Mutex
	sessions  map[string]time.Time
}

// embeddedStatic contains the single-page dashboard UI.
//
//go:embed static
var embeddedStatic embed.FS

// NewServer constructs a Server from the configuration, loading the
// persisted pinned set. A corrupt pinned file is reported and the session
// starts with an empty set.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:      cfg,
		cache:    dataset.NewCache(cfg.DataFile, cfg.HeaderSheet),
		store:    pinned.NewStore(cfg.PinnedFile),
		fetcher:  fetch.New(),
		mux:      http.NewServeMux(),
		sessions: make(map[string]time.Time),
	}

	set, err := s.store.Load()
	if err != nil {
		appLog.Warn("pinned set unavailable; starting empty", "path", cfg.PinnedFile, "err", err)
	}
	s.pinnedSet = set

	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server with the session
// middleware applied.
func (s *Server) Handler() http.Handler {
	return s.sessionMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/login", s.handleLogin)
	s.mux.HandleFunc("/api/logout", s.handleLogout)
	s.mux.HandleFunc("/api/conferences", s.handleConferences)
	s.mux.HandleFunc("/api/filters", s.handleFilters)
	s.mux.HandleFunc("/api/pinned", s.handlePinned)
	s.mux.HandleFunc("/api/pin", s.handlePin)
	s.mux.HandleFunc("/api/unpin", s.handleUnpin)
	s.mux.HandleFunc("/api/reconcile", s.handleReconcile)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/export.xlsx", s.handleExportXlsx)
	s.mux.HandleFunc("/api/export.ics", s.handleExportICS)

	// Static dashboard UI; the login form lives there too.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// sessionMiddleware guards the API with the login session. The static UI,
// /health and /api/login stay reachable without one.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !strings.HasPrefix(path, "/api/") || path == "/api/login" {
			next.ServeHTTP(w, r)
			return
		}

		if !s.authenticated(r) {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticated(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return false
	}
	s.sessionMu.Lock()
	_, ok := s.sessions[c.Value]
	s.sessionMu.Unlock()
	return ok
}

// handleLogin checks the shared credential pair once per session and
// issues an opaque session token on success.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !secureCompare(req.Username, s.cfg.Auth.Username) || !secureCompare(req.Password, s.cfg.Auth.Password) {
		appLog.Warn("login rejected", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token := newSessionToken()
	s.sessionMu.Lock()
	s.sessions[token] = time.Now()
	s.sessionMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	appLog.Info("login accepted", "username", req.Username)
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "username": req.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessionMu.Lock()
		delete(s.sessions, c.Value)
		s.sessionMu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newSessionToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failures are not recoverable in any useful way.
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// staticFileServer serves the embedded dashboard UI for all non-API
// paths.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "dashboard UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		// API requests must never fall through to the static UI.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
