package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"arheritage/internal/accounts"
	"arheritage/internal/app"
	"arheritage/internal/apperr"
	"arheritage/internal/contributions"
	"arheritage/internal/device"
	"arheritage/internal/discovery"
	"arheritage/internal/logging"
	"arheritage/internal/narration"
	"arheritage/internal/records"
	"arheritage/internal/scan"
)

// StatusFunc reports daemon health for the operator status route.
type StatusFunc func(ctx context.Context) any

// Deps are the services the API drives. Camera, Speech, Locator and Status
// may be nil.
type Deps struct {
	Accounts      *accounts.Service
	Settings      *app.Context
	Records       *records.Store
	Gateway       scan.Describer
	Discovery     *discovery.Service
	Contributions *contributions.Service
	Camera        *device.Camera
	Speech        narration.Speaker
	Locator       device.Locator
	Status        StatusFunc
}

// Server routes HTTP requests to the flows.
type Server struct {
	deps          Deps
	logger        *slog.Logger
	operatorToken string
	closeDelay    time.Duration

	scans         *registry[*scan.Session]
	views         *registry[*discovery.View]
	mu            sync.Mutex
	drafts        map[string]*contributions.Draft
	routers       map[string]*app.Router
	cameraSession *scan.Session
	router        *mux.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithOperatorToken guards the status route with a static bearer token.
func WithOperatorToken(token string) Option {
	return func(s *Server) {
		s.operatorToken = strings.TrimSpace(token)
	}
}

// WithFeedbackCloseDelay overrides the scan feedback auto-close delay.
func WithFeedbackCloseDelay(d time.Duration) Option {
	return func(s *Server) {
		s.closeDelay = d
	}
}

// New builds the router.
func New(deps Deps, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		deps:       deps,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		closeDelay: scan.FeedbackCloseDelay,
		scans:      newRegistry[*scan.Session](),
		views:      newRegistry[*discovery.View](),
		drafts:     make(map[string]*contributions.Draft),
		routers:    make(map[string]*app.Router),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close ends every scan session and unmounts every view.
func (s *Server) Close() {
	for _, session := range s.scans.drain() {
		session.Close()
	}
	for _, view := range s.views.drain() {
		view.Unmount()
	}
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestContext)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/status", operatorAuth(s.operatorToken, s.handleStatus)).Methods(http.MethodGet)
	api.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	user := api.NewRoute().Subrouter()
	user.Use(s.requireSession)
	user.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	user.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	user.HandleFunc("/screen", s.handleScreen).Methods(http.MethodGet)
	user.HandleFunc("/screen", s.handleNavigate).Methods(http.MethodPost)

	user.HandleFunc("/settings", s.handleSettings).Methods(http.MethodGet)
	user.HandleFunc("/settings/theme", s.handleSetTheme).Methods(http.MethodPut)
	user.HandleFunc("/settings/audio", s.handleSetAudio).Methods(http.MethodPut)
	user.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	user.HandleFunc("/profile", s.handleSaveProfile).Methods(http.MethodPut)
	user.HandleFunc("/profile/avatar", s.handleSetAvatar).Methods(http.MethodPut)

	user.HandleFunc("/scans", s.handleOpenScan).Methods(http.MethodPost)
	user.HandleFunc("/scans/{id}", s.handleScanState).Methods(http.MethodGet)
	user.HandleFunc("/scans/{id}", s.handleCloseScan).Methods(http.MethodDelete)
	user.HandleFunc("/scans/{id}/capture", s.handleCapture).Methods(http.MethodPost)
	user.HandleFunc("/scans/{id}/again", s.handleScanAgain).Methods(http.MethodPost)
	user.HandleFunc("/scans/{id}/feedback", s.handleProvideFeedback).Methods(http.MethodPost)
	user.HandleFunc("/scans/{id}/feedback/back", s.handleFeedbackBack).Methods(http.MethodPost)
	user.HandleFunc("/scans/{id}/feedback/submit", s.handleSubmitFeedback).Methods(http.MethodPost)
	user.HandleFunc("/scans/{id}/speak", s.handleScanSpeak).Methods(http.MethodPost)

	user.HandleFunc("/home", s.handleHome).Methods(http.MethodPost)
	user.HandleFunc("/discoveries", s.handleDiscover).Methods(http.MethodPost)
	user.HandleFunc("/discoveries/history", s.handleDiscoverHistory).Methods(http.MethodGet)
	user.HandleFunc("/discoveries/{id}", s.handleViewState).Methods(http.MethodGet)
	user.HandleFunc("/discoveries/{id}", s.handleUnmount).Methods(http.MethodDelete)
	user.HandleFunc("/discoveries/{id}/speak", s.handleViewSpeak).Methods(http.MethodPost)
	user.HandleFunc("/discoveries/{id}/speak", s.handleViewStopSpeech).Methods(http.MethodDelete)

	user.HandleFunc("/contributions", s.handleContributions).Methods(http.MethodGet)
	user.HandleFunc("/contributions", s.handleSubmitContribution).Methods(http.MethodPost)
	user.HandleFunc("/contributions/draft", s.handleDraft).Methods(http.MethodGet)
	user.HandleFunc("/contributions/draft", s.handleUpdateDraft).Methods(http.MethodPut)
	user.HandleFunc("/contributions/draft/details", s.handleDraftDetails).Methods(http.MethodPost)
	user.HandleFunc("/contributions/draft/back", s.handleDraftBack).Methods(http.MethodPost)
	user.HandleFunc("/contributions/draft/restart", s.handleDraftRestart).Methods(http.MethodPost)
	user.HandleFunc("/contributions/draft/transcript", s.handleDraftTranscript).Methods(http.MethodPost)
	user.HandleFunc("/contributions/{id}/media", s.handleContributionMedia).Methods(http.MethodGet)

	return r
}

// requestContext attaches a correlation id and logs each request.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := logging.WithRequestID(r.Context(), id)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("duration", time.Since(start)),
		)
	})
}

// requireSession verifies the bearer session token.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeError(w, r, apperr.Wrap(apperr.ErrUnauthorized, "authenticate", "Please sign in.", nil))
			return
		}
		email, err := s.deps.Accounts.VerifyToken(token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithUser(r.Context(), email)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

func currentUser(r *http.Request) string {
	email, _ := logging.UserFromContext(r.Context())
	return email
}

// screenRouter returns the per-user router, creating it already past the
// splash screen.
func (s *Server) screenRouter(email string) *app.Router {
	s.mu.Lock()
	defer s.mu.Unlock()
	router, ok := s.routers[email]
	if !ok {
		router = app.NewRouter()
		router.FinishSplash()
		s.routers[email] = router
	}
	return router
}

func (s *Server) draft(email string) *contributions.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[email]
	if !ok {
		d = contributions.NewDraft()
		s.drafts[email] = d
	}
	return d
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Status == nil {
		writeJSON(w, s.logger, http.StatusOK, map[string]bool{"running": true})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.deps.Status(r.Context()))
}
