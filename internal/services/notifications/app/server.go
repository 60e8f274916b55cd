// Package server hosts the notifications HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mangacollab/mangacollab/internal/platform/timeouts"
	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
)

// Config defines the inputs for the notifications transport boundary.
type Config struct {
	HTTPAddr          string
	AccessTokens      AccessTokenConfig
	InternalToken     string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the notifications HTTP process. Inbox routes authenticate the
// recipient through bearer tokens; internal routes are reserved for
// service-to-service calls carrying the internal token.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server

	service    *domain.Service
	dispatcher *domain.Dispatcher

	accessTokens  AccessTokenConfig
	internalToken string
}

// NewServer wires the HTTP surface over the domain service and dispatcher.
func NewServer(config Config, service *domain.Service, dispatcher *domain.Dispatcher) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if service == nil {
		return nil, errors.New("notification service is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	server := &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		service:         service,
		dispatcher:      dispatcher,
		accessTokens:    config.AccessTokens,
		internalToken:   strings.TrimSpace(config.InternalToken),
	}
	server.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           server.handler(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return server, nil
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("GET /api/v1/notifications", s.requireUser(s.handleListNotifications))
	mux.Handle("GET /api/v1/notifications/unread-count", s.requireUser(s.handleUnreadCount))
	mux.Handle("POST /api/v1/notifications/{id}/read", s.requireUser(s.handleMarkRead))
	mux.Handle("POST /api/v1/notifications/read-all", s.requireUser(s.handleMarkAllRead))
	mux.Handle("GET /api/v1/notifications/preferences", s.requireUser(s.handleGetPreferences))
	mux.Handle("PUT /api/v1/notifications/preferences", s.requireUser(s.handlePutPreferences))

	mux.Handle("POST /internal/v1/dispatch/team-status", s.requireInternal(s.handleDispatchTeamStatus))
	mux.Handle("POST /internal/v1/notify", s.requireInternal(s.handleNotify))
	mux.Handle("POST /internal/v1/notifications/unread-all", s.requireInternal(s.handleMarkAllUnread))
	mux.Handle("POST /internal/v1/recipients/{id}/purge", s.requireInternal(s.handlePurgeRecipient))

	return mux
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("notifications server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("notifications server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (s *Server) requireUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := VerifyAccessToken(bearerToken(r.Header.Get("Authorization")), s.accessTokens)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r, userID)
	})
}

func (s *Server) requireInternal(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !internalTokenMatches(bearerToken(r.Header.Get("Authorization")), s.internalToken) {
			writeError(w, http.StatusUnauthorized, "internal token required")
			return
		}
		next(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
