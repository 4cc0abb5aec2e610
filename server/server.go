// Package server exposes the assistant over HTTP: a login endpoint, the
// chat endpoint that drives the agent pipeline, health and metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/einlabs/ein/ai/agent"
	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/internal/profile"
)

const (
	// maxConcurrentRuns bounds in-flight pipeline executions.
	maxConcurrentRuns = 4
	shutdownTimeout   = 10 * time.Second
)

// Runner is the pipeline surface the server drives. *agent.Pipeline
// satisfies it; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, input string, history []llm.Message) agent.Result
}

// Server is the HTTP gateway.
type Server struct {
	e        *echo.Echo
	profile  *profile.Profile
	runner   Runner
	auth     *Authenticator
	sessions *SessionStore
	limiter  *rate.Limiter
	runSem   *semaphore.Weighted
	reminder *ReminderScheduler
}

func NewServer(p *profile.Profile, runner Runner, metrics *agent.Metrics, reminder *ReminderScheduler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		e:        e,
		profile:  p,
		runner:   runner,
		auth:     NewAuthenticator(p),
		sessions: NewSessionStore(),
		limiter:  rate.NewLimiter(rate.Limit(5), 10),
		runSem:   semaphore.NewWeighted(maxConcurrentRuns),
		reminder: reminder,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	api := e.Group("/api/v1")
	api.POST("/auth/login", s.handleLogin)
	api.POST("/chat", s.handleChat, s.auth.Middleware(), s.rateLimit())

	return s
}

// Start runs the HTTP listener and the reminder scheduler.
func (s *Server) Start(ctx context.Context) error {
	if s.reminder != nil {
		go s.reminder.Run(ctx)
	}
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server listening", "addr", addr, "version", s.profile.Version)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	slog.Info("server shut down")
}

func (s *Server) rateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !s.limiter.Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"session_id"`
}

// handleChat runs one utterance through the pipeline. Pipeline-level
// errors are part of the response contract, not HTTP errors.
func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	ctx := c.Request().Context()
	if err := s.runSem.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server busy")
	}
	defer s.runSem.Release(1)

	history := s.sessions.History(req.SessionID)
	result := s.runner.Run(ctx, req.Message, history)
	s.sessions.Append(req.SessionID, req.Message, result.Response)

	return c.JSON(http.StatusOK, chatResponse{
		Response:  result.Response,
		Error:     result.Err,
		SessionID: req.SessionID,
	})
}
