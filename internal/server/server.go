package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postcraft/internal/app"
	"postcraft/internal/metrics"
	"postcraft/pkg/config"
)

const (
	defaultMaxBodyBytes = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second

	internalErrorMessage = "Internal server error"
)

// Generator produces content for a request. *app.Pipeline implements it.
type Generator interface {
	Generate(ctx context.Context, contentType app.ContentType, fields app.Fields) (*app.Result, error)
}

type Server struct {
	cfg          config.ServerConfig
	writeTimeout time.Duration
	generator    Generator
	metrics      *metrics.PrometheusCollector
	app          *echo.Echo
	address      string
}

// New constructs an HTTP server wired with routing and middleware. The write
// timeout leaves room for a full generation bounded by llmTimeout.
func New(cfg config.ServerConfig, llmTimeout time.Duration, gen Generator, collector *metrics.PrometheusCollector) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator must not be nil")
	}
	if collector == nil {
		return nil, errors.New("metrics collector must not be nil")
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(app.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			collector.RecordRequest(c.Request().Context(), c.Path(), v.Status, v.Latency)
			slog.Info("request",
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))

	srv := &Server{
		cfg:          cfg,
		writeTimeout: llmTimeout + readTimeout,
		generator:    gen,
		metrics:      collector,
		app:          e,
		address:      fmt.Sprintf(":%d", cfg.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Port)
	slog.Info("Starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("Server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	s.app.POST("/generate_post", s.handleGenerate(app.ContentSocial))
	s.app.POST("/generate_blog", s.handleGenerate(app.ContentBlog))
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(contentType app.ContentType) echo.HandlerFunc {
	return func(c echo.Context) error {
		fields, err := s.decodeFields(c)
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		result, err := s.generator.Generate(ctx, contentType, fields)
		if err != nil {
			return toHTTPError(ctx, contentType, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (s *Server) decodeFields(c echo.Context) (app.Fields, error) {
	req := c.Request()
	defer req.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, requestError{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
		}
		return nil, requestError{Status: http.StatusBadRequest, Message: "Unable to read request body"}
	}
	if len(body) == 0 {
		return nil, requestError{Status: http.StatusBadRequest, Message: "Request body is required"}
	}

	fields, err := app.ParseFields(body)
	if err != nil {
		return nil, requestError{Status: http.StatusBadRequest, Message: "Request body must be a JSON object"}
	}
	return fields, nil
}

type requestError struct {
	Status  int
	Message string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error string `json:"error"`
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = c.JSON(reqErr.Status, errorBody{Error: reqErr.Message})
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, errorBody{Error: http.StatusText(he.Code)})
		return
	}

	slog.Error("Unhandled error", "request_id", app.RequestID(c.Request().Context()), "error", err)
	_ = c.JSON(http.StatusInternalServerError, errorBody{Error: internalErrorMessage})
}

// toHTTPError keeps caller mistakes visible and hides everything else behind
// a generic message.
func toHTTPError(ctx context.Context, contentType app.ContentType, err error) error {
	if errors.Is(err, app.ErrValidation) {
		return requestError{Status: http.StatusBadRequest, Message: err.Error()}
	}

	slog.Error("Content generation failed",
		"request_id", app.RequestID(ctx),
		"type", contentType,
		"error", err,
	)
	return requestError{Status: http.StatusInternalServerError, Message: internalErrorMessage}
}

func printStartupBanner(port int) {
	host := "127.0.0.1"
	fmt.Println()
	fmt.Println("postcraft ready")
	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /metrics")
	fmt.Println("  POST /generate_post")
	fmt.Println("  POST /generate_blog")
	fmt.Printf("Example:\n  curl http://%s:%d/generate_post -H 'Content-Type: application/json' -d '{\"2.AI Transcript Rough\":\"...\",\"12.Topic Name\":\"...\"}'\n\n", host, port)
}
