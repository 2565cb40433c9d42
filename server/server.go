package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/keypoints/ai/core/llm"
	"github.com/hrygo/keypoints/ai/metrics"
	"github.com/hrygo/keypoints/ai/observability/logging"
	"github.com/hrygo/keypoints/ai/summary"
	"github.com/hrygo/keypoints/internal/profile"
	"github.com/hrygo/keypoints/plugin/extract"
	"github.com/hrygo/keypoints/plugin/media"
	apiv1 "github.com/hrygo/keypoints/server/router/api/v1"
)

// Deps overrides collaborators that are otherwise built from the profile.
type Deps struct {
	LLM     llm.Service
	OCR     media.Recognizer
	Metrics *metrics.Exporter
}

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	metrics    *metrics.Exporter
}

func NewServer(ctx context.Context, profile *profile.Profile, deps Deps) (*Server, error) {
	llmService := deps.LLM
	if llmService == nil {
		var err error
		llmService, err = llm.NewService(&llm.Config{
			Provider: profile.LLMProvider,
			Model:    profile.LLMModel,
			APIKey:   profile.LLMAPIKey,
			BaseURL:  profile.LLMBaseURL,
			Referer:  profile.LLMReferer,
			Title:    profile.LLMTitle,
			Timeout:  profile.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create completion client: %w", err)
		}
		slog.InfoContext(ctx, "completion client initialized",
			"provider", profile.LLMProvider,
			"model", profile.LLMModel,
		)
	}

	ocr := deps.OCR
	if ocr == nil {
		ocr = media.NewTesseract(&media.OCRConfig{
			Bin:       profile.OCRBin,
			Languages: profile.OCRLanguages,
		})
	}

	exporter := deps.Metrics
	if exporter == nil {
		cfg := metrics.DefaultConfig()
		cfg.RuntimeCollectors = true
		exporter = metrics.NewExporter(cfg)
	}

	s := &Server{
		Profile: profile,
		metrics: exporter,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = s.httpErrorHandler
	s.echoServer = echoServer

	echoServer.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, requestID string) {
			req := c.Request()
			logger := slog.Default().With("request_id", requestID)
			c.SetRequest(req.WithContext(logging.ToContext(req.Context(), logger)))
		},
	}))
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logging.FromContext(c.Request().Context()).LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{profile.CORSOrigin},
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowCredentials: true,
	}))
	echoServer.Use(middleware.BodyLimit(strconv.FormatInt(profile.MaxUploadMB, 10) + "M"))

	// Health check endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": profile.Version,
		})
	})
	echoServer.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	apiV1Service := apiv1.NewAPIV1Service(
		profile,
		extract.New(ocr),
		summary.NewSummarizer(llmService, exporter),
		exporter,
	)
	apiV1Service.RegisterRoutes(echoServer)

	return s, nil
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Address returns the listen address derived from the profile.
func (s *Server) Address() string {
	return net.JoinHostPort(s.Profile.Addr, strconv.Itoa(s.Profile.Port))
}

// Start serves until Shutdown is called. A graceful stop returns nil.
func (s *Server) Start(_ context.Context) error {
	slog.Info("server listening", "address", s.Address(), "mode", s.Profile.Mode, "version", s.Profile.Version)
	if err := s.echoServer.Start(s.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped properly")
}

// httpErrorHandler renders every error as {"detail": ...}.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if text := http.StatusText(status); text != "" {
			detail = text
		}
		if he.Message != nil {
			if msg := fmt.Sprint(he.Message); msg != "" {
				detail = msg
			}
		}
	} else if s.Profile.IsDev() && err.Error() != "" {
		detail = err.Error()
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(status)
	} else {
		respErr = c.JSON(status, map[string]string{"detail": detail})
	}
	if respErr != nil {
		logging.FromContext(c.Request().Context()).Error("failed to write error response", "error", respErr)
	}
}
