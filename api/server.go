package api

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"portfolioapi.app/config"
	apperrors "portfolioapi.app/errors"
	"portfolioapi.app/metrics"
	"portfolioapi.app/models"
	"portfolioapi.app/service"
)

// DefaultRedirectTarget is where confirm/unsubscribe land when the caller
// does not supply ok/err targets
const DefaultRedirectTarget = "/blog"

// SourceInfoProvider exposes diagnostics about the quality source chain
type SourceInfoProvider interface {
	GetSourceInfo() map[string]interface{}
	GetCacheStats() (metrics.CacheStats, error)
}

// ServerOptions bundles the dependencies the server needs
type ServerOptions struct {
	Config              *config.Config
	SubscriptionService service.SubscriptionServiceInterface
	QualityService      service.QualityServiceInterface
	SourceInfo          SourceInfoProvider
}

// Server represents the HTTP server and API handler
type Server struct {
	router              *gin.Engine
	config              *config.Config
	subscriptionService service.SubscriptionServiceInterface
	qualityService      service.QualityServiceInterface
	sourceInfo          SourceInfoProvider
}

// NewServer creates and configures a new HTTP server
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.SubscriptionService == nil {
		return nil, fmt.Errorf("subscription service is required")
	}
	if opts.QualityService == nil {
		return nil, fmt.Errorf("quality service is required")
	}

	router := gin.Default()

	server := &Server{
		router:              router,
		config:              opts.Config,
		subscriptionService: opts.SubscriptionService,
		qualityService:      opts.QualityService,
		sourceInfo:          opts.SourceInfo,
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/subscribe", s.subscribe)
		api.GET("/confirm", s.confirm)
		api.GET("/unsubscribe", s.unsubscribe)
		api.GET("/quality", s.quality)
		api.GET("/health", s.health)
		api.GET("/debug", s.debugEndpoint)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) subscribe(c *gin.Context) {
	var req models.SubscribeRequest

	if err := c.ShouldBind(&req); err != nil {
		slog.Error("request binding error", "error", err)
		s.handleError(c, apperrors.NewValidationError("invalid request format"))
		return
	}

	clientKey := "subscribe:" + c.ClientIP()

	result, err := s.subscriptionService.Subscribe(c.Request.Context(), &req, clientKey)
	if err != nil {
		slog.Error("subscription error", "error", err)
		s.handleError(c, err)
		return
	}

	// Already-active and honeypot signups are reported identically to a
	// fresh one; only the unconfigured-notifier dev path is flagged.
	if result.NotificationSkipped {
		c.JSON(http.StatusOK, gin.H{"ok": true, "skipped": "notifier-unconfigured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) confirm(c *gin.Context) {
	email := c.Query("email")
	token := c.Query("token")
	okTarget := safeTarget(c.Query("ok"))
	errTarget := safeTarget(c.Query("err"))

	if err := s.subscriptionService.Confirm(c.Request.Context(), email, token); err != nil {
		slog.Debug("confirmation failed", "error", err)
		c.Redirect(http.StatusFound, errTarget)
		return
	}

	c.Redirect(http.StatusFound, okTarget)
}

func (s *Server) unsubscribe(c *gin.Context) {
	email := c.Query("email")
	token := c.Query("token")
	okTarget := safeTarget(c.Query("ok"))
	errTarget := safeTarget(c.Query("err"))

	if err := s.subscriptionService.Unsubscribe(c.Request.Context(), email, token); err != nil {
		slog.Debug("unsubscribe failed", "error", err)
		c.Redirect(http.StatusFound, errTarget)
		return
	}

	c.Redirect(http.StatusFound, okTarget)
}

// safeTarget only allows site-relative redirect targets; anything else
// falls back to the default so the confirm links cannot be abused as an
// open redirect.
func safeTarget(target string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	return DefaultRedirectTarget
}

func (s *Server) quality(c *gin.Context) {
	mode := c.Query("mode")

	if mode == service.ModeHistory {
		history, err := s.qualityService.GetHistory(c.Request.Context())
		if err != nil {
			slog.Error("quality history error", "error", err)
			s.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
		return
	}

	snapshot, err := s.qualityService.GetSnapshot(c.Request.Context(), mode)
	if err != nil {
		slog.Error("quality snapshot error", "error", err, "mode", mode)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) debugEndpoint(c *gin.Context) {
	response := gin.H{
		"smtp": gin.H{
			"configured":  s.config.Email.Configured(),
			"fromAddress": s.config.Email.FromAddress,
			"fromName":    s.config.Email.FromName,
		},
		"config": gin.H{
			"appBaseURL": s.config.AppBaseURL,
			"storeType":  s.config.Store.Type,
		},
	}

	if s.sourceInfo != nil {
		response["quality"] = s.sourceInfo.GetSourceInfo()
		if stats, err := s.sourceInfo.GetCacheStats(); err == nil {
			response["snapshotCache"] = stats
		}
	}

	c.JSON(http.StatusOK, response)
}

// handleError handles different types of application errors
func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	var statusCode int
	var message string

	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ValidationError:
			statusCode = http.StatusBadRequest
			message = appErr.Message
		case apperrors.NotFoundError:
			statusCode = http.StatusNotFound
			message = appErr.Message
		case apperrors.AlreadyExistsError:
			statusCode = http.StatusConflict
			message = appErr.Message
		case apperrors.TokenError:
			statusCode = http.StatusBadRequest
			message = appErr.Message
		case apperrors.RateLimitError:
			statusCode = http.StatusTooManyRequests
			message = appErr.Message
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(appErr)))
		case apperrors.StoreError:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		case apperrors.EmailError:
			statusCode = http.StatusServiceUnavailable
			message = "Unable to send email"
		case apperrors.ExternalAPIError, apperrors.SourceError:
			statusCode = http.StatusServiceUnavailable
			message = "External service unavailable"
		case apperrors.AllSourcesFailed:
			statusCode = http.StatusInternalServerError
			message = "Quality data unavailable"
		default:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		}
	} else {
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, models.ErrorResponse{Error: message})
}

// retryAfterSeconds rounds the wait up so a client sleeping the advertised
// time always lands in the next window.
func retryAfterSeconds(err *apperrors.AppError) int {
	seconds := int(math.Ceil(err.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
