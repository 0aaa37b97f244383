package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircserv/internal/core"
)

const readHeaderTimeout = 5 * time.Second

// StatsSource reports live registry counters.
type StatsSource interface {
	Stats(ctx context.Context) (core.Stats, error)
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the status HTTP server with /health and /stats.
func NewServer(addr string, stats StatsSource, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              addr,
		Handler:           NewRouter(stats, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// NewRouter registers the status routes.
func NewRouter(stats StatsSource, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", healthHandler)
	r.GET("/stats", statsHandler(stats, logger))
	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// statsHandler serves GET /stats.
func statsHandler(stats StatsSource, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := stats.Stats(c.Request.Context())
		if err != nil {
			status := stdhttp.StatusInternalServerError
			if errors.Is(err, core.ErrHubClosed) {
				status = stdhttp.StatusServiceUnavailable
			}
			logger.Warn().Err(err).Msg("stats unavailable")
			c.JSON(status, ErrorResponse{Error: "stats unavailable"})
			return
		}
		c.JSON(stdhttp.StatusOK, st)
	}
}
