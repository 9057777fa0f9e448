package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP API around a Service.
//
// Routes:
//
//	GET  /health                  liveness probe
//	POST /api/v1/jobs             start a crawl job
//	GET  /api/v1/jobs             list jobs, newest first
//	GET  /api/v1/jobs/:id         one job's status
//	POST /api/v1/jobs/:id/stop    abort a running job
//	GET  /api/v1/data             query stored records
//	GET  /api/v1/stats            storage statistics
//	GET  /api/v1/export/:format   download records as json or csv
func NewRouter(s *Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s))

	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", StartJob(s))
			jobs.GET("", ListJobs(s))
			jobs.GET("/:id", GetJob(s))
			jobs.POST("/:id/stop", StopJob(s))
		}

		v1.GET("/data", GetData(s))
		v1.GET("/stats", GetStats(s))
		v1.GET("/export/:format", ExportData(s))
	}

	return router
}

// requestLogger logs each request through the service's slog logger
// instead of gin's own writer, so API logs share the crawl log format
// and its sanitization.
func requestLogger(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
