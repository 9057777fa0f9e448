package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/webharvest/webharvest/internal/report"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StartJob launches a crawl job from a JSON request body.
func StartJob(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req JobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id, err := s.StartJob(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"job_id": id})
	}
}

// ListJobs returns all jobs, newest first.
func ListJobs(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.jobs.List())
	}
}

// GetJob returns one job's latest status snapshot.
func GetJob(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := s.jobs.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// StopJob aborts a running crawl job. Stopping a job that already
// finished returns its final status unchanged.
func StopJob(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := s.StopJob(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// GetData queries stored records by URL substring.
// Query parameters: url (substring filter), limit (max results).
func GetData(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}

		records, err := s.store.FetchByURL(c.Request.Context(), c.Query("url"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
	}
}

// GetStats returns summary statistics over the stored records.
func GetStats(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// exportLimit caps how many records one export call returns.
const exportLimit = 100000

// ExportData streams all stored records in the requested format.
// Supported formats: json, csv.
func ExportData(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.Param("format")
		if format != "json" && format != "csv" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
			return
		}

		records, err := s.store.FetchByURL(c.Request.Context(), "", exportLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		switch format {
		case "json":
			c.Header("Content-Type", "application/json")
			c.Header("Content-Disposition", `attachment; filename="webharvest-export.json"`)
			if err := report.ExportJSON(c.Writer, records); err != nil {
				s.logger.Error("JSON export failed", "error", err)
			}
		case "csv":
			c.Header("Content-Type", "text/csv")
			c.Header("Content-Disposition", `attachment; filename="webharvest-export.csv"`)
			if err := report.ExportCSV(c.Writer, records); err != nil {
				s.logger.Error("CSV export failed", "error", err)
			}
		}
	}
}
