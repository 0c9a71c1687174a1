package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"datamanageapi/pkg/logger"
	"datamanageapi/services/job"
	"datamanageapi/utils"
)

// GetImportJob retrieves status of a background import
// @Summary Get import job status
// @Tags Jobs
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} ImportJobResponse
// @Failure 404 {object} StandardErrorResponse "Job not found"
// @Router /api/v1/jobs/{job_id} [get]
func getImportJob(c *gin.Context) {
	jobID := c.Param("job_id")
	j, exists := job.GetImportJobMonitor().GetJob(jobID)
	if !exists {
		logger.Warnf("Import job not found: %s", jobID)
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"result": j})
}

// ListImportJobs retrieves all tracked import jobs, newest first
// @Summary List import jobs
// @Tags Jobs
// @Produce json
// @Param page query int false "Page number (1-indexed)"
// @Param page_size query int false "Items per page (default 10)"
// @Success 200 {object} ImportJobListResponse
// @Router /api/v1/jobs [get]
func listImportJobs(c *gin.Context) {
	page := utils.ParseIntDefault(c.Query("page"), 1)
	pageSize := utils.ParseIntDefault(c.Query("page_size"), 10)

	result := job.GetImportJobMonitor().GetAllJobsPaginated(page, pageSize)
	logger.Debugf("Retrieved %d import jobs (page %d of %d, total=%d)",
		len(result.Jobs), result.Page, result.TotalPages, result.Total)

	utils.JSONResponse(c, http.StatusOK, gin.H{
		"result": result.Jobs,
		"pagination": gin.H{
			"total":       result.Total,
			"page":        result.Page,
			"page_size":   result.PageSize,
			"total_pages": result.TotalPages,
		},
	})
}

// RegisterJobRoutes wires the import job status endpoints.
func RegisterJobRoutes(rg *gin.RouterGroup) {
	jobs := rg.Group("/jobs")
	jobs.Use(utils.JWTAuthMiddleware())
	{
		jobs.GET("", listImportJobs)
		jobs.GET("/:job_id", getImportJob)
	}
}
