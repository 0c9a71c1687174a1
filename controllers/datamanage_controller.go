package controllers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"datamanageapi/models"
	"datamanageapi/pkg/logger"
	"datamanageapi/services"
	"datamanageapi/services/importer"
	"datamanageapi/services/job"
	"datamanageapi/utils"
)

var datamanageSrv = services.NewDatamanageService()
var exportSrv = services.NewExportService()
var importSrv = importer.NewImportService()

// SetDatamanageService initializes the dataset command service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetDatamanageService(s services.DatamanageService) {
	datamanageSrv = s
}

// SetExportService initializes the dataset export service instance.
func SetExportService(s services.ExportService) {
	exportSrv = s
}

// SetImportService initializes the dataset import service instance.
func SetImportService(s importer.ImportService) {
	importSrv = s
}

// currentUser resolves the authenticated user for ownership checks. Returns
// nil after writing the error response when resolution fails.
func currentUser(c *gin.Context) *models.User {
	userID, ok := utils.UserIDFromContext(c)
	if !ok {
		ErrorResponse(c, services.ErrUnauthorized)
		return nil
	}
	user, err := sessionSrv.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		ErrorResponse(c, err)
		return nil
	}
	return user
}

// GetDatamanage returns a single dataset
// @Summary Get dataset
// @Description Returns a dataset with its columns, metrics, tables and owners
// @Tags Datamanage
// @Produce json
// @Param id path int true "Dataset ID"
// @Success 200 {object} models.Datamanage
// @Failure 404 {object} StandardErrorResponse "Dataset not found"
// @Router /api/v1/datamanages/{id} [get]
func getDatamanage(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		BadRequestResponse(c, err)
		return
	}
	dm, err := datamanageSrv.Get(c.Request.Context(), id)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"result": dm})
}

// ListDatamanages returns a page of datasets
// @Summary List datasets
// @Tags Datamanage
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} DatamanageListResponse
// @Router /api/v1/datamanages [get]
func listDatamanages(c *gin.Context) {
	page := utils.ParseIntDefault(c.Query("page"), 1)
	pageSize := utils.ParseIntDefault(c.Query("page_size"), 20)
	dms, total, err := datamanageSrv.List(c.Request.Context(), page, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"result": dms,
		"count":  total,
	})
}

// CreateDatamanage registers a new dataset
// @Summary Create dataset
// @Tags Datamanage
// @Accept json
// @Produce json
// @Param dataset body models.DatamanageCreateRequest true "Dataset definition"
// @Success 201 {object} models.Datamanage
// @Failure 422 {object} ValidationErrorResponse "Validation failed"
// @Router /api/v1/datamanages [post]
func createDatamanage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req models.DatamanageCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, err)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		BadRequestResponse(c, err)
		return
	}

	logger.Debugf("Creating datamanage %q in database %d", req.Name, req.DatabaseID)
	dm, err := datamanageSrv.Create(c.Request.Context(), user, req)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusCreated, gin.H{"id": dm.ID, "result": dm})
}

// UpdateDatamanage mutates an existing dataset
// @Summary Update dataset
// @Description Updates dataset fields; column and metric lists replace the stored ones
// @Tags Datamanage
// @Accept json
// @Produce json
// @Param id path int true "Dataset ID"
// @Param override_columns query bool false "Skip column-name collision checks"
// @Param dataset body models.DatamanageUpdateRequest true "Fields to update"
// @Success 200 {object} models.Datamanage
// @Failure 403 {object} StandardErrorResponse "Not an owner"
// @Failure 404 {object} StandardErrorResponse "Dataset not found"
// @Failure 422 {object} ValidationErrorResponse "Validation failed"
// @Router /api/v1/datamanages/{id} [put]
func updateDatamanage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		BadRequestResponse(c, err)
		return
	}
	overrideColumns, _ := strconv.ParseBool(c.DefaultQuery("override_columns", "false"))

	var req models.DatamanageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, err)
		return
	}

	dm, err := datamanageSrv.Update(c.Request.Context(), user, id, req, overrideColumns)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	logger.Infof("Updated datamanage %d", dm.ID)
	utils.JSONResponse(c, http.StatusOK, gin.H{"result": dm})
}

// DeleteDatamanage removes a dataset
// @Summary Delete dataset
// @Tags Datamanage
// @Produce json
// @Param id path int true "Dataset ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} StandardErrorResponse "Not an owner"
// @Failure 404 {object} StandardErrorResponse "Dataset not found"
// @Router /api/v1/datamanages/{id} [delete]
func deleteDatamanage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		BadRequestResponse(c, err)
		return
	}
	if err := datamanageSrv.Delete(c.Request.Context(), user, id); err != nil {
		ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "Datamanage was deleted successfully"})
}

// ExportDatamanages streams a YAML export bundle
// @Summary Export datasets
// @Description Builds a tar.gz bundle of YAML files for the given dataset ids
// @Tags Datamanage
// @Produce application/gzip
// @Param ids query string true "Comma-separated dataset ids"
// @Param related query bool false "Include owning databases"
// @Success 200 {file} file
// @Failure 404 {object} StandardErrorResponse "Dataset not found"
// @Router /api/v1/datamanages/export [get]
func exportDatamanages(c *gin.Context) {
	if currentUser(c) == nil {
		return
	}
	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		BadRequestResponse(c, err)
		return
	}
	related, _ := strconv.ParseBool(c.DefaultQuery("related", "true"))

	archivePath, err := exportSrv.Export(c.Request.Context(), ids, related)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	defer os.Remove(archivePath)
	c.FileAttachment(archivePath, filepath.Base(archivePath))
}

// ImportDatamanage restores a dataset from an exported YAML payload
// @Summary Import dataset
// @Description Upserts a dataset by UUID; set overwrite to synchronize an existing one
// @Tags Datamanage
// @Accept application/x-yaml
// @Produce json
// @Param overwrite query bool false "Overwrite an existing dataset"
// @Param force_data query bool false "Reload CSV data even when the table exists"
// @Param async query bool false "Run as a background job when the payload carries data"
// @Success 200 {object} models.Datamanage
// @Success 202 {object} ImportJobResponse "Background import started"
// @Failure 422 {object} ValidationErrorResponse "Validation failed"
// @Router /api/v1/datamanages/import [post]
func importDatamanage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequestResponse(c, err)
		return
	}
	var payload models.DatamanagePayload
	if err := yaml.Unmarshal(body, &payload); err != nil {
		BadRequestResponse(c, err)
		return
	}
	if err := utils.ValidateStruct(&payload); err != nil {
		BadRequestResponse(c, err)
		return
	}

	overwrite, _ := strconv.ParseBool(c.DefaultQuery("overwrite", "false"))
	forceData, _ := strconv.ParseBool(c.DefaultQuery("force_data", "false"))
	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))

	// Data loading can take a while, so it may run as a tracked job. The
	// request context is canceled as soon as the 202 is written, so the job
	// keeps the request's values but detaches from its cancellation.
	if async && payload.Data != "" {
		monitor := job.GetImportJobMonitor()
		jobID := monitor.StartJob(payload.UUID, user.ID)
		jobCtx := context.WithoutCancel(c.Request.Context())
		go func(user models.User) {
			dm, err := importSrv.Import(jobCtx, &user, payload, overwrite, forceData)
			if err != nil {
				logger.Errorf("Background import of %s failed: %v", payload.UUID, err)
				monitor.FailJob(jobID, err)
				return
			}
			monitor.CompleteJob(jobID, dm.ID)
		}(*user)
		utils.JSONResponse(c, http.StatusAccepted, gin.H{"job_id": jobID})
		return
	}

	dm, err := importSrv.Import(c.Request.Context(), user, payload, overwrite, forceData)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"id": dm.ID, "result": dm})
}

func parseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := utils.ParseUintParam(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RegisterDatamanageRoutes wires the dataset endpoints.
func RegisterDatamanageRoutes(rg *gin.RouterGroup) {
	datamanages := rg.Group("/datamanages")
	datamanages.Use(utils.JWTAuthMiddleware())
	{
		datamanages.GET("", listDatamanages)
		datamanages.GET("/export", exportDatamanages)
		datamanages.POST("/import", importDatamanage)
		datamanages.GET("/:id", getDatamanage)
		datamanages.POST("", createDatamanage)
		datamanages.PUT("/:id", updateDatamanage)
		datamanages.DELETE("/:id", deleteDatamanage)
	}
}
