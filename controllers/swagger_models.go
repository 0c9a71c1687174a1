package controllers

import "datamanageapi/models"

// Example request/response models for Swagger documentation

// LoginRequest represents the request body for issuing a bearer token
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
}

// LoginResponse represents the response for a successful login
type LoginResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// StandardErrorResponse represents a generic error response
type StandardErrorResponse struct {
	Error string `json:"error" example:"datamanage not found"`
}

// ValidationErrorResponse represents a collected-issues validation failure
type ValidationErrorResponse struct {
	Error  string   `json:"error" example:"validation failed"`
	Issues []string `json:"issues" example:"Datamanage name already exists,One or more columns already exist"`
}

// MessageResponse represents a confirmation message
type MessageResponse struct {
	Message string `json:"message" example:"Datamanage was deleted successfully"`
}

// DatamanageListResponse represents the response for listing datasets
type DatamanageListResponse struct {
	Result []models.Datamanage `json:"result"`
	Count  int64               `json:"count" example:"42"`
}

// ImportJobResponse represents the response for a background import job
type ImportJobResponse struct {
	Result ImportJobItem `json:"result"`
}

// ImportJobItem represents a single tracked import job
type ImportJobItem struct {
	JobID          string `json:"job_id" example:"import_1724745600000000001"`
	DatamanageUUID string `json:"datamanage_uuid" example:"3a1b9f1e-4b2b-4f4c-9c1e-7d2d9a6f1c2b"`
	Status         string `json:"status" example:"running"`
	Message        string `json:"message" example:"Import in progress"`
}

// ImportJobListResponse represents the paginated import job listing
type ImportJobListResponse struct {
	Result     []ImportJobItem `json:"result"`
	Pagination PaginationMeta  `json:"pagination"`
}

// PaginationMeta contains pagination information
type PaginationMeta struct {
	Total      int `json:"total" example:"17"`
	Page       int `json:"page" example:"1"`
	PageSize   int `json:"page_size" example:"10"`
	TotalPages int `json:"total_pages" example:"2"`
}
