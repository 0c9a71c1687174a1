package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"datamanageapi/models"
	"datamanageapi/services/session"
	"datamanageapi/utils"
)

var sessionSrv = session.NewSessionService()

// SetSessionService initializes the session service instance.
// Used for dependency injection in tests to provide mock implementations.
func SetSessionService(s session.SessionService) {
	sessionSrv = s
}

// Login issues a bearer token for a known user
// @Summary Login
// @Tags Users
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Username"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} StandardErrorResponse "Unknown or inactive user"
// @Router /api/v1/auth/login [post]
func login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, err)
		return
	}
	user, err := sessionSrv.Login(c.Request.Context(), req.Username)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"access_token": token})
}

// GetCurrentUser returns the authenticated user
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} StandardErrorResponse "Not authenticated"
// @Router /api/v1/users/me [get]
func getCurrentUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"result": user})
}

// GetCurrentUserRoles returns the authenticated user's roles
// @Summary Current user roles
// @Tags Users
// @Produce json
// @Success 200 {array} models.Role
// @Failure 401 {object} StandardErrorResponse "Not authenticated"
// @Router /api/v1/users/me/roles [get]
func getCurrentUserRoles(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	roles := user.Roles
	if roles == nil {
		roles = []models.Role{}
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"result": roles})
}

// ListUsers returns every known user
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Router /api/v1/users/all [get]
func listUsers(c *gin.Context) {
	if currentUser(c) == nil {
		return
	}
	users, err := sessionSrv.AllUsers(c.Request.Context())
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"result": users, "count": len(users)})
}

// RegisterUserRoutes wires the session and user endpoints.
func RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", login)

	users := rg.Group("/users")
	users.Use(utils.JWTAuthMiddleware())
	{
		users.GET("/all", listUsers)
		users.GET("/me", getCurrentUser)
		users.GET("/me/roles", getCurrentUserRoles)
	}
}
