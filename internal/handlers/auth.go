package handlers

import (
	"errors"
	"net/http"
	"strings"

	"swiftmeet-server/internal/middleware"
	"swiftmeet-server/internal/models"
	"swiftmeet-server/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and session management.
type AuthHandler struct {
	DB *gorm.DB
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Place    string `json:"place"`
	Role     string `json:"role"`
}

// Register handles user registration and logs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	place := strings.TrimSpace(req.Place)

	if name == "" || email == "" || req.Password == "" || phone == "" || place == "" {
		utils.BadRequest(c, "All fields are required.")
		return
	}

	// Check if user already exists
	var existingUser models.User
	if err := h.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "Email already registered.")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	// Only the two known roles are honored; anything else registers a plain user.
	role := models.RoleUser
	if models.Role(req.Role) == models.RoleAdmin {
		role = models.RoleAdmin
	}

	user := models.User{
		Name:  name,
		Email: email,
		Phone: phone,
		Place: place,
		Role:  role,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create user: "+err.Error())
		return
	}

	if !startSession(c, &user) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login. Unknown emails and wrong passwords produce the
// same response so accounts cannot be enumerated here.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BadRequest(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.BadRequest(c, "Invalid email or password")
		return
	}

	if !startSession(c, &user) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
}

// Logout ends the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		utils.InternalServerError(c, "Failed to clear session: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the current identity, or null for anonymous callers.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.SessionUser(c, h.DB)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
}

// startSession stores the user id in the cookie session. Reports a 500 and
// returns false if the session cannot be persisted.
func startSession(c *gin.Context, user *models.User) bool {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		utils.InternalServerError(c, "Failed to save session: "+err.Error())
		return false
	}
	return true
}
