package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc *Service }

// RegisterPublicRoutes はトークン不要のエンドポイント
func RegisterPublicRoutes(r gin.IRoutes, svc *Service) {
	h := &AuthHandler{svc: svc}
	r.POST("/auth/login", h.Login)
}

// RegisterAdminRoutes はユーザー管理系。RequireRole("admin") を前提とする
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &AuthHandler{svc: svc}
	r.POST("/auth/users", h.Register)
	r.GET("/auth/users", h.ListUsers)
	r.DELETE("/auth/users/:user_id", h.DeleteUser)
	r.PUT("/auth/users/:user_id/password", h.ChangePassword)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *User) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, u, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザー名またはパスワードが間違っています"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  toUserResponse(u),
	})
}

type RegisterRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     *string `json:"role,omitempty"` // 未指定なら librarian
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	role := RoleLibrarian
	if req.Role != nil && *req.Role != "" {
		role = *req.Role
	}

	u, err := h.svc.Register(c.Request.Context(), req.Username, req.Password, role)
	if err != nil {
		switch err {
		case ErrAlreadyExists:
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		case ErrInvalidArgument:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username, password or role"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(u))
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		switch err {
		case ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case ErrLastAdmin:
			c.JSON(http.StatusConflict, gin.H{"error": "cannot remove the last active admin"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		switch err {
		case ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case ErrWrongOldPassword:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "old password does not match"})
		case ErrInvalidArgument:
			c.JSON(http.StatusBadRequest, gin.H{"error": "new password too short"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
