package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DeH-M/MachTrueke/internal/middleware"
	"github.com/DeH-M/MachTrueke/internal/service"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type UserHandler struct {
	userService   service.UserService
	uploadService service.UploadService
	log           logger.Logger
}

func NewUserHandler(userService service.UserService, uploadService service.UploadService, log logger.Logger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		uploadService: uploadService,
		log:           log,
	}
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	CampusID *int64  `json:"campus_id"`
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		Username: req.Username,
		Bio:      req.Bio,
		CampusID: req.CampusID,
	})
	if err != nil {
		status := appErrors.HTTPStatusFromError(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		status := http.StatusBadRequest
		if err == appErrors.ErrInvalidCredentials {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	// The user's previous avatar file is removed after the swap.
	current, err := h.userService.GetMe(c.Request.Context(), userID)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}
	oldURL := current.AvatarURL

	url, err := h.uploadService.SaveImage(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, "avatars")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateAvatar(c.Request.Context(), userID, &url)
	if err != nil {
		h.uploadService.DeleteLocal(&url)
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	h.uploadService.DeleteLocal(oldURL)

	c.JSON(http.StatusOK, user)
}
