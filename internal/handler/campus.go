package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DeH-M/MachTrueke/internal/service"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type CampusHandler struct {
	campusService service.CampusService
	log           logger.Logger
}

func NewCampusHandler(campusService service.CampusService, log logger.Logger) *CampusHandler {
	return &CampusHandler{
		campusService: campusService,
		log:           log,
	}
}

func (h *CampusHandler) List(c *gin.Context) {
	campuses, err := h.campusService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, campuses)
}
