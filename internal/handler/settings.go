package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insiderwatch/internal/service"
)

type SettingsHandler struct {
	Settings *service.FilterSettingsService
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/settings")
	group.GET("/filters", h.getFilters)
	group.PUT("/filters", h.putFilters)
}

func (h *SettingsHandler) getFilters(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings service unavailable", nil)
		return
	}
	settings, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, settings, nil)
}

func (h *SettingsHandler) putFilters(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings service unavailable", nil)
		return
	}
	var req service.FilterSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Settings.Update(c.Request.Context(), req); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	next, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, next, nil)
}
