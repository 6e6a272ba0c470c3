package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"insiderwatch/internal/service"
)

// PollerHandler exposes operator control over the polling loop.
type PollerHandler struct {
	Poller *service.Poller
}

func (h *PollerHandler) Register(r *gin.Engine) {
	group := r.Group("/api/poller")
	group.GET("/status", h.status)
	group.POST("/trigger", h.trigger)
	group.POST("/start", h.start)
	group.POST("/stop", h.stop)
	group.POST("/restart", h.restart)
}

func (h *PollerHandler) status(c *gin.Context) {
	if h.Poller == nil {
		Error(c, http.StatusInternalServerError, "poller unavailable", nil)
		return
	}
	Ok(c, h.Poller.Status(), nil)
}

func (h *PollerHandler) trigger(c *gin.Context) {
	if h.Poller == nil {
		Error(c, http.StatusInternalServerError, "poller unavailable", nil)
		return
	}
	if err := h.Poller.TriggerPoll(c.Request.Context()); err != nil {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	Ok(c, h.Poller.Status(), nil)
}

type startPollerRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

func (h *PollerHandler) start(c *gin.Context) {
	if h.Poller == nil {
		Error(c, http.StatusInternalServerError, "poller unavailable", nil)
		return
	}
	var req startPollerRequest
	_ = c.ShouldBindJSON(&req)
	var interval time.Duration
	if req.IntervalSeconds > 0 {
		interval = time.Duration(req.IntervalSeconds) * time.Second
	}
	// The polling loop must outlive this request's context.
	if err := h.Poller.Start(context.Background(), interval); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, h.Poller.Status(), nil)
}

func (h *PollerHandler) stop(c *gin.Context) {
	if h.Poller == nil {
		Error(c, http.StatusInternalServerError, "poller unavailable", nil)
		return
	}
	h.Poller.Stop()
	Ok(c, h.Poller.Status(), nil)
}

func (h *PollerHandler) restart(c *gin.Context) {
	if h.Poller == nil {
		Error(c, http.StatusInternalServerError, "poller unavailable", nil)
		return
	}
	if err := h.Poller.Restart(); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, h.Poller.Status(), nil)
}
