package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"insiderwatch/internal/repository"
)

type OpportunityHandler struct {
	Repo repository.Repository
}

func (h *OpportunityHandler) Register(r *gin.Engine) {
	group := r.Group("/api/opportunities")
	group.GET("", h.list)
}

func (h *OpportunityHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	var ticker *string
	if v := strings.ToUpper(strings.TrimSpace(c.Query("ticker"))); v != "" {
		ticker = &v
	}
	cadence := strQueryPtr(c, "cadence")
	batchID := strQueryPtr(c, "batch_id")

	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"created_at":      "created_at",
		"trade_date":      "trade_date",
		"ticker":          "ticker",
		"price_per_share": "price_per_share",
	})
	if orderBy == "" {
		orderBy = "created_at"
	}
	asc := strings.EqualFold(strings.TrimSpace(c.Query("order")), "asc")

	params := repository.ListOpportunitiesParams{
		Limit:   limit,
		Offset:  offset,
		Ticker:  ticker,
		Cadence: cadence,
		BatchID: batchID,
		OrderBy: orderBy,
		Asc:     boolPtr(asc),
	}
	items, err := h.Repo.ListOpportunities(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountOpportunities(c.Request.Context(), repository.ListOpportunitiesParams{
		Ticker:  ticker,
		Cadence: cadence,
		BatchID: batchID,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}
