package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dutycalc/internal/service"
)

// CommodityHandler handles commodity code endpoints.
type CommodityHandler struct {
	commoditySvc service.CommodityService
}

// NewCommodityHandler creates a new CommodityHandler.
func NewCommodityHandler(commoditySvc service.CommodityService) *CommodityHandler {
	return &CommodityHandler{commoditySvc: commoditySvc}
}

// Lookup handles GET /api/v1/commodities/:code
// @Summary Look up a commodity code
// @Description Returns the most specific code on file and its ancestors, chapter first
// @Tags commodities
// @Produce json
// @Param code path string true "Commodity code, separators allowed"
// @Success 200 {object} APIResponse{data=service.CommodityDetail}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /commodities/{code} [get]
func (h *CommodityHandler) Lookup(c *gin.Context) {
	detail, err := h.commoditySvc.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, detail)
}

// Search handles GET /api/v1/commodities
// @Summary Search commodity codes
// @Description Matches code prefixes and description text
// @Tags commodities
// @Produce json
// @Param q query string true "Search text, at least 2 characters"
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /commodities [get]
func (h *CommodityHandler) Search(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	codes, err := h.commoditySvc.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, codes, PagMeta{Total: len(codes), Offset: 0, Limit: limit})
}
