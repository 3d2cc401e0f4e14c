// Catalog HTTP handlers. Both read the same cached snapshot the sommelier
// answers from, so the widget shows exactly what the engine can recommend.
//
//   - GET /products  (in-stock products, optional ?category=)
//   - GET /flows     (active conversation flows)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// ListProductsResponse lists the in-stock catalog.
type ListProductsResponse struct {
	Products []sommelier.Product `json:"products"`
}

// FlowSummary describes one active flow without its step graph.
type FlowSummary struct {
	ID          string `json:"id"                     example:"gift"`
	Name        string `json:"name"                   example:"Hediye rehberi"`
	Trigger     string `json:"trigger"                example:"hediye, gift"`
	PersonaType string `json:"persona_type,omitempty" example:"gifter"`
	Steps       int    `json:"steps"                  example:"4"`
}

// ListFlowsResponse lists the active flows.
type ListFlowsResponse struct {
	Flows []FlowSummary `json:"flows"`
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List in-stock products
// @Tags        Catalog
// @Produce     json
// @Param       category  query  string  false  "Case-insensitive category filter"
// @Success     200  {object}  handlers.ListProductsResponse
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	snap := h.sommSvc.Snapshot(c.Request.Context())
	cat := strings.TrimSpace(c.Query("category"))

	out := make([]sommelier.Product, 0, len(snap.Products))
	for _, p := range snap.InStock() {
		if cat != "" && !strings.EqualFold(p.Category, cat) {
			continue
		}
		out = append(out, p)
	}
	ok(c, http.StatusOK, ListProductsResponse{Products: out})
}

// ListFlows godoc
// @ID          listFlows
// @Summary     List active conversation flows
// @Tags        Catalog
// @Produce     json
// @Success     200  {object}  handlers.ListFlowsResponse
// @Router      /flows [get]
func (h *Handlers) ListFlows(c *gin.Context) {
	snap := h.sommSvc.Snapshot(c.Request.Context())
	flows := snap.ActiveFlows()

	out := make([]FlowSummary, 0, len(flows))
	for _, f := range flows {
		out = append(out, FlowSummary{
			ID:          f.ID,
			Name:        f.Name,
			Trigger:     f.Trigger,
			PersonaType: f.PersonaType,
			Steps:       len(f.Steps),
		})
	}
	ok(c, http.StatusOK, ListFlowsResponse{Flows: out})
}
