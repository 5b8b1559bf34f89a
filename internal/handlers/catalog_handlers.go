package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/api"
)

// GetProducts returns the displayable catalog: the remote product list
// minus the reserved site-config record, which is surfaced separately.
// The catalog is always fetched live; there is no client-side product
// cache to go stale.
func (h *Handlers) GetProducts(c *gin.Context) {
	products, err := h.API.ListProducts(c.Request.Context())
	if err != nil {
		if api.IsNetworkError(err) {
			h.Syncer.SetOnline(false)
		}
		h.Log.Error("load products failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to load products. Please try again later."})
		return
	}
	h.Syncer.SetOnline(true)

	catalog, siteCfg := api.SplitSiteConfig(products, h.Log)
	resp := gin.H{"products": catalog}
	if siteCfg != nil {
		resp["siteConfig"] = siteCfg
	}
	c.JSON(http.StatusOK, resp)
}
