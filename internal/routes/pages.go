package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"tablet-checkout/internal/checkout"
	"tablet-checkout/internal/config"
	"tablet-checkout/internal/storage"
	"tablet-checkout/internal/utils"
)

// PageRoutes wires the HTML pages and the per-tablet QR images.
func (api *API) PageRoutes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "dashboard.html.tmpl", gin.H{
			"PollInterval": api.Cfg.PollInterval,
		})
	})

	// Kiosk page a device lands on after scanning a tablet's QR code.
	r.GET("/t/:id", func(c *gin.Context) {
		tablet, err := api.Store.GetTablet(c.Request.Context(), c.Param("id"))
		if errors.Is(err, storage.ErrNotFound) {
			AbortWithError(c, checkout.ErrTabletNotFound)
			return
		} else if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrDatabaseError, err))
			return
		}
		if !tablet.IsActive {
			AbortWithError(c, checkout.ErrTabletNotFound)
			return
		}

		c.HTML(http.StatusOK, "tablet.html.tmpl", gin.H{
			"Tablet":       tablet,
			"PollInterval": api.Cfg.PollInterval,
		})
	})

	// QR image encoding the kiosk page URL. Stable per tablet, so printouts
	// never go stale.
	r.GET("/t/:id/qr.png", func(c *gin.Context) {
		id := c.Param("id")
		if _, err := api.Store.GetTablet(c.Request.Context(), id); err != nil {
			AbortWithError(c, checkout.ErrTabletNotFound)
			return
		}

		url := utils.GetBaseURL(c, api.Cfg.BaseURL) + "/t/" + id
		qr, err := qrcode.Encode(url, qrcode.Medium, config.QR_IMAGE_SIZE)
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: failed to generate QR code: %v", ErrInternalServer, err))
			return
		}

		c.Header("Cache-Control", "max-age=86400")
		c.Data(http.StatusOK, "image/png", qr)
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin_login.html.tmpl", gin.H{})
	})

	admin := r.Group("/admin", api.RequireAdmin(true))
	admin.GET("", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin.html.tmpl", gin.H{"PollInterval": api.Cfg.PollInterval})
	})
	admin.GET("/members", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin_members.html.tmpl", gin.H{})
	})
	admin.GET("/logs", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin_logs.html.tmpl", gin.H{})
	})

	// Print sheet with one QR per active tablet
	admin.GET("/qrcodes", func(c *gin.Context) {
		tablets, err := api.Store.ListTablets(c.Request.Context())
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrDatabaseError, err))
			return
		}
		c.HTML(http.StatusOK, "admin_qrcodes.html.tmpl", gin.H{"Tablets": tablets})
	})
}
