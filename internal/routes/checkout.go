package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"tablet-checkout/internal/checkout"
	"tablet-checkout/internal/storage"
)

type checkoutRequest struct {
	TabletID string `json:"tabletId"`
	MemberID string `json:"memberId"`
	Action   string `json:"action"`
}

type tabletView struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	HasPen      bool                    `json:"hasPen"`
	IsAvailable bool                    `json:"isAvailable"`
	TakenBy     *storage.MemberIdentity `json:"takenBy"`
	TakenAt     any                     `json:"takenAt"`
}

// TabletRoutes wires the tablet listing and the checkout action endpoint.
func (api *API) TabletRoutes(r *gin.RouterGroup) {
	// Active tablets with computed availability and holder projection. The
	// dashboard re-polls this; a briefly stale snapshot is acceptable.
	r.GET("/tablets", func(c *gin.Context) {
		tablets, err := api.Store.ListTablets(c.Request.Context())
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrDatabaseError, err))
			return
		}

		views := make([]tabletView, 0, len(tablets))
		for _, t := range tablets {
			views = append(views, tabletView{
				ID:          t.ID,
				Name:        t.Name,
				HasPen:      t.HasPen,
				IsAvailable: t.Available(),
				TakenBy:     t.Holder,
				TakenAt:     t.TakenAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"tablets": views})
	})

	r.POST("/checkout", func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if req.TabletID == "" || req.Action == "" {
			AbortWithError(c, ErrMissingParameter)
			return
		}

		result, err := api.Engine.PerformAction(c.Request.Context(), req.TabletID, req.Action, req.MemberID)
		if err != nil && !errors.Is(err, checkout.ErrAuditAppend) {
			AbortWithError(c, err)
			return
		}

		response := gin.H{
			"success": true,
			"message": successMessage(result),
		}

		// The transition committed but the audit entry is missing. Report it
		// and alert operators, but do not fail the request.
		if err != nil {
			response["warning"] = "Activity log entry could not be written"
			if api.Alerts != nil {
				go api.Alerts.NotifyAuditFailure(result.TabletName, result.Action, err)
			}
		}

		c.JSON(http.StatusOK, response)
	})

	// Device registration: prove identity once per device with (memberId, pin).
	// Subsequent TAKE calls trust the cached member id.
	r.POST("/verify-pin", func(c *gin.Context) {
		var req struct {
			MemberID string `json:"memberId"`
			Pin      string `json:"pin"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if req.MemberID == "" || req.Pin == "" {
			AbortWithError(c, ErrMissingParameter)
			return
		}

		identity, err := api.Directory.VerifyIdentity(c.Request.Context(), req.MemberID, req.Pin)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "member": identity})
	})
}

func successMessage(result *checkout.Result) string {
	if result.Action == storage.ActionTake {
		return fmt.Sprintf("%s checked out successfully", result.TabletName)
	}
	return fmt.Sprintf("%s returned successfully", result.TabletName)
}
