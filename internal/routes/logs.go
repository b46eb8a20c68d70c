package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tablet-checkout/internal/storage"
)

// LogRoutes wires the admin-gated activity log listing.
func (api *API) LogRoutes(r *gin.RouterGroup) {
	r.GET("/logs", api.RequireAdmin(false), func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

		filter := storage.ActivityFilter{
			TabletID: c.Query("tabletId"),
			MemberID: c.Query("memberId"),
			Limit:    limit,
		}

		logs, err := api.Store.ListActivity(c.Request.Context(), filter)
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrDatabaseError, err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	})
}
