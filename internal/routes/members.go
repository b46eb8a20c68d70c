package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"tablet-checkout/internal/directory"
)

type createMemberRequest struct {
	Name  string `json:"name"`
	EmpID string `json:"empId"`
	Pin   string `json:"pin"`
}

type updateMemberRequest struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	EmpID    *string `json:"empId"`
	Pin      *string `json:"pin"`
	IsActive *bool   `json:"isActive"`
}

// MemberRoutes wires the member endpoints. The active-member listing is
// public (the kiosk dropdown uses it); everything else is admin-gated.
func (api *API) MemberRoutes(r *gin.RouterGroup) {
	r.GET("/members/active", func(c *gin.Context) {
		members, err := api.Directory.ListActiveMembers(c.Request.Context())
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrDatabaseError, err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": members})
	})

	admin := r.Group("/members", api.RequireAdmin(false))

	admin.GET("", func(c *gin.Context) {
		members, err := api.Directory.ListMembers(c.Request.Context())
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrDatabaseError, err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": members})
	})

	admin.POST("", func(c *gin.Context) {
		var req createMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		member, err := api.Directory.CreateMember(c.Request.Context(), req.Name, req.EmpID, req.Pin)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"member": member, "message": "Member created successfully"})
	})

	admin.PUT("", func(c *gin.Context) {
		var req updateMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if req.ID == "" {
			AbortWithError(c, ErrMissingParameter)
			return
		}

		member, err := api.Directory.UpdateMember(c.Request.Context(), req.ID, directory.MemberUpdate{
			Name:     req.Name,
			EmpID:    req.EmpID,
			Pin:      req.Pin,
			IsActive: req.IsActive,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"member": member, "message": "Member updated successfully"})
	})

	admin.DELETE("", func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			AbortWithError(c, ErrMissingParameter)
			return
		}

		if err := api.Directory.DeleteMember(c.Request.Context(), id); err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Member deleted successfully"})
	})
}
