package routes

import (
	"github.com/gin-gonic/gin"

	"tablet-checkout/internal/alert"
	"tablet-checkout/internal/auth"
	"tablet-checkout/internal/checkout"
	"tablet-checkout/internal/config"
	"tablet-checkout/internal/directory"
	"tablet-checkout/internal/storage"
)

// API bundles the explicitly constructed collaborators the handlers need.
// Alerts may be nil (operator mail disabled).
type API struct {
	Store     storage.Provider
	Engine    *checkout.Engine
	Directory *directory.Directory
	Signer    *auth.Signer
	Alerts    *alert.Mailer
	Cfg       *config.Config
}

// Register attaches all API and page routes.
func Register(r *gin.Engine, api *API) {
	r.Use(ErrorHandler())

	apiGroup := r.Group("/api")
	{
		api.TabletRoutes(apiGroup)
		api.MemberRoutes(apiGroup)
		api.LogRoutes(apiGroup)
		api.AuthRoutes(apiGroup.Group("/auth"))
	}

	api.PageRoutes(r)
}
