// Admin authentication. A signed, time-limited token in an HTTP-only cookie
// gates all management operations. The window is fixed at issuance; a lapsed
// token forces re-login, there is no renewal.
package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ADMIN_COOKIE_NAME = "admin_token"

// Set the admin cookie. The cookie expires together with the token.
func (api *API) setAdminCookie(c *gin.Context, token string) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		ADMIN_COOKIE_NAME,
		token,
		int(api.Signer.TTL().Seconds()),
		"/",
		"",
		secure,
		true,
	)
}

func clearAdminCookie(c *gin.Context) {
	c.SetCookie(
		ADMIN_COOKIE_NAME,
		"",
		-1,
		"/",
		"",
		false,
		true,
	)
}

// RequireAdmin validates the admin cookie before any data access. API
// requests get 401, page requests are redirected to the login form.
func (api *API) RequireAdmin(redirectToLogin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(ADMIN_COOKIE_NAME)
		if err == nil {
			if _, err = api.Signer.VerifyAdminToken(token); err == nil {
				c.Next()
				return
			}
			slog.Warn("Rejected admin token", "error", err, "path", c.Request.URL.Path)
			clearAdminCookie(c)
		}

		if redirectToLogin {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		AbortWithError(c, ErrUnauthorized)
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// AuthRoutes wires admin login and logout.
func (api *API) AuthRoutes(r *gin.RouterGroup) {
	r.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if req.Password == "" {
			AbortWithError(c, ErrMissingParameter)
			return
		}

		if api.Cfg.AdminPassword == "" {
			AbortWithError(c, ErrLoginDisabled)
			return
		}

		// Exact match against the configured admin secret
		if req.Password != api.Cfg.AdminPassword {
			AbortWithError(c, ErrInvalidCredentials)
			return
		}

		token, err := api.Signer.GenerateAdminToken()
		if err != nil {
			slog.Error("Failed to sign admin token", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		api.setAdminCookie(c, token)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful"})
	})

	r.POST("/logout", func(c *gin.Context) {
		clearAdminCookie(c)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
	})
}
