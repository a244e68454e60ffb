package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/axellelanca/linkquota/internal/config"
	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/axellelanca/linkquota/internal/models"
	"github.com/axellelanca/linkquota/internal/services"
)

// qrCodeSize is the side of the generated QR PNG, in pixels.
const qrCodeSize = 256

// SetupRoutes configures all Gin API routes and injects the services they need.
func SetupRoutes(router *gin.Engine, linkService *services.LinkService, userService *services.UserService, cfg *config.Config) {
	// Health Check Route - used for monitoring service availability
	router.GET("/health", HealthCheckHandler)

	api := router.Group("/api/v1")
	{
		api.POST("/users", RegisterUserHandler(userService))
		api.GET("/users/:userID", GetUserHandler(userService))
		api.PUT("/users/:userID/settings", UpdateSettingsHandler(userService))

		api.POST("/users/:userID/links", CreateShortLinkHandler(linkService, cfg))
		api.GET("/users/:userID/links", ListUserLinksHandler(linkService, userService, cfg))
		api.DELETE("/users/:userID/links/:shortCode", DeleteLinkHandler(linkService))

		api.GET("/links/:shortCode/stats", GetLinkStatsHandler(linkService, cfg))
		api.GET("/links/:shortCode/qrcode", QRCodeHandler(linkService, cfg))

		api.POST("/admin/sweep", SweepHandler(linkService))
	}

	// Redirection Route - handles the actual URL redirection at root level
	// (e.g., localhost:8080/abc123). Every successful hit consumes one click.
	router.GET("/:shortCode", RedirectHandler(linkService))
}

// HealthCheckHandler reports that the service is up.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LinkResponse is the JSON view of a link.
type LinkResponse struct {
	ShortCode       string    `json:"short_code"`
	LongURL         string    `json:"long_url"`
	FullShortURL    string    `json:"full_short_url"`
	OwnerID         string    `json:"owner_id"`
	MaxClicks       int       `json:"max_clicks"`
	ClickCount      int       `json:"click_count"`
	RemainingClicks int       `json:"remaining_clicks"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func newLinkResponse(link *models.Link, cfg *config.Config) LinkResponse {
	remaining := link.MaxClicks - link.ClickCount
	if remaining < 0 || !link.Active {
		remaining = 0
	}
	return LinkResponse{
		ShortCode:       link.ShortCode,
		LongURL:         link.LongURL,
		FullShortURL:    cfg.ShortURL(link.ShortCode),
		OwnerID:         link.OwnerID,
		MaxClicks:       link.MaxClicks,
		ClickCount:      link.ClickCount,
		RemainingClicks: remaining,
		Active:          link.Active,
		CreatedAt:       link.CreatedAt,
		ExpiresAt:       link.ExpiresAt,
	}
}

// RegisterUserHandler creates a user with the configured default policy.
func RegisterUserHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userService.RegisterUser(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// GetUserHandler returns a user's profile and link policy.
func GetUserHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userService.GetUser(c.Request.Context(), c.Param("userID"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateSettingsRequest is the body of PUT /users/:userID/settings.
type UpdateSettingsRequest struct {
	MaxClicks int `json:"max_clicks" binding:"required"`
	TTLHours  int `json:"ttl_hours" binding:"required"`
}

// UpdateSettingsHandler changes the default quota and TTL applied to the user's future links.
func UpdateSettingsHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "kind": customerrors.KindValidation.String()})
			return
		}
		user, err := userService.UpdateSettings(c.Request.Context(), c.Param("userID"), req.MaxClicks, req.TTLHours)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// CreateLinkRequest is the body of POST /users/:userID/links.
// The URL itself is validated by the link service.
type CreateLinkRequest struct {
	LongURL string `json:"long_url" binding:"required"`
}

// CreateShortLinkHandler shortens a URL on behalf of the user in the path.
func CreateShortLinkHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "kind": customerrors.KindValidation.String()})
			return
		}

		link, err := linkService.CreateLink(c.Request.Context(), c.Param("userID"), req.LongURL)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, newLinkResponse(link, cfg))
	}
}

// ListUserLinksHandler returns every link of a registered user, active or not.
func ListUserLinksHandler(linkService *services.LinkService, userService *services.UserService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, err := userService.GetUser(ctx, c.Param("userID"))
		if err != nil {
			writeError(c, err)
			return
		}

		links, err := linkService.ListOwnerLinks(ctx, user.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]LinkResponse, len(links))
		for i := range links {
			out[i] = newLinkResponse(&links[i], cfg)
		}
		c.JSON(http.StatusOK, gin.H{"links": out, "count": len(out)})
	}
}

// DeleteLinkHandler removes a link owned by the user in the path.
func DeleteLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := linkService.DeleteOwnerLink(c.Request.Context(), c.Param("userID"), c.Param("shortCode")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RedirectHandler consumes one click and redirects to the destination.
func RedirectHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dest, err := linkService.ResolveLink(c.Request.Context(), c.Param("shortCode"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Redirect(http.StatusFound, dest)
	}
}

// GetLinkStatsHandler returns the link's counters without consuming a click.
func GetLinkStatsHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := linkService.GetLink(c.Request.Context(), c.Param("shortCode"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newLinkResponse(link, cfg))
	}
}

// QRCodeHandler renders the full short URL of an existing link as a PNG QR code.
func QRCodeHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := linkService.GetLink(c.Request.Context(), c.Param("shortCode"))
		if err != nil {
			writeError(c, err)
			return
		}

		png, err := qrcode.Encode(cfg.ShortURL(link.ShortCode), qrcode.Medium, qrCodeSize)
		if err != nil {
			log.Printf("Error generating QR code for %s: %v", link.ShortCode, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
			return
		}
		c.Header("Content-Disposition", "inline; filename="+link.ShortCode+".png")
		c.Data(http.StatusOK, "image/png", png)
	}
}

// SweepHandler runs one expiration sweep on demand.
func SweepHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		removed, err := linkService.SweepOnce(c.Request.Context(), time.Now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

// writeError maps an error kind to its HTTP status. Storage and state failures
// are logged and reported without details.
func writeError(c *gin.Context, err error) {
	kind := customerrors.KindOf(err)

	var status int
	switch kind {
	case customerrors.KindValidation:
		status = http.StatusBadRequest
	case customerrors.KindNotFound:
		status = http.StatusNotFound
	case customerrors.KindAccessDenied:
		status = http.StatusForbidden
	case customerrors.KindExpired, customerrors.KindQuotaExceeded:
		status = http.StatusGone
	case customerrors.KindPersistence, customerrors.KindState:
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "kind": kind.String()})
		return
	default:
		log.Printf("Unexpected error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
}
