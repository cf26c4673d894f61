package handlers

import (
	"errors"
	"net/http"

	"brand-domain-service/internal/models"
	"brand-domain-service/internal/repository"
	"brand-domain-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InternalHandlers handles internal service-to-service requests
type InternalHandlers struct {
	domainService *services.DomainService
	db            *gorm.DB
	redisClient   *redis.Client
}

// NewInternalHandlers creates new internal handlers
func NewInternalHandlers(domainService *services.DomainService, db *gorm.DB, redisClient *redis.Client) *InternalHandlers {
	return &InternalHandlers{
		domainService: domainService,
		db:            db,
		redisClient:   redisClient,
	}
}

// ResolveDomain handles GET /api/v1/internal/resolve
// @Summary Resolve hostname
// @Description Resolve a custom hostname to brand information (internal use only)
// @Tags internal
// @Produce json
// @Param hostname query string true "Hostname to resolve"
// @Success 200 {object} models.InternalResolveResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/internal/resolve [get]
func (h *InternalHandlers) ResolveDomain(c *gin.Context) {
	hostname := c.Query("hostname")
	if hostname == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "hostname parameter is required",
			Code:  "MISSING_HOSTNAME",
		})
		return
	}

	resolved, err := h.domainService.ResolveHostname(c.Request.Context(), hostname)
	if err != nil {
		if errors.Is(err, repository.ErrDomainNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: "hostname not found",
				Code:  "NOT_FOUND",
			})
			return
		}
		log.Error().Err(err).Str("hostname", hostname).Msg("Failed to resolve hostname")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "failed to resolve hostname",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, resolved)
}

// CheckDomain handles GET /api/v1/internal/check
// @Summary Check if hostname exists
// @Description Check if a hostname is registered in the system (internal use only)
// @Tags internal
// @Produce json
// @Param hostname query string true "Hostname to check"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/internal/check [get]
func (h *InternalHandlers) CheckDomain(c *gin.Context) {
	hostname := c.Query("hostname")
	if hostname == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "hostname parameter is required",
			Code:  "MISSING_HOSTNAME",
		})
		return
	}

	resolved, err := h.domainService.ResolveHostname(c.Request.Context(), hostname)
	if err != nil {
		if errors.Is(err, repository.ErrDomainNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"exists":    false,
				"hostname":  hostname,
				"is_active": false,
			})
			return
		}
		log.Error().Err(err).Str("hostname", hostname).Msg("Failed to check hostname")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "failed to check hostname",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exists":     true,
		"hostname":   hostname,
		"is_active":  resolved.IsActive,
		"is_primary": resolved.IsPrimary,
		"brand_id":   resolved.BrandID,
	})
}

// Health handles GET /health
// @Summary Health check
// @Description Service health check endpoint
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *InternalHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "brand-domain-service",
	})
}

// Ready handles GET /ready
// @Summary Readiness check
// @Description Service readiness check, verifies database and cache connectivity
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *InternalHandlers) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "cache unavailable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
