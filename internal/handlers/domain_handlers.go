package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"brand-domain-service/internal/models"
	"brand-domain-service/internal/repository"
	"brand-domain-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DomainHandlers handles HTTP requests for domain operations
type DomainHandlers struct {
	domainService *services.DomainService
}

// NewDomainHandlers creates new domain handlers
func NewDomainHandlers(domainService *services.DomainService) *DomainHandlers {
	return &DomainHandlers{
		domainService: domainService,
	}
}

// GetRequirements handles POST /api/v1/dns/requirements
// @Summary Resolve DNS requirements for a hostname
// @Description Returns the DNS records a customer must create for a hostname
// @Tags dns
// @Accept json
// @Produce json
// @Param request body models.RequirementsRequest true "Requirements request"
// @Success 200 {object} models.RequirementsResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/dns/requirements [post]
func (h *DomainHandlers) GetRequirements(c *gin.Context) {
	var req models.RequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: "Please check your request data and try again",
		})
		return
	}

	requirements, err := h.domainService.GetRequirements(c.Request.Context(), req.Hostname, req.VerificationToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidHostname) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid hostname",
				Code:    "INVALID_HOSTNAME",
				Message: err.Error(),
			})
			return
		}
		log.Error().Err(err).Msg("Failed to resolve requirements")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "failed to resolve requirements",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, requirements)
}

// CreateDomain handles POST /api/v1/domains
// @Summary Attach a new custom domain
// @Description Attach a custom domain to the authenticated brand
// @Tags domains
// @Accept json
// @Produce json
// @Param request body models.CreateDomainRequest true "Domain creation request"
// @Success 201 {object} models.DomainResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/domains [post]
func (h *DomainHandlers) CreateDomain(c *gin.Context) {
	brandID, userID, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req models.CreateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: "Please check your request data and try again",
		})
		return
	}

	domain, err := h.domainService.CreateDomain(c.Request.Context(), brandID, &req, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDomainAlreadyExists):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "domain already exists",
				Code:    "DOMAIN_EXISTS",
				Message: "This hostname is already attached to a brand",
			})
		case errors.Is(err, repository.ErrDomainLimitExceeded):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "domain limit exceeded",
				Code:    "LIMIT_EXCEEDED",
				Message: "You have reached the maximum number of domains allowed for your account",
			})
		case errors.Is(err, services.ErrInvalidHostname):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid hostname",
				Code:    "INVALID_HOSTNAME",
				Message: err.Error(),
			})
		default:
			log.Error().Err(err).Msg("Failed to create domain")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: "failed to create domain",
				Code:  "INTERNAL_ERROR",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, domain)
}

// GetDomain handles GET /api/v1/domains/:id
// @Summary Get domain details
// @Tags domains
// @Produce json
// @Param id path string true "Domain ID"
// @Success 200 {object} models.DomainResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/{id} [get]
func (h *DomainHandlers) GetDomain(c *gin.Context) {
	brandID, _, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	domainID, ok := parseDomainID(c)
	if !ok {
		return
	}

	domain, err := h.domainService.GetDomain(c.Request.Context(), brandID, domainID)
	if err != nil {
		respondDomainError(c, err, "failed to get domain")
		return
	}

	c.JSON(http.StatusOK, domain)
}

// ListDomains handles GET /api/v1/domains
// @Summary List domains
// @Tags domains
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.DomainListResponse
// @Router /api/v1/domains [get]
func (h *DomainHandlers) ListDomains(c *gin.Context) {
	brandID, _, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	domains, err := h.domainService.ListDomains(c.Request.Context(), brandID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list domains")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "failed to list domains",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, domains)
}

// RegisterDomain handles POST /api/v1/domains/:id/register
// @Summary Register the domain with the hosting provider
// @Tags domains
// @Produce json
// @Param id path string true "Domain ID"
// @Success 200 {object} models.RegisterResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/domains/{id}/register [post]
func (h *DomainHandlers) RegisterDomain(c *gin.Context) {
	brandID, userID, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	domainID, ok := parseDomainID(c)
	if !ok {
		return
	}

	result, err := h.domainService.RegisterDomain(c.Request.Context(), brandID, domainID, performedBy(userID))
	if err != nil {
		respondDomainError(c, err, "failed to register domain")
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyDomain handles POST /api/v1/domains/:id/verify
// @Summary Verify domain ownership
// @Description Check the verification TXT record for a domain
// @Tags domains
// @Produce json
// @Param id path string true "Domain ID"
// @Success 200 {object} models.VerifyResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/domains/{id}/verify [post]
func (h *DomainHandlers) VerifyDomain(c *gin.Context) {
	brandID, userID, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	domainID, ok := parseDomainID(c)
	if !ok {
		return
	}

	result, err := h.domainService.VerifyOwnership(c.Request.Context(), brandID, domainID, performedBy(userID))
	if err != nil {
		respondDomainError(c, err, "failed to verify domain")
		return
	}

	c.JSON(http.StatusOK, result)
}

// RequestSSL handles POST /api/v1/domains/:id/ssl
// @Summary Provision SSL for a verified domain
// @Tags domains
// @Produce json
// @Param id path string true "Domain ID"
// @Success 200 {object} models.SSLResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/domains/{id}/ssl [post]
func (h *DomainHandlers) RequestSSL(c *gin.Context) {
	brandID, userID, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	domainID, ok := parseDomainID(c)
	if !ok {
		return
	}

	result, err := h.domainService.RequestSSL(c.Request.Context(), brandID, domainID, performedBy(userID))
	if err != nil {
		respondDomainError(c, err, "failed to provision SSL")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetPrimary handles POST /api/v1/domains/:id/primary
// @Summary Set a domain as the brand's primary
// @Tags domains
// @Produce json
// @Param id path string true "Domain ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/{id}/primary [post]
func (h *DomainHandlers) SetPrimary(c *gin.Context) {
	brandID, _, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	domainID, ok := parseDomainID(c)
	if !ok {
		return
	}

	if err := h.domainService.SetPrimary(c.Request.Context(), brandID, domainID); err != nil {
		respondDomainError(c, err, "failed to set primary domain")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Primary domain updated",
	})
}

// DeleteDomain handles DELETE /api/v1/domains/:id
// @Summary Remove a domain
// @Description Remove a custom domain, deregistering at the provider best-effort
// @Tags domains
// @Produce json
// @Param id path string true "Domain ID"
// @Success 200 {object} models.RemoveResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/{id} [delete]
func (h *DomainHandlers) DeleteDomain(c *gin.Context) {
	brandID, userID, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	domainID, ok := parseDomainID(c)
	if !ok {
		return
	}

	result, err := h.domainService.RemoveDomain(c.Request.Context(), brandID, domainID, performedBy(userID))
	if err != nil {
		respondDomainError(c, err, "failed to delete domain")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEvents handles GET /api/v1/domains/:id/events
// @Summary Get domain audit log
// @Tags domains
// @Produce json
// @Param id path string true "Domain ID"
// @Param limit query int false "Limit" default(100)
// @Success 200 {object} models.EventListResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/{id}/events [get]
func (h *DomainHandlers) GetEvents(c *gin.Context) {
	brandID, _, err := getBrandAndUserFromContext(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	domainID, ok := parseDomainID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	eventsList, err := h.domainService.GetEvents(c.Request.Context(), brandID, domainID, limit)
	if err != nil {
		respondDomainError(c, err, "failed to get events")
		return
	}

	c.JSON(http.StatusOK, eventsList)
}

// Helpers

func parseDomainID(c *gin.Context) (uuid.UUID, bool) {
	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid domain ID",
			Code:  "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return domainID, true
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: "unauthorized",
		Code:  "UNAUTHORIZED",
	})
}

func respondDomainError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrDomainNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "domain not found",
			Code:  "NOT_FOUND",
		})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "invalid domain state",
			Code:    "INVALID_STATE",
			Message: err.Error(),
		})
	default:
		log.Error().Err(err).Msg(fallback)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: fallback,
			Code:  "INTERNAL_ERROR",
		})
	}
}

// getBrandAndUserFromContext extracts brand and user IDs set by the gateway
func getBrandAndUserFromContext(c *gin.Context) (uuid.UUID, uuid.UUID, error) {
	brandID, err := uuid.Parse(c.GetHeader("X-Brand-ID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	// User is optional; service accounts carry no user header.
	userID, _ := uuid.Parse(c.GetHeader("X-User-ID"))

	return brandID, userID, nil
}

func performedBy(userID uuid.UUID) *uuid.UUID {
	if userID == uuid.Nil {
		return nil
	}
	return &userID
}
