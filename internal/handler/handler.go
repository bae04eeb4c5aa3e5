// Package handler is the HTTP adapter around the campaign, voucher and store
// services. It owns request shaping and the error-kind to status mapping;
// the services never see transport status codes.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/danswara/promo-service/internal/audit"
	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/service"
)

// Handler bundles the HTTP handlers for all routes.
type Handler struct {
	campaigns *service.CampaignService
	vouchers  *service.VoucherService
	stores    *service.StoreService
}

// New creates a Handler.
func New(campaigns *service.CampaignService, vouchers *service.VoucherService, stores *service.StoreService) *Handler {
	return &Handler{
		campaigns: campaigns,
		vouchers:  vouchers,
		stores:    stores,
	}
}

// Router builds the gin engine with all routes and middleware.
func (h *Handler) Router(auditor audit.Publisher, claimLimiter *rate.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.Use(Audit(auditor))
	{
		api.POST("/stores", h.CreateStore)
		api.GET("/stores/:id", h.GetStore)
		api.PUT("/stores/:id", h.UpdateStore)
		api.DELETE("/stores/:id", h.DeleteStore)
		api.POST("/stores/:id/image", h.UploadStoreImage)
		api.GET("/stores/:id/campaigns", h.ListStoreCampaigns)

		api.POST("/campaigns", h.CreateCampaign)
		api.GET("/campaigns/:id", h.GetCampaign)
		api.PUT("/campaigns/:id", h.UpdateCampaign)
		api.POST("/campaigns/:id/promote", h.PromoteCampaign)
		api.GET("/campaigns/:id/vouchers", h.ListCampaignVouchers)

		api.POST("/vouchers/claim", RateLimit(claimLimiter), h.ClaimVoucher)
		api.POST("/vouchers/:id/consume", h.ConsumeVoucher)
		api.GET("/users/:id/vouchers", h.ListUserVouchers)
	}

	return router
}

// statusForKind translates an error kind to an HTTP status code.
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindUnauthorized:
		return http.StatusUnauthorized
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindDuplicate, errs.KindInvalidState, errs.KindAlreadyClaimed, errs.KindCapacityExceeded:
		return http.StatusConflict
	case errs.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error's kind and message; unclassified errors are
// logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusForKind(kind)

	if kind == "" {
		logrus.WithField("path", c.FullPath()).WithError(err).Error("unhandled error")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}
