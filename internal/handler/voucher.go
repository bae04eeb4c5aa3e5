package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danswara/promo-service/internal/model"
)

// ClaimVoucherRequest is the payload for a claim.
type ClaimVoucherRequest struct {
	CampaignID string `json:"campaign_id" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
}

func (h *Handler) ClaimVoucher(c *gin.Context) {
	var req ClaimVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	voucher, issued, err := h.vouchers.Claim(c.Request.Context(), req.CampaignID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"voucher": voucher, "claimed": issued})
}

func (h *Handler) ConsumeVoucher(c *gin.Context) {
	voucher, err := h.vouchers.Consume(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, voucher)
}

func (h *Handler) ListCampaignVouchers(c *gin.Context) {
	vouchers, err := h.vouchers.ListByCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if vouchers == nil {
		vouchers = []model.Voucher{}
	}
	c.JSON(http.StatusOK, vouchers)
}

func (h *Handler) ListUserVouchers(c *gin.Context) {
	vouchers, err := h.vouchers.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if vouchers == nil {
		vouchers = []model.Voucher{}
	}
	c.JSON(http.StatusOK, vouchers)
}
