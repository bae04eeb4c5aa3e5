package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danswara/promo-service/internal/model"
)

// CreateCampaignRequest is the payload for campaign creation.
type CreateCampaignRequest struct {
	Description string     `json:"description" binding:"required"`
	StoreID     string     `json:"store_id" binding:"required"`
	CreatorID   string     `json:"creator_id" binding:"required"`
	Category    string     `json:"category" binding:"required"`
	Amount      int64      `json:"amount"`
	Inventory   int        `json:"inventory"`
	Tags        string     `json:"tags"`
	Terms       string     `json:"terms"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// UpdateCampaignRequest is the payload for campaign update.
type UpdateCampaignRequest struct {
	Description string     `json:"description" binding:"required"`
	UpdaterID   string     `json:"updater_id" binding:"required"`
	Category    string     `json:"category"`
	Amount      int64      `json:"amount"`
	Inventory   int        `json:"inventory"`
	Likes       int        `json:"likes"`
	Tags        string     `json:"tags"`
	Terms       string     `json:"terms"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// PromoteCampaignRequest identifies the promoting user.
type PromoteCampaignRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	campaign, err := h.campaigns.Create(c.Request.Context(), &model.Campaign{
		Description: req.Description,
		StoreID:     req.StoreID,
		CreatedBy:   req.CreatorID,
		Category:    req.Category,
		Amount:      req.Amount,
		Inventory:   req.Inventory,
		Tags:        req.Tags,
		Terms:       req.Terms,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func (h *Handler) GetCampaign(c *gin.Context) {
	campaign, issued, err := h.campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign, "claimed": issued})
}

func (h *Handler) UpdateCampaign(c *gin.Context) {
	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	campaign, err := h.campaigns.Update(c.Request.Context(), &model.Campaign{
		ID:          c.Param("id"),
		Description: req.Description,
		UpdatedBy:   req.UpdaterID,
		Category:    req.Category,
		Amount:      req.Amount,
		Inventory:   req.Inventory,
		Likes:       req.Likes,
		Tags:        req.Tags,
		Terms:       req.Terms,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) PromoteCampaign(c *gin.Context) {
	var req PromoteCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	campaign, err := h.campaigns.Promote(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) ListStoreCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.ListByStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	c.JSON(http.StatusOK, campaigns)
}
