package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danswara/promo-service/internal/model"
)

// CreateStoreRequest is the payload for store creation.
type CreateStoreRequest struct {
	Name      string `json:"name" binding:"required"`
	CreatorID string `json:"creator_id" binding:"required"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// UpdateStoreRequest is the payload for store update.
type UpdateStoreRequest struct {
	Name      string `json:"name" binding:"required"`
	UpdaterID string `json:"updater_id" binding:"required"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (h *Handler) CreateStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	store, err := h.stores.Create(c.Request.Context(), &model.Store{
		Name:      req.Name,
		CreatedBy: req.CreatorID,
		Address:   req.Address,
		City:      req.City,
		Zip:       req.Zip,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, store)
}

func (h *Handler) GetStore(c *gin.Context) {
	store, err := h.stores.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, store)
}

func (h *Handler) UpdateStore(c *gin.Context) {
	var req UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	store, err := h.stores.Update(c.Request.Context(), &model.Store{
		ID:        c.Param("id"),
		Name:      req.Name,
		UpdatedBy: req.UpdaterID,
		Address:   req.Address,
		City:      req.City,
		Zip:       req.Zip,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, store)
}

func (h *Handler) DeleteStore(c *gin.Context) {
	userID := c.GetHeader(actorHeader)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + actorHeader + " header"})
		return
	}

	if err := h.stores.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
}

func (h *Handler) UploadStoreImage(c *gin.Context) {
	userID := c.GetHeader(actorHeader)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + actorHeader + " header"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	store, err := h.stores.UploadImage(c.Request.Context(), c.Param("id"), userID, file, contentType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, store)
}
