package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/model"
)

// ImageUploader stores a store image and returns its public URL.
type ImageUploader interface {
	UploadStoreImage(ctx context.Context, storeID string, body io.Reader, contentType string) (string, error)
}

// StoreService owns the store directory: creation, mutation, soft deletion
// and the image upload used by store profiles.
type StoreService struct {
	stores    StoreDirectory
	validator UserValidator
	images    ImageUploader // nil when blob storage is not configured
	clock     func() time.Time
	newID     func() string
}

// NewStoreService creates a store service. images may be nil.
func NewStoreService(stores StoreDirectory, validator UserValidator, images ImageUploader) *StoreService {
	return &StoreService{
		stores:    stores,
		validator: validator,
		images:    images,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// Create registers a new store owned by an active merchant.
func (s *StoreService) Create(ctx context.Context, in *model.Store) (*model.Store, error) {
	switch {
	case in.Name == "":
		return nil, errs.New(errs.KindValidation, "name is required")
	case in.CreatedBy == "":
		return nil, errs.New(errs.KindValidation, "creator is required")
	}

	if err := requireActive(ctx, s.validator, in.CreatedBy, model.RoleMerchant); err != nil {
		return nil, err
	}

	now := s.clock()
	store := *in
	store.ID = s.newID()
	store.UpdatedBy = in.CreatedBy
	store.CreatedAt = now
	store.UpdatedAt = now
	store.Deleted = false

	if err := s.stores.Create(ctx, &store); err != nil {
		return nil, err
	}

	logrus.WithField("store_id", store.ID).Info("store created")

	return &store, nil
}

// Get retrieves a store by ID.
func (s *StoreService) Get(ctx context.Context, id string) (*model.Store, error) {
	return s.stores.GetByID(ctx, id)
}

// Update overwrites the mutable store fields.
func (s *StoreService) Update(ctx context.Context, in *model.Store) (*model.Store, error) {
	if in.ID == "" {
		return nil, errs.New(errs.KindValidation, "store id is required")
	}
	if in.UpdatedBy == "" {
		return nil, errs.New(errs.KindValidation, "updater is required")
	}

	if err := requireActive(ctx, s.validator, in.UpdatedBy, model.RoleMerchant); err != nil {
		return nil, err
	}

	existing, err := s.stores.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Name = in.Name
	updated.Address = in.Address
	updated.City = in.City
	updated.Zip = in.Zip
	updated.Phone = in.Phone
	updated.Email = in.Email
	updated.UpdatedBy = in.UpdatedBy
	updated.UpdatedAt = s.clock()

	if err := s.stores.Update(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete soft-deletes a store; the record is never physically removed.
func (s *StoreService) Delete(ctx context.Context, id, userID string) error {
	if err := requireActive(ctx, s.validator, userID, model.RoleMerchant); err != nil {
		return err
	}

	return s.stores.SoftDelete(ctx, id, userID, s.clock())
}

// UploadImage stores a new image for the store and records its URL.
func (s *StoreService) UploadImage(ctx context.Context, storeID, userID string, body io.Reader, contentType string) (*model.Store, error) {
	if s.images == nil {
		return nil, errs.New(errs.KindDependency, "blob storage is not configured")
	}

	if err := requireActive(ctx, s.validator, userID, model.RoleMerchant); err != nil {
		return nil, err
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	url, err := s.images.UploadStoreImage(ctx, storeID, body, contentType)
	if err != nil {
		return nil, errs.Wrap(errs.KindDependency, "failed to upload store image", err)
	}

	store.ImageURL = url
	store.UpdatedBy = userID
	store.UpdatedAt = s.clock()

	if err := s.stores.Update(ctx, store); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"store_id": storeID,
		"url":      url,
	}).Info("store image uploaded")

	return store, nil
}
