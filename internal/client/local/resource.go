package local

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/validation"
)

// ResourceRepository пользовательские уровни и персонажи
type ResourceRepository struct {
	store storage.ResourceStorage
	now   func() time.Time
}

// NewResourceRepository creates the repository. A nil clock means time.Now.
func NewResourceRepository(store storage.ResourceStorage, clock func() time.Time) *ResourceRepository {
	if clock == nil {
		clock = time.Now
	}
	return &ResourceRepository{store: store, now: clock}
}

// Create stores a new resource under a fresh id
func (r *ResourceRepository) Create(ctx context.Context, kind models.ResourceKind, name string, content []byte) (*models.Resource, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	if err := validation.ValidateResourceName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateResourceContent(content); err != nil {
		return nil, err
	}

	res := &models.Resource{
		ID:      uuid.New().String(),
		Kind:    kind,
		Name:    name,
		Content: content,
	}

	saved, err := r.store.SaveLocalEdit(ctx, res, r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return saved, nil
}

// Update replaces name and content. Returns storage.ErrNotFound for unknown or deleted ids.
func (r *ResourceRepository) Update(ctx context.Context, id, name string, content []byte) (*models.Resource, error) {
	if err := validation.ValidateResourceName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateResourceContent(content); err != nil {
		return nil, err
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Name = name
	current.Content = content

	saved, err := r.store.SaveLocalEdit(ctx, current, r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	return saved, nil
}

// Delete records a local deletion; it reaches the server on the next sync
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.MarkResourceDeleted(ctx, id, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}

// Get hides local tombstones
func (r *ResourceRepository) Get(ctx context.Context, id string) (*models.Resource, error) {
	res, err := r.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Deleted {
		return nil, storage.ErrNotFound
	}
	return res, nil
}

// List returns non-deleted resources
func (r *ResourceRepository) List(ctx context.Context) ([]*models.Resource, error) {
	return r.store.ListResources(ctx)
}
