package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rahulmenon/bazario-backend/pkg/db"
	"github.com/rahulmenon/bazario-backend/pkg/db/models"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
)

// Service defines vendor lifecycle operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateVendorInput) (*models.Vendor, error)
	GetBySlug(ctx context.Context, slug string) (*models.Vendor, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context) ([]models.Vendor, error)
}

// CreateVendorInput captures the fields a new storefront requires.
type CreateVendorInput struct {
	Name        string
	Slug        string
	Description *string
	LogoURL     *string
}

type service struct {
	repo Repository
}

// NewService wires a vendor service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateVendorInput) (*models.Vendor, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor slug required")
	}

	if _, err := s.repo.FindByOwnerID(ctx, ownerID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "owner already has a vendor")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor by owner")
	}

	vendor := &models.Vendor{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		LogoURL:     input.LogoURL,
	}

	if err := s.repo.Create(ctx, vendor); err != nil {
		if db.IsUniqueViolation(err, "") {
			// Either unique constraint can fire here: the owner one when a
			// concurrent create slipped past the FindByOwnerID check above.
			if db.IsUniqueViolation(err, "owner_id") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "owner already has a vendor")
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "vendor with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return vendor, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Vendor, error) {
	vendor, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no vendor for this owner")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) List(ctx context.Context) ([]models.Vendor, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return list, nil
}
