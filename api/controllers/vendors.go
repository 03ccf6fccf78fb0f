package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rahulmenon/bazario-backend/api/responses"
	"github.com/rahulmenon/bazario-backend/api/validators"
	"github.com/rahulmenon/bazario-backend/internal/vendors"
	"github.com/rahulmenon/bazario-backend/pkg/db/models"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
	"github.com/rahulmenon/bazario-backend/pkg/logger"
)

type createVendorRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Slug        string  `json:"slug" validate:"required,min=2,max=60"`
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty" validate:"omitempty,url"`
}

type vendorResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
}

type vendorOwnerResponse struct {
	vendorResponse
	PayoutBalance int `json:"payout_balance"`
}

type vendorDetailResponse struct {
	vendorResponse
	Products []productResponse `json:"products"`
}

// VendorCreate opens a storefront for the authenticated user.
func VendorCreate(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Create(r.Context(), ownerID, vendors.CreateVendorInput{
			Name:        payload.Name,
			Slug:        payload.Slug,
			Description: payload.Description,
			LogoURL:     payload.LogoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newVendorResponse(vendor))
	}
}

// VendorList returns all storefronts.
func VendorList(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]vendorResponse, 0, len(list))
		for i := range list {
			out = append(out, newVendorResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// VendorBySlug returns one storefront with its catalog.
func VendorBySlug(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug required"))
			return
		}

		vendor, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail := vendorDetailResponse{
			vendorResponse: newVendorResponse(vendor),
			Products:       make([]productResponse, 0, len(vendor.Products)),
		}
		for i := range vendor.Products {
			detail.Products = append(detail.Products, newProductResponse(&vendor.Products[i]))
		}
		responses.WriteSuccess(w, detail)
	}
}

// VendorMe returns the storefront owned by the authenticated user, payout
// balance included.
func VendorMe(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.GetByOwner(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendorOwnerResponse{
			vendorResponse: newVendorResponse(vendor),
			PayoutBalance:  vendor.PayoutBalance,
		})
	}
}

func newVendorResponse(vendor *models.Vendor) vendorResponse {
	if vendor == nil {
		return vendorResponse{}
	}
	return vendorResponse{
		ID:          vendor.ID,
		Name:        vendor.Name,
		Slug:        vendor.Slug,
		Description: vendor.Description,
		LogoURL:     vendor.LogoURL,
	}
}
