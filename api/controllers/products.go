package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shelfstock-backend/api/responses"
	"github.com/angelmondragon/shelfstock-backend/api/validators"
	productsvc "github.com/angelmondragon/shelfstock-backend/internal/products"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
)

const (
	searchByName = "name"
	searchByID   = "id"
)

type productIDsRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
}

type addIdentifiersRequest struct {
	Identifiers []productsvc.IdentifierInput `json:"identifiers" validate:"required,min=1,dive"`
}

// ProductCreate registers a product and its optional alternate identifiers.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload productsvc.CreateProductInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := svc.CreateProduct(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"product_id": productID})
	}
}

func ProductBulkDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload productIDsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deleted, err := svc.DeleteProducts(r.Context(), payload.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"deleted": deleted})
	}
}

func ProductAddIdentifiers(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var payload addIdentifiersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddProductIdentifiers(r.Context(), productID, payload.Identifiers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// ProductSearch matches q against names and ids. by=name or by=id narrows the search.
func ProductSearch(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		term, err := validators.RequiredQuery(r, "q")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var results []productsvc.ProductView
		switch by := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("by"))); by {
		case "":
			results, err = svc.Search(r.Context(), term)
		case searchByName:
			results, err = svc.SearchByName(r.Context(), term)
		case searchByID:
			results, err = svc.SearchByID(r.Context(), term)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "by must be name or id").WithDetails(map[string]any{"field": "by", "value": by})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}
