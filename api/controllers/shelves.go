package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shelfstock-backend/api/responses"
	"github.com/angelmondragon/shelfstock-backend/api/validators"
	shelfsvc "github.com/angelmondragon/shelfstock-backend/internal/shelves"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
)

type shelfIDsRequest struct {
	ShelfIDs []string `json:"shelf_ids" validate:"required,min=1,dive,required"`
}

type bindContainersRequest struct {
	Bindings []shelfsvc.Binding `json:"bindings" validate:"required,min=1,dive"`
}

func ShelfCreate(svc shelfsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelf service unavailable"))
			return
		}

		var payload shelfsvc.CreateShelfInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shelfID, err := svc.CreateShelf(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"shelf_id": shelfID})
	}
}

func ShelfBulkDelete(svc shelfsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelf service unavailable"))
			return
		}

		var payload shelfIDsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deleted, err := svc.DeleteShelves(r.Context(), payload.ShelfIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"deleted": deleted})
	}
}

func ShelfContainers(svc shelfsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelf service unavailable"))
			return
		}

		containerIDs, err := svc.InspectShelf(r.Context(), strings.TrimSpace(chi.URLParam(r, "shelfId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string][]string{"container_ids": containerIDs})
	}
}

// ShelfBind applies every binding or none of them.
func ShelfBind(svc shelfsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelf service unavailable"))
			return
		}

		var payload bindContainersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.BindContainers(r.Context(), payload.Bindings); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"bound": len(payload.Bindings)})
	}
}

func ShelfUnbind(svc shelfsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelf service unavailable"))
			return
		}

		var payload containerIDsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unbound, err := svc.UnbindContainers(r.Context(), payload.ContainerIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"unbound": unbound})
	}
}
