package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shelfstock-backend/api/responses"
	"github.com/angelmondragon/shelfstock-backend/api/validators"
	containersvc "github.com/angelmondragon/shelfstock-backend/internal/containers"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
)

type containerIDsRequest struct {
	ContainerIDs []string `json:"container_ids" validate:"required,min=1,dive,required"`
}

func ContainerCreate(svc containersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "container service unavailable"))
			return
		}

		var payload containersvc.CreateContainersInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		containerIDs, err := svc.CreateContainers(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string][]string{"container_ids": containerIDs})
	}
}

func ContainerBulkDelete(svc containersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "container service unavailable"))
			return
		}

		var payload containerIDsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deleted, err := svc.DeleteContainers(r.Context(), payload.ContainerIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"deleted": deleted})
	}
}

func ContainerLookup(svc containersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "container service unavailable"))
			return
		}

		info, err := svc.LookupContainer(r.Context(), containerIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, info)
	}
}

// ContainerContents lists product lines. Unknown containers yield an empty list.
func ContainerContents(svc containersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "container service unavailable"))
			return
		}

		lines, err := svc.InspectContainer(r.Context(), containerIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, lines)
	}
}

func ContainerAddProduct(svc containersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "container service unavailable"))
			return
		}

		var payload containersvc.QuantityChange
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddProduct(r.Context(), payload.ProductID, containerIDParam(r), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func ContainerRemoveProduct(svc containersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "container service unavailable"))
			return
		}

		var payload containersvc.QuantityChange
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveProduct(r.Context(), payload.ProductID, containerIDParam(r), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func containerIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "containerId"))
}
