package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/service"
)

func cartMode(w http.ResponseWriter, r *http.Request) (domain.CartMode, bool) {
	mode, err := service.ParseCartMode(chi.URLParam(r, "mode"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return "", false
	}
	return mode, true
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	mode, ok := cartMode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.service.Cart(mode))
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	mode, ok := cartMode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.service.ClearCart(mode))
}

func (a *API) handleAdjustCart(w http.ResponseWriter, r *http.Request) {
	mode, ok := cartMode(w, r)
	if !ok {
		return
	}
	var req domain.CartAdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.AdjustCart(r.Context(), mode, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	mode, ok := cartMode(w, r)
	if !ok {
		return
	}
	var req domain.CartQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.SetCartQuantity(r.Context(), mode, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleRemoveCartLine(w http.ResponseWriter, r *http.Request) {
	mode, ok := cartMode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.service.RemoveCartLine(mode, chi.URLParam(r, "medicineID"), chi.URLParam(r, "batchID")))
}

func (a *API) handleFreeQuantity(w http.ResponseWriter, r *http.Request) {
	mode, ok := cartMode(w, r)
	if !ok {
		return
	}
	if mode != domain.CartSale {
		writeError(w, http.StatusNotFound, errors.New("free quantity applies to the sale cart"))
		return
	}
	var req domain.FreeQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.SetFreeQuantity(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleRestockEntry(w http.ResponseWriter, r *http.Request) {
	mode, ok := cartMode(w, r)
	if !ok {
		return
	}
	if mode != domain.CartRestock {
		writeError(w, http.StatusNotFound, errors.New("batch entries belong to the restock cart"))
		return
	}
	var req domain.RestockEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.AddRestockEntry(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
