package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pharmapos/backend/internal/domain"
)

func (a *API) handleListMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := a.service.SearchMedicines(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"medicines": medicines})
}

func (a *API) handleCreatePending(w http.ResponseWriter, r *http.Request) {
	var req domain.NewMedicineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	med, err := a.service.CreatePendingMedicine(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"medicine": med,
		"restock":  a.service.Cart(domain.CartRestock),
	})
}

func (a *API) handleGetPending(w http.ResponseWriter, _ *http.Request) {
	med, ok := a.service.PendingMedicine()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no pending medicine"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"medicine": med})
}

func (a *API) handleDiscardPending(w http.ResponseWriter, _ *http.Request) {
	if err := a.service.DiscardPending(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restock": a.service.Cart(domain.CartRestock)})
}

func (a *API) handleGetMedicine(w http.ResponseWriter, r *http.Request) {
	med, err := a.service.GetMedicine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"medicine": med})
}

func (a *API) handleUpdateMedicine(w http.ResponseWriter, r *http.Request) {
	var req domain.MedicineUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.UpdateMedicine(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleDeleteMedicine(w http.ResponseWriter, r *http.Request) {
	record, err := a.service.DeleteMedicine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": record})
}

func (a *API) handleAddInventoryBatch(w http.ResponseWriter, r *http.Request) {
	var in domain.BatchInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	med, err := a.service.AddInventoryBatch(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"medicine": med})
}

func (a *API) handleRemoveInventoryBatch(w http.ResponseWriter, r *http.Request) {
	if err := a.service.RemoveInventoryBatch(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "batchID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleBeginBatchEdit(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.BeginBatchEdit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleBatchEdit(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.BatchEdit(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleCancelBatchEdit(w http.ResponseWriter, r *http.Request) {
	if err := a.service.CancelBatchEdit(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddEditBatch(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.AddEditBatch(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleEditBatchField(w http.ResponseWriter, r *http.Request) {
	index, ok := batchIndex(w, r)
	if !ok {
		return
	}
	var req domain.BatchFieldEditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.EditBatchField(chi.URLParam(r, "id"), index, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleRemoveEditBatch(w http.ResponseWriter, r *http.Request) {
	index, ok := batchIndex(w, r)
	if !ok {
		return
	}
	view, err := a.service.RemoveEditBatch(chi.URLParam(r, "id"), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleStageBatchEdit(w http.ResponseWriter, r *http.Request) {
	set, err := a.service.StageBatchEdit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staged": set})
}

func batchIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, errors.New("batch index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
