package handler

import (
	"net/http"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
)

// RegisterCount is one product's counts in a daily register submission
type RegisterCount struct {
	Initial  int `json:"initial"`
	Received int `json:"received"`
	Outflow  int `json:"outflow"`
}

// SubmitRegisterRequest maps product ids to their counts
type SubmitRegisterRequest struct {
	Entries map[int64]RegisterCount `json:"entries"`
}

// UpdateRegisterRequest edits a stored register row
type UpdateRegisterRequest struct {
	StockInitial  int `json:"stock_initial"`
	StockReceived int `json:"stock_received"`
	StockFinal    int `json:"stock_final"`
}

// ListRegister lists register rows, optionally filtered by ?date=YYYY-MM-DD
func (h *StockHandler) ListRegister(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate("date", r.URL.Query().Get("date"), h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rows, err := h.service.ListDailyRegister(r.Context(), date)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, rows)
}

// SubmitRegister stores today's register and overwrites product quantities
func (h *StockHandler) SubmitRegister(w http.ResponseWriter, r *http.Request) {
	var req SubmitRegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if len(req.Entries) == 0 {
		httputil.Error(w, errors.BadRequest("entries must not be empty"))
		return
	}

	entries := make(map[int64]service.RegisterInput, len(req.Entries))
	for productID, c := range req.Entries {
		entries[productID] = service.RegisterInput{Initial: c.Initial, Received: c.Received, Outflow: c.Outflow}
	}

	rows, err := h.service.SubmitDailyRegister(r.Context(), entries)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, rows)
}

// UpdateRegister edits a register row
func (h *StockHandler) UpdateRegister(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateRegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.UpdateRegisterEntry(r.Context(), id, req.StockInitial, req.StockReceived, req.StockFinal); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "register entry updated")
}

// DeleteRegister deletes a register row
func (h *StockHandler) DeleteRegister(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteRegisterEntry(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "register entry deleted")
}
