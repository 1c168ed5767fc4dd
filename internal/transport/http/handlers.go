package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssdl-lang/ssdlc/internal/port"
)

type Handler struct {
	svc port.Compile
	hub *Hub
}

func NewHandler(svc port.Compile, hub *Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

func (h *Handler) CompileDescriptor(w http.ResponseWriter, r *http.Request) {
	var req port.CompileRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	resp, err := h.svc.Compile(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ObserveCompile(resp.State, resp.Diagnostics, time.Since(start))
	h.hub.BroadcastCompile(req.Name, resp)

	// Fatals still answer 200: the compile itself worked, the verdict is
	// the payload.
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ValidateDescriptor(w http.ResponseWriter, r *http.Request) {
	var req port.ValidateRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.svc.Validate(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type descriptorSummary struct {
	Name        string    `json:"name"`
	Hash        string    `json:"hash"`
	State       string    `json:"state"`
	FailedStage string    `json:"failedStage,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *Handler) ListDescriptors(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)

	items, err := h.svc.ListDescriptors(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]descriptorSummary, 0, len(items))
	for _, rec := range items {
		out = append(out, descriptorSummary{
			Name:        rec.Name,
			Hash:        rec.Hash,
			State:       rec.State,
			FailedStage: rec.FailedStage,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetDescriptor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rec, err := h.svc.GetDescriptor(r.Context(), name)
	if err != nil {
		writeError(w, statusForLookup(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		descriptorSummary
		Source      string `json:"source"`
		Diagnostics any    `json:"diagnostics,omitempty"`
	}{
		descriptorSummary: descriptorSummary{
			Name:        rec.Name,
			Hash:        rec.Hash,
			State:       rec.State,
			FailedStage: rec.FailedStage,
			UpdatedAt:   rec.UpdatedAt,
		},
		Source:      string(rec.Source),
		Diagnostics: rawOrNil(rec.Diagnostics),
	})
}

func (h *Handler) GetDescriptorIR(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rec, err := h.svc.GetDescriptor(r.Context(), name)
	if err != nil {
		writeError(w, statusForLookup(err), err.Error())
		return
	}
	if len(rec.IR) == 0 {
		writeError(w, http.StatusConflict, "descriptor has no emitted IR")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.IR)
}

func (h *Handler) DeleteDescriptor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.svc.DeleteDescriptor(r.Context(), name); err != nil {
		writeError(w, statusForLookup(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func rawOrNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
