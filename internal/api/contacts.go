package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// SearchRequest is the body of POST /api/contacts/search. The filter is
// embedded so criteria sit at the top level next to the paging fields.
type SearchRequest struct {
	contact.Filter
	Page int                   `json:"page"`
	Size int                   `json:"size"`
	Sort []contact.SortRequest `json:"sort,omitempty"`
}

// CreateContact handles POST /api/contacts.
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var in contact.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.contacts.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// GetContact handles GET /api/contacts/{id}.
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.contacts.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// UpdateContact handles PUT /api/contacts/{id}. The body is a partial
// change-set; absent fields keep their stored values.
func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields contact.UpdateFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.contacts.Update(r.Context(), id, fields)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteContact handles DELETE /api/contacts/{id}. Deleting an absent id
// still returns 204.
func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.contacts.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchContacts handles POST /api/contacts/search.
func (h *Handlers) SearchContacts(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	page, err := h.contacts.Search(r.Context(), req.Filter, query.PageRequest{Page: req.Page, Size: req.Size}, req.Sort)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}
