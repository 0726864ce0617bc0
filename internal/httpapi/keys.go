package httpapi

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/registry"
)

type registerKeyPayload struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	Category  string   `json:"category,omitempty"`
	Variables []string `json:"variables,omitempty"`
	Plural    bool     `json:"plural,omitempty"`
}

type keyListResponse struct {
	Keys  []*catalog.Key `json:"keys"`
	Total int            `json:"total"`
}

func (api *API) handleKeysList(w http.ResponseWriter, r *http.Request) {
	if api.registry == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "registry service not configured"})
		return
	}

	req := registry.ListKeysRequest{
		Namespace: strings.TrimSpace(r.URL.Query().Get("namespace")),
		Category:  strings.TrimSpace(r.URL.Query().Get("category")),
		Limit:     parseIntQuery(r.URL.Query().Get("limit"), 0),
		Offset:    parseIntQuery(r.URL.Query().Get("offset"), 0),
	}
	if raw := r.URL.Query().Get("active"); strings.TrimSpace(raw) != "" {
		active := parseBoolQuery(raw, true)
		req.Active = &active
	}

	keys, total, err := api.registry.ListKeys(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keyListResponse{Keys: keys, Total: total})
}

func (api *API) handleKeyRegister(w http.ResponseWriter, r *http.Request) {
	if api.registry == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "registry service not configured"})
		return
	}
	identity, ok := api.requireIdentity(w, r)
	if !ok {
		return
	}

	var payload registerKeyPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}

	key, err := api.registry.RegisterKey(r.Context(), registry.RegisterKeyRequest{
		Identity:  identity,
		Name:      payload.Name,
		Namespace: payload.Namespace,
		Category:  payload.Category,
		Variables: payload.Variables,
		Plural:    payload.Plural,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

// handleKeyDeactivate retires a key. Rows and history survive; the key stops
// accepting new drafts and drops out of fresh snapshots.
func (api *API) handleKeyDeactivate(w http.ResponseWriter, r *http.Request) {
	if api.registry == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "registry service not configured"})
		return
	}
	identity, ok := api.requireIdentity(w, r)
	if !ok {
		return
	}

	key, err := api.registry.DeactivateKey(r.Context(), r.PathValue("name"), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (api *API) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if api.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "history service not configured"})
		return
	}

	limit := parseIntQuery(r.URL.Query().Get("limit"), 0)
	entries, err := api.history.List(r.Context(), r.PathValue("key"), r.PathValue("locale"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
