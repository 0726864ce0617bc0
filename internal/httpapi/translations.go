package httpapi

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/query"
	"github.com/goliatone/go-translations/internal/store"
)

type upsertDraftPayload struct {
	Key             string            `json:"key"`
	Locale          string            `json:"locale"`
	Value           string            `json:"value,omitempty"`
	Plural          map[string]string `json:"plural,omitempty"`
	ExpectedVersion int64             `json:"expected_version,omitempty"`
}

type transitionPayload struct {
	Action          string `json:"action"`
	ExpectedVersion int64  `json:"expected_version,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

type rollbackPayload struct {
	ToVersion int64  `json:"to_version"`
	Reason    string `json:"reason,omitempty"`
}

// handleTranslationsGet serves the published map for a locale. Namespace and
// keys filters narrow the response; the version field is the snapshot token.
func (api *API) handleTranslationsGet(w http.ResponseWriter, r *http.Request) {
	if api.queries == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "query service not configured"})
		return
	}

	req := query.Request{
		Locale:    r.PathValue("locale"),
		Namespace: strings.TrimSpace(r.URL.Query().Get("namespace")),
		Keys:      splitCSV(r.URL.Query().Get("keys")),
	}

	result, err := api.queries.GetTranslations(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTranslationCurrent serves the current row regardless of status, the
// editor view. Published reads go through handleTranslationsGet.
func (api *API) handleTranslationCurrent(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "store service not configured"})
		return
	}

	row, err := api.store.GetCurrent(r.Context(), r.PathValue("key"), r.PathValue("locale"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (api *API) handleUpsertDraft(w http.ResponseWriter, r *http.Request) {
	if api.mutations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "mutation service not configured"})
		return
	}
	identity, ok := api.requireIdentity(w, r)
	if !ok {
		return
	}

	var payload upsertDraftPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}

	row, err := api.mutations.UpsertDraft(r.Context(), store.UpsertDraftRequest{
		Identity:        identity,
		KeyName:         payload.Key,
		Locale:          payload.Locale,
		Value:           payload.Value,
		Plural:          payload.Plural,
		ExpectedVersion: payload.ExpectedVersion,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if row.Version == 1 {
		status = http.StatusCreated
	}
	writeJSON(w, status, row)
}

func (api *API) handleTransition(w http.ResponseWriter, r *http.Request) {
	if api.mutations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "mutation service not configured"})
		return
	}
	identity, ok := api.requireIdentity(w, r)
	if !ok {
		return
	}

	rowID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid translation id"})
		return
	}

	var payload transitionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}

	action := catalog.Action(strings.ToLower(strings.TrimSpace(payload.Action)))
	if !action.Valid() || action == catalog.ActionUpsert || action == catalog.ActionRollback {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "action must be submit, approve, publish, or deprecate"})
		return
	}

	row, err := api.mutations.Transition(r.Context(), store.TransitionRequest{
		Identity:        identity,
		ID:              rowID,
		Action:          action,
		ExpectedVersion: payload.ExpectedVersion,
		Reason:          payload.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (api *API) handleRollback(w http.ResponseWriter, r *http.Request) {
	if api.mutations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "mutation service not configured"})
		return
	}
	identity, ok := api.requireIdentity(w, r)
	if !ok {
		return
	}

	var payload rollbackPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}
	if payload.ToVersion <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "to_version must be positive"})
		return
	}

	row, err := api.mutations.Rollback(r.Context(), store.RollbackRequest{
		Identity:  identity,
		KeyName:   r.PathValue("key"),
		Locale:    r.PathValue("locale"),
		ToVersion: payload.ToVersion,
		Reason:    payload.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
