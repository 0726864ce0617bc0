package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/interpolate"
	"github.com/goliatone/go-translations/internal/query"
	"github.com/goliatone/go-translations/internal/registry"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/internal/validation"
	"github.com/goliatone/go-translations/internal/workflow"
	"github.com/google/uuid"
)

// Identity assertion headers. The host authenticates the user and forwards
// the verified identity on every editorial request.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// IdentityResolver extracts the acting identity from a request. Returning an
// error rejects the request with 401.
type IdentityResolver func(r *http.Request) (catalog.Identity, error)

var (
	errIdentityMissing = errors.New("httpapi: identity headers missing")
	errIdentityInvalid = errors.New("httpapi: identity headers invalid")
)

// HeaderIdentity resolves the identity from X-User-ID and X-User-Role.
func HeaderIdentity(r *http.Request) (catalog.Identity, error) {
	if r == nil {
		return catalog.Identity{}, errIdentityMissing
	}
	rawID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	rawRole := strings.TrimSpace(r.Header.Get(HeaderUserRole))
	if rawID == "" || rawRole == "" {
		return catalog.Identity{}, errIdentityMissing
	}
	userID, err := uuid.Parse(rawID)
	if err != nil || userID == uuid.Nil {
		return catalog.Identity{}, errIdentityInvalid
	}
	role := catalog.Role(strings.ToLower(rawRole))
	if !role.Valid() {
		return catalog.Identity{}, errIdentityInvalid
	}
	return catalog.Identity{UserID: userID, Role: role}, nil
}

type conflictState struct {
	Version int64          `json:"version"`
	Status  catalog.Status `json:"status"`
}

type errorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message,omitempty"`
	Issues  []validation.ValidationIssue `json:"issues,omitempty"`
	Current *conflictState               `json:"current,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return ""
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if errors.Is(err, errIdentityMissing) || errors.Is(err, errIdentityInvalid) ||
		errors.Is(err, store.ErrIdentityRequired) || errors.Is(err, registry.ErrActorRequired) {
		return http.StatusUnauthorized, errorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		}
	}

	if errors.Is(err, workflow.ErrSelfApproval) {
		return http.StatusForbidden, errorResponse{
			Error:   "self_approval_denied",
			Message: err.Error(),
		}
	}

	if errors.Is(err, workflow.ErrRoleDenied) {
		return http.StatusForbidden, errorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		}
	}

	var storeNotFound *store.NotFoundError
	if errors.As(err, &storeNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: storeNotFound.Error(),
		}
	}

	var registryNotFound *registry.NotFoundError
	if errors.As(err, &registryNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: registryNotFound.Error(),
		}
	}

	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict, errorResponse{
			Error:   "version_conflict",
			Message: conflict.Error(),
			Current: &conflictState{Version: conflict.Actual, Status: conflict.Status},
		}
	}

	if errors.Is(err, registry.ErrDuplicateKey) {
		return http.StatusConflict, errorResponse{
			Error:   "duplicate_key",
			Message: err.Error(),
		}
	}

	if errors.Is(err, store.ErrConcurrentModification) {
		return http.StatusConflict, errorResponse{
			Error:   "version_conflict",
			Message: err.Error(),
		}
	}

	if errors.Is(err, store.ErrLockedForReview) ||
		errors.Is(err, store.ErrNotEditable) ||
		errors.Is(err, workflow.ErrInvalidTransition) {
		return http.StatusConflict, errorResponse{
			Error:   "invalid_transition",
			Message: err.Error(),
		}
	}

	if errors.Is(err, workflow.ErrChangeReasonRequired) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "change_reason_required",
			Message: err.Error(),
		}
	}

	if errors.Is(err, validation.ErrSchemaInvalid) || errors.Is(err, validation.ErrSchemaValidation) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  validation.Issues(err),
		}
	}

	var undeclared *interpolate.UndeclaredError
	var unresolved *interpolate.UnresolvedError
	if errors.As(err, &undeclared) || errors.As(err, &unresolved) ||
		errors.Is(err, validation.ErrValueTooLarge) ||
		errors.Is(err, validation.ErrTooManyVariables) ||
		errors.Is(err, store.ErrKeyInactive) ||
		errors.Is(err, store.ErrLocaleDisabled) ||
		errors.Is(err, store.ErrPluralNotAllowed) ||
		errors.Is(err, store.ErrRollbackVersionInvalid) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		}
	}

	if errors.Is(err, validation.ErrKeyNameInvalid) ||
		errors.Is(err, validation.ErrLocaleInvalid) ||
		errors.Is(err, validation.ErrVariableInvalid) ||
		errors.Is(err, store.ErrValueRequired) ||
		errors.Is(err, query.ErrKeyRequired) ||
		errors.Is(err, query.ErrCountRequired) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, err
	}
	return parsed, nil
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseIntQuery(value string, defaultValue int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// requireIdentity resolves the acting identity or writes 401 and returns false.
func (api *API) requireIdentity(w http.ResponseWriter, r *http.Request) (catalog.Identity, bool) {
	identity, err := api.identity(r)
	if err != nil {
		writeError(w, err)
		return catalog.Identity{}, false
	}
	if identity.Zero() {
		writeError(w, errIdentityMissing)
		return catalog.Identity{}, false
	}
	return identity, true
}
