package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cookshare/apiserver/internal/services"
	"github.com/cookshare/apiserver/internal/store"
	"github.com/cookshare/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
	maxBodyBytes = 1 << 20
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func userIDFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok {
		return "", errors.New("missing subject")
	}
	id, err := uuid.Parse(strings.TrimSpace(subject))
	if err != nil {
		return "", errors.New("invalid subject")
	}
	return id.String(), nil
}

// callerFromRequest returns the authenticated caller, or the anonymous
// identity when the request carries none.
func callerFromRequest(r *http.Request) types.CallerIdentity {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return types.CallerIdentity{}
	}
	return types.CallerIdentity{UserID: userID}
}

// CallerKey keys rate limits by the authenticated caller.
func CallerKey(r *http.Request) string {
	return callerFromRequest(r).UserID
}

func parseUUIDParam(r *http.Request, name string) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return "", errors.New("invalid " + strings.TrimSuffix(name, "ID") + " id")
	}
	return id.String(), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// parsePagination reads page and limit. paged is false when the client
// asked for neither, in which case the whole collection is returned.
func parsePagination(r *http.Request) (page, limit, offset int, paged bool, err error) {
	page = defaultPage
	limit = defaultLimit

	rawPage := strings.TrimSpace(r.URL.Query().Get("page"))
	rawLimit := strings.TrimSpace(r.URL.Query().Get("limit"))
	if rawLimit == "" {
		rawLimit = strings.TrimSpace(r.URL.Query().Get("per_page"))
	}
	if rawPage == "" && rawLimit == "" {
		return 0, 0, 0, false, nil
	}

	if rawPage != "" {
		page, err = strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return 0, 0, 0, false, errors.New("invalid page")
		}
	}
	if rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			return 0, 0, 0, false, errors.New("invalid limit")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, true, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service and store errors to HTTP statuses.
// Anything unrecognised is logged and reported as fallback with a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, services.ErrAuthenticationRequired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrNotFoundOrForbidden):
		writeError(w, http.StatusNotFound, services.ErrNotFoundOrForbidden.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, "invalid value")
	case errors.Is(err, services.ErrAlreadyExists), errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	default:
		slog.ErrorContext(r.Context(), fallback, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
