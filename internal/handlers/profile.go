package handlers

import (
	"net/http"

	"github.com/cookshare/apiserver/internal/services"
	"github.com/cookshare/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ProfileHandler serves public profiles and the caller's own profile.
type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// ProfileRouter registers profile routes on the given router.
func ProfileRouter(r chi.Router, profileService *services.ProfileService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewProfileHandler(profileService)

	r.Get("/profiles/{profileID}", handler.GetProfile)
	r.With(authMiddleware).Get("/profile", handler.GetOwnProfile)
	r.With(authMiddleware).Patch("/profile", handler.UpdateOwnProfile)
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "profileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profileService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetOwn(r.Context(), callerFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateOwnProfile(w http.ResponseWriter, r *http.Request) {
	var patch types.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	profile, err := h.profileService.UpdateOwn(r.Context(), callerFromRequest(r), patch)
	if err != nil {
		writeServiceError(w, r, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
