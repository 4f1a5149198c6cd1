package handlers

import (
	"net/http"
	"strings"

	"github.com/cookshare/apiserver/internal/services"
	"github.com/cookshare/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// RecipeHandler provides HTTP handlers for recipes and the directory.
type RecipeHandler struct {
	recipeService    *services.RecipeService
	directoryService *services.DirectoryService
}

// NewRecipeHandler constructs a handler with the provided services.
func NewRecipeHandler(recipeService *services.RecipeService, directoryService *services.DirectoryService) *RecipeHandler {
	return &RecipeHandler{
		recipeService:    recipeService,
		directoryService: directoryService,
	}
}

// RecipeRouter registers recipe routes on the given router. Reads are
// public; writes go through authMiddleware and, when set, writeLimit.
func RecipeRouter(
	r chi.Router,
	recipeService *services.RecipeService,
	directoryService *services.DirectoryService,
	authMiddleware func(http.Handler) http.Handler,
	writeLimit func(http.Handler) http.Handler,
) {
	handler := NewRecipeHandler(recipeService, directoryService)

	write := []func(http.Handler) http.Handler{authMiddleware}
	if writeLimit != nil {
		write = append(write, writeLimit)
	}

	r.Get("/", handler.ListDirectory)
	r.Get("/browse", handler.Browse)
	r.With(write...).Post("/", handler.CreateRecipe)
	r.Route("/{recipeID}", func(r chi.Router) {
		r.Get("/", handler.GetRecipe)
		r.With(write...).Put("/", handler.ReplaceRecipe)
		r.With(write...).Patch("/", handler.UpdateRecipe)
		r.With(write...).Delete("/", handler.DeleteRecipe)
	})
}

// OwnerRecipesRouter registers the per-owner listings.
func OwnerRecipesRouter(r chi.Router, recipeService *services.RecipeService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewRecipeHandler(recipeService, nil)

	r.With(authMiddleware).Get("/me/recipes", handler.ListMyRecipes)
	r.Get("/users/{userID}/recipes", handler.ListUserRecipes)
}

// ListDirectory returns the joined directory narrowed by the search,
// difficulty and category query parameters.
func (h *RecipeHandler) ListDirectory(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, paged, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	entries, err := h.directoryService.ListFiltered(r.Context(), types.DirectoryFilter{
		SearchTerm: query.Get("search"),
		Difficulty: query.Get("difficulty"),
		Category:   query.Get("category"),
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to list recipes")
		return
	}

	resp := DirectoryResponse{Items: entries, Total: len(entries)}
	if paged {
		resp.Items = paginate(entries, offset, limit)
		resp.Page = page
		resp.Limit = limit
	}
	writeJSON(w, http.StatusOK, resp)
}

// Browse runs a server-side filter by title, category or difficulty.
func (h *RecipeHandler) Browse(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	recipes, err := h.recipeService.Browse(r.Context(), services.BrowseQuery{
		Title:      query.Get("title"),
		Category:   types.Category(query.Get("category")),
		Difficulty: types.Difficulty(query.Get("difficulty")),
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to list recipes")
		return
	}
	writeJSON(w, http.StatusOK, RecipeListResponse{Items: recipes, Total: len(recipes)})
}

func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch recipe")
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var input types.RecipeInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.recipeService.Create(r.Context(), callerFromRequest(r), input)
	if err != nil {
		writeServiceError(w, r, err, "failed to create recipe")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ReplaceRecipe overwrites every editable field. The body has the same
// shape as a create request.
func (h *RecipeHandler) ReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input types.RecipeInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	h.update(w, r, id, types.RecipePatch{
		Title:        &input.Title,
		Ingredients:  &input.Ingredients,
		Instructions: &input.Instructions,
		CookingTime:  &input.CookingTime,
		Difficulty:   &input.Difficulty,
		Category:     &input.Category,
	})
}

// UpdateRecipe applies a partial update; absent fields are untouched.
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch types.RecipePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	h.update(w, r, id, patch)
}

func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request, id string, patch types.RecipePatch) {
	updated, err := h.recipeService.Update(r.Context(), callerFromRequest(r), id, patch)
	if err != nil {
		writeServiceError(w, r, err, "failed to update recipe")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.recipeService.Delete(r.Context(), callerFromRequest(r), id); err != nil {
		writeServiceError(w, r, err, "failed to delete recipe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) ListMyRecipes(w http.ResponseWriter, r *http.Request) {
	caller := callerFromRequest(r)
	if !caller.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.listOwned(w, r, caller.UserID)
}

func (h *RecipeHandler) ListUserRecipes(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.listOwned(w, r, userID)
}

func (h *RecipeHandler) listOwned(w http.ResponseWriter, r *http.Request, userID string) {
	recipes, err := h.recipeService.ListByOwner(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list recipes")
		return
	}

	// the client-side filter applies to owner listings too
	filter := types.DirectoryFilter{
		SearchTerm: r.URL.Query().Get("search"),
		Difficulty: r.URL.Query().Get("difficulty"),
		Category:   r.URL.Query().Get("category"),
	}
	if strings.TrimSpace(filter.SearchTerm) != "" || filter.Difficulty != "" || filter.Category != "" {
		recipes = filterRecipes(recipes, filter)
	}

	writeJSON(w, http.StatusOK, RecipeListResponse{Items: recipes, Total: len(recipes)})
}

func filterRecipes(recipes []types.Recipe, filter types.DirectoryFilter) []types.Recipe {
	out := make([]types.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		if services.MatchesFilter(types.DirectoryEntry{Recipe: recipe}, filter) {
			out = append(out, recipe)
		}
	}
	return out
}

// DirectoryResponse is the directory list payload. Page and Limit are set
// only when the client asked for a page.
type DirectoryResponse struct {
	Items []types.DirectoryEntry `json:"items"`
	Page  int                    `json:"page,omitempty"`
	Limit int                    `json:"limit,omitempty"`
	Total int                    `json:"total"`
}

// RecipeListResponse is the payload of listings without profile data.
type RecipeListResponse struct {
	Items []types.Recipe `json:"items"`
	Total int            `json:"total"`
}
