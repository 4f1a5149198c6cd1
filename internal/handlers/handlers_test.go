package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cookshare/apiserver/internal/services"
	"github.com/cookshare/apiserver/internal/store"
	"github.com/cookshare/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// memoryDB backs every repository interface the handlers need.
type memoryDB struct {
	mu       sync.Mutex
	accounts map[string]types.Account
	profiles map[string]types.Profile
	recipes  []types.Recipe

	// profileErr fails every single-profile lookup when set.
	profileErr error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		accounts: map[string]types.Account{},
		profiles: map[string]types.Profile{},
	}
}

type accountRepo struct{ *memoryDB }

func (m accountRepo) GetByID(_ context.Context, id string) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (m accountRepo) GetByEmail(_ context.Context, email string) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if strings.EqualFold(account.Email, email) {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (m accountRepo) CreateWithProfile(_ context.Context, account types.Account, profile types.Profile) (types.Account, types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return types.Account{}, types.Profile{}, store.ErrConflict
		}
	}
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now()
	profile.ID = account.ID
	m.accounts[account.ID] = account
	m.profiles[profile.ID] = profile
	return account, profile, nil
}

type profileRepo struct{ *memoryDB }

func (m profileRepo) GetByID(_ context.Context, id string) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileErr != nil {
		return types.Profile{}, m.profileErr
	}
	profile, ok := m.profiles[id]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	return profile, nil
}

func (m profileRepo) Update(_ context.Context, id string, patch types.ProfilePatch) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	if patch.FullName != nil {
		profile.FullName = patch.FullName
	}
	if patch.Bio != nil {
		profile.Bio = patch.Bio
	}
	m.profiles[id] = profile
	return profile, nil
}

func (m profileRepo) GetSummaries(_ context.Context, ids []string) ([]types.ProfileSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.ProfileSummary{}
	for _, id := range ids {
		if profile, ok := m.profiles[id]; ok {
			out = append(out, profile.Summary())
		}
	}
	return out, nil
}

type recipeRepo struct{ *memoryDB }

func (m recipeRepo) newest(keep func(types.Recipe) bool) []types.Recipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Recipe{}
	for i := len(m.recipes) - 1; i >= 0; i-- {
		if keep(m.recipes[i]) {
			out = append(out, m.recipes[i])
		}
	}
	return out
}

func (m recipeRepo) ListNewestFirst(context.Context) ([]types.Recipe, error) {
	return m.newest(func(types.Recipe) bool { return true }), nil
}

func (m recipeRepo) ListByOwner(_ context.Context, userID string) ([]types.Recipe, error) {
	return m.newest(func(r types.Recipe) bool { return r.UserID == userID }), nil
}

func (m recipeRepo) ListByCategory(_ context.Context, c types.Category) ([]types.Recipe, error) {
	return m.newest(func(r types.Recipe) bool { return r.Category == c }), nil
}

func (m recipeRepo) ListByDifficulty(_ context.Context, d types.Difficulty) ([]types.Recipe, error) {
	return m.newest(func(r types.Recipe) bool { return r.Difficulty == d }), nil
}

func (m recipeRepo) SearchByTitle(_ context.Context, term string) ([]types.Recipe, error) {
	term = strings.ToLower(term)
	return m.newest(func(r types.Recipe) bool { return strings.Contains(strings.ToLower(r.Title), term) }), nil
}

func (m recipeRepo) Get(_ context.Context, id string) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recipe := range m.recipes {
		if recipe.ID == id {
			return recipe, nil
		}
	}
	return types.Recipe{}, store.ErrNotFound
}

func (m recipeRepo) Create(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipe.ID = uuid.NewString()
	recipe.CreatedAt = time.Now()
	m.recipes = append(m.recipes, recipe)
	return recipe, nil
}

func (m recipeRepo) UpdateOwned(_ context.Context, id, ownerID string, patch types.RecipePatch) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recipes {
		recipe := &m.recipes[i]
		if recipe.ID != id || recipe.UserID != ownerID {
			continue
		}
		if patch.Title != nil {
			recipe.Title = *patch.Title
		}
		if patch.Ingredients != nil {
			recipe.Ingredients = *patch.Ingredients
		}
		if patch.Instructions != nil {
			recipe.Instructions = *patch.Instructions
		}
		if patch.CookingTime != nil {
			recipe.CookingTime = *patch.CookingTime
		}
		if patch.Difficulty != nil {
			recipe.Difficulty = *patch.Difficulty
		}
		if patch.Category != nil {
			recipe.Category = *patch.Category
		}
		return *recipe, nil
	}
	return types.Recipe{}, store.ErrNotFound
}

func (m recipeRepo) DeleteOwned(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, recipe := range m.recipes {
		if recipe.ID == id && recipe.UserID == ownerID {
			m.recipes = append(m.recipes[:i], m.recipes[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWith(t, newMemoryDB())
}

func newTestRouterWith(t *testing.T, mem *memoryDB) http.Handler {
	t.Helper()

	accountService := services.NewAccountService(accountRepo{mem})
	profileService := services.NewProfileService(profileRepo{mem})
	recipeService := services.NewRecipeService(recipeRepo{mem}, nil, nil)
	directoryService := services.NewDirectoryService(recipeRepo{mem}, profileRepo{mem}, nil)
	auth := RequireAuth(testSecret)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, accountService, profileService, testSecret, nil)
	})
	router.Route("/recipes", func(r chi.Router) {
		RecipeRouter(r, recipeService, directoryService, auth, nil)
	})
	OwnerRecipesRouter(router, recipeService, auth)
	ProfileRouter(router, profileService, auth)
	return router
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func signUp(t *testing.T, h http.Handler, username string) AuthResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/signup", "", SignUpRequest{
		Email:    username + "@example.com",
		Password: "secret123",
		Username: username,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[AuthResponse](t, rec)
}

func pancakes() map[string]any {
	return map[string]any{
		"title":        "Pancakes",
		"ingredients":  "flour\nmilk",
		"instructions": "mix\nfry",
		"cooking_time": 15,
		"difficulty":   "Easy",
		"category":     "Desserts",
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	h := newTestRouter(t)
	created := signUp(t, h, "ana")
	assert.NotEmpty(t, created.Token)
	require.NotNil(t, created.Profile)
	assert.Equal(t, created.Account.ID, created.Profile.ID)
	assert.NotContains(t, do(t, h, http.MethodGet, "/auth/me", created.Token, nil).Body.String(), "password")

	rec := do(t, h, http.MethodPost, "/auth/signup", "", SignUpRequest{Email: "ana@example.com", Password: "secret123", Username: "ana2"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login", "", LoginRequest{Email: "ana@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[AuthResponse](t, rec)

	rec = do(t, h, http.MethodGet, "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[MeResponse](t, rec)
	assert.Equal(t, created.Account.ID, me.Account.ID)
	require.NotNil(t, me.Profile)
	assert.Equal(t, "ana", me.Profile.Username)

	rec = do(t, h, http.MethodPost, "/auth/login", "", LoginRequest{Email: "ana@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUpValidationIsBadRequest(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/auth/signup", "", SignUpRequest{Email: "x", Password: "secret123", Username: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestSignUpPasswordOverBcryptLimitIsBadRequest(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/auth/signup", "", SignUpRequest{
		Email:    "ana@example.com",
		Password: strings.Repeat("p", 80),
		Username: "ana",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")
}

func TestMeWithoutProfileRow(t *testing.T) {
	mem := newMemoryDB()
	h := newTestRouterWith(t, mem)
	ana := signUp(t, h, "ana")

	mem.mu.Lock()
	delete(mem.profiles, ana.Account.ID)
	mem.mu.Unlock()

	rec := do(t, h, http.MethodGet, "/auth/me", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[MeResponse](t, rec)
	assert.Equal(t, ana.Account.ID, me.Account.ID)
	assert.Nil(t, me.Profile)
}

func TestMeProfileLookupFailure(t *testing.T) {
	mem := newMemoryDB()
	h := newTestRouterWith(t, mem)
	ana := signUp(t, h, "ana")

	mem.mu.Lock()
	mem.profileErr = errors.New("connection reset by peer")
	mem.mu.Unlock()

	rec := do(t, h, http.MethodGet, "/auth/me", ana.Token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestRecipeLifecycle(t *testing.T) {
	h := newTestRouter(t)
	ana := signUp(t, h, "ana")
	bob := signUp(t, h, "bob")

	body := pancakes()
	body["userid"] = bob.Account.ID
	rec := do(t, h, http.MethodPost, "/recipes", ana.Token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[types.Recipe](t, rec)
	assert.Equal(t, ana.Account.ID, created.UserID, "supplied owner is ignored")

	path := "/recipes/" + created.ID

	rec = do(t, h, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPatch, path, bob.Token, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	missing := do(t, h, http.MethodPatch, "/recipes/"+uuid.NewString(), bob.Token, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, missing.Body.String(), rec.Body.String(), "foreign and missing recipes look the same")

	rec = do(t, h, http.MethodPatch, path, ana.Token, map[string]any{"title": "Fluffy Pancakes"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fluffy Pancakes", decode[types.Recipe](t, rec).Title)

	replacement := pancakes()
	replacement["cooking_time"] = 25
	replacement["difficulty"] = "Medium"
	rec = do(t, h, http.MethodPut, path, ana.Token, replacement)
	require.Equal(t, http.StatusOK, rec.Code)
	replaced := decode[types.Recipe](t, rec)
	assert.Equal(t, "Pancakes", replaced.Title)
	assert.Equal(t, 25, replaced.CookingTime)

	rec = do(t, h, http.MethodPatch, path, ana.Token, map[string]any{"cooking_time": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, path, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, path, ana.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeWritesRequireToken(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/recipes", "", pancakes())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodDelete, "/recipes/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidRecipeID(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/recipes/42", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid recipe id"}`, rec.Body.String())
}

func TestDirectoryListing(t *testing.T) {
	h := newTestRouter(t)
	ana := signUp(t, h, "ana")

	for _, title := range []string{"Tomato Soup", "Chocolate Cake", "Iced Tea"} {
		body := pancakes()
		body["title"] = title
		if title == "Chocolate Cake" {
			body["difficulty"] = "Hard"
		}
		rec := do(t, h, http.MethodPost, "/recipes", ana.Token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/recipes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[DirectoryResponse](t, rec)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, "Iced Tea", all.Items[0].Title, "newest first")
	require.NotNil(t, all.Items[0].Profile)
	assert.Equal(t, "ana", all.Items[0].Profile.Username)

	rec = do(t, h, http.MethodGet, "/recipes?search=CAKE&difficulty=All&category=All", "", nil)
	filtered := decode[DirectoryResponse](t, rec)
	require.Equal(t, 1, filtered.Total)
	assert.Equal(t, "Chocolate Cake", filtered.Items[0].Title)

	rec = do(t, h, http.MethodGet, "/recipes?difficulty=Easy&limit=1&page=2", "", nil)
	paged := decode[DirectoryResponse](t, rec)
	assert.Equal(t, 2, paged.Total)
	assert.Equal(t, 2, paged.Page)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, "Tomato Soup", paged.Items[0].Title)

	rec = do(t, h, http.MethodGet, "/recipes/browse?title=soup", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[RecipeListResponse](t, rec).Total)

	rec = do(t, h, http.MethodGet, "/recipes/browse", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/me/recipes?difficulty=Hard", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[RecipeListResponse](t, rec).Total)

	rec = do(t, h, http.MethodGet, "/users/"+ana.Account.ID+"/recipes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[RecipeListResponse](t, rec).Total)
}

func TestProfileEndpoints(t *testing.T) {
	h := newTestRouter(t)
	ana := signUp(t, h, "ana")

	rec := do(t, h, http.MethodPatch, "/profile", ana.Token, map[string]any{"bio": "home cook"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[types.Profile](t, rec)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "home cook", *updated.Bio)

	rec = do(t, h, http.MethodGet, "/profiles/"+ana.Account.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", decode[types.Profile](t, rec).Username)

	rec = do(t, h, http.MethodGet, "/profiles/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	_, _, _, paged, err := parsePagination(req)
	require.NoError(t, err)
	assert.False(t, paged)

	req = httptest.NewRequest(http.MethodGet, "/recipes?page=3&per_page=500", nil)
	page, limit, offset, paged, err := parsePagination(req)
	require.NoError(t, err)
	assert.True(t, paged)
	assert.Equal(t, 3, page)
	assert.Equal(t, maxLimit, limit)
	assert.Equal(t, 200, offset)

	req = httptest.NewRequest(http.MethodGet, "/recipes?page=0", nil)
	_, _, _, _, err = parsePagination(req)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := bearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Basic abc")
	_, err = bearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "bearer  abc ")
	token, err := bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestTokenRoundTrip(t *testing.T) {
	id := uuid.NewString()
	token, err := issueToken(id, []byte(testSecret), time.Minute)
	require.NoError(t, err)

	subject, err := parseTokenSubject(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, id, subject)

	_, err = parseTokenSubject(token, []byte("other-secret"))
	assert.Error(t, err)
}
