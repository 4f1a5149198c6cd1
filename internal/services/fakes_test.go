package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cookshare/apiserver/internal/store"
	"github.com/cookshare/apiserver/types"
)

var errTransport = errors.New("connection refused")

// memoryRecipes is an in-memory RecipeRepository. Recipes are kept in
// insertion order; listings reverse it to get newest first.
type memoryRecipes struct {
	mu      sync.Mutex
	recipes []types.Recipe
	nextID  int
	calls   int
	err     error
}

func (m *memoryRecipes) seed(recipes ...types.Recipe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes = append(m.recipes, recipes...)
}

func (m *memoryRecipes) find(id string) (int, bool) {
	for i, recipe := range m.recipes {
		if recipe.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (m *memoryRecipes) newest(keep func(types.Recipe) bool) ([]types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := []types.Recipe{}
	for i := len(m.recipes) - 1; i >= 0; i-- {
		if keep(m.recipes[i]) {
			out = append(out, m.recipes[i])
		}
	}
	return out, nil
}

func (m *memoryRecipes) ListNewestFirst(ctx context.Context) ([]types.Recipe, error) {
	return m.newest(func(types.Recipe) bool { return true })
}

func (m *memoryRecipes) ListByOwner(ctx context.Context, userID string) ([]types.Recipe, error) {
	return m.newest(func(r types.Recipe) bool { return r.UserID == userID })
}

func (m *memoryRecipes) ListByCategory(ctx context.Context, category types.Category) ([]types.Recipe, error) {
	return m.newest(func(r types.Recipe) bool { return r.Category == category })
}

func (m *memoryRecipes) ListByDifficulty(ctx context.Context, difficulty types.Difficulty) ([]types.Recipe, error) {
	return m.newest(func(r types.Recipe) bool { return r.Difficulty == difficulty })
}

func (m *memoryRecipes) SearchByTitle(ctx context.Context, term string) ([]types.Recipe, error) {
	term = strings.ToLower(term)
	return m.newest(func(r types.Recipe) bool { return strings.Contains(strings.ToLower(r.Title), term) })
}

func (m *memoryRecipes) Get(ctx context.Context, id string) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return types.Recipe{}, m.err
	}
	i, ok := m.find(id)
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	return m.recipes[i], nil
}

func (m *memoryRecipes) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return types.Recipe{}, m.err
	}
	m.nextID++
	recipe.ID = fmt.Sprintf("recipe-%d", m.nextID)
	recipe.CreatedAt = time.Date(2026, 1, 1, 0, m.nextID, 0, 0, time.UTC)
	m.recipes = append(m.recipes, recipe)
	return recipe, nil
}

func (m *memoryRecipes) UpdateOwned(ctx context.Context, id, ownerID string, patch types.RecipePatch) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return types.Recipe{}, m.err
	}
	i, ok := m.find(id)
	if !ok || m.recipes[i].UserID != ownerID {
		return types.Recipe{}, store.ErrNotFound
	}
	recipe := &m.recipes[i]
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

func (m *memoryRecipes) DeleteOwned(ctx context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	i, ok := m.find(id)
	if !ok || m.recipes[i].UserID != ownerID {
		return store.ErrNotFound
	}
	m.recipes = append(m.recipes[:i], m.recipes[i+1:]...)
	return nil
}

type stubProfiles struct {
	summaries []types.ProfileSummary
	err       error
	calls     int
	gotIDs    []string
}

func (s *stubProfiles) GetSummaries(ctx context.Context, ids []string) ([]types.ProfileSummary, error) {
	s.calls++
	s.gotIDs = ids
	if s.err != nil {
		return nil, s.err
	}
	return s.summaries, nil
}

type recordingEvents struct {
	events  []types.RecipeEvent
	ctxErrs []error
	err     error
}

func (r *recordingEvents) Publish(ctx context.Context, event types.RecipeEvent) error {
	r.events = append(r.events, event)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

func recipe(id, owner, title string, difficulty types.Difficulty, category types.Category) types.Recipe {
	return types.Recipe{
		ID:          id,
		UserID:      owner,
		Title:       title,
		CookingTime: 30,
		Difficulty:  difficulty,
		Category:    category,
	}
}

func ptr[T any](v T) *T {
	return &v
}
