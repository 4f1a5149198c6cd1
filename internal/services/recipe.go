package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cookshare/apiserver/internal/store"
	"github.com/cookshare/apiserver/types"
	"github.com/google/uuid"
)

// RecipeRepository defines persistence operations for recipes. UpdateOwned
// and DeleteOwned must check id and owner in the same statement that
// writes, returning store.ErrNotFound when nothing matched.
type RecipeRepository interface {
	Get(ctx context.Context, id string) (types.Recipe, error)
	ListByOwner(ctx context.Context, userID string) ([]types.Recipe, error)
	ListByCategory(ctx context.Context, category types.Category) ([]types.Recipe, error)
	ListByDifficulty(ctx context.Context, difficulty types.Difficulty) ([]types.Recipe, error)
	SearchByTitle(ctx context.Context, term string) ([]types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	UpdateOwned(ctx context.Context, id, ownerID string, patch types.RecipePatch) (types.Recipe, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// EventPublisher receives an event after every successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event types.RecipeEvent) error
}

// RecipeService encapsulates recipe use-cases. Writes are scoped to the
// caller's own recipes; reads are public.
type RecipeService struct {
	repo   RecipeRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewRecipeService constructs a RecipeService. events may be nil.
func NewRecipeService(repo RecipeRepository, events EventPublisher, logger *slog.Logger) *RecipeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns any recipe by id. There is no ownership check.
func (s *RecipeService) Get(ctx context.Context, id string) (types.Recipe, error) {
	return s.repo.Get(ctx, id)
}

// ListByOwner returns the recipes of one account, newest first.
func (s *RecipeService) ListByOwner(ctx context.Context, userID string) ([]types.Recipe, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// BrowseQuery selects a single server-side filter. Exactly one field
// should be set; Title takes precedence, then Category, then Difficulty.
type BrowseQuery struct {
	Title      string
	Category   types.Category
	Difficulty types.Difficulty
}

// Browse runs a server-side filtered listing without profile enrichment.
func (s *RecipeService) Browse(ctx context.Context, q BrowseQuery) ([]types.Recipe, error) {
	switch {
	case strings.TrimSpace(q.Title) != "":
		return s.repo.SearchByTitle(ctx, strings.TrimSpace(q.Title))
	case q.Category != "":
		if !q.Category.Valid() {
			return nil, invalid("category", "is not a known category")
		}
		return s.repo.ListByCategory(ctx, q.Category)
	case q.Difficulty != "":
		if !q.Difficulty.Valid() {
			return nil, invalid("difficulty", "is not a known difficulty")
		}
		return s.repo.ListByDifficulty(ctx, q.Difficulty)
	default:
		return nil, invalid("query", "needs one of title, category or difficulty")
	}
}

// Create stores a new recipe owned by caller. Any owner carried by input is
// discarded.
func (s *RecipeService) Create(ctx context.Context, caller types.CallerIdentity, input types.RecipeInput) (types.Recipe, error) {
	if !caller.Authenticated() {
		return types.Recipe{}, ErrAuthenticationRequired
	}
	if err := validateInput(input); err != nil {
		return types.Recipe{}, err
	}

	created, err := s.repo.Create(ctx, types.Recipe{
		UserID:       caller.UserID,
		Title:        strings.TrimSpace(input.Title),
		Ingredients:  input.Ingredients,
		Instructions: input.Instructions,
		CookingTime:  input.CookingTime,
		Difficulty:   input.Difficulty,
		Category:     input.Category,
	})
	if err != nil {
		return types.Recipe{}, err
	}

	s.publish(ctx, types.EventRecipeCreated, caller, created.ID, &created)
	return created, nil
}

// Update applies patch to a recipe owned by caller. A recipe that does not
// exist and a recipe owned by someone else both yield ErrNotFoundOrForbidden.
func (s *RecipeService) Update(ctx context.Context, caller types.CallerIdentity, id string, patch types.RecipePatch) (types.Recipe, error) {
	if !caller.Authenticated() {
		return types.Recipe{}, ErrAuthenticationRequired
	}
	if err := validatePatch(&patch); err != nil {
		return types.Recipe{}, err
	}

	updated, err := s.repo.UpdateOwned(ctx, id, caller.UserID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Recipe{}, ErrNotFoundOrForbidden
		}
		return types.Recipe{}, err
	}

	if !patch.Empty() {
		s.publish(ctx, types.EventRecipeUpdated, caller, updated.ID, &updated)
	}
	return updated, nil
}

// Delete removes a recipe owned by caller, with the same non-disclosure
// rule as Update.
func (s *RecipeService) Delete(ctx context.Context, caller types.CallerIdentity, id string) error {
	if !caller.Authenticated() {
		return ErrAuthenticationRequired
	}

	if err := s.repo.DeleteOwned(ctx, id, caller.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFoundOrForbidden
		}
		return err
	}

	s.publish(ctx, types.EventRecipeDeleted, caller, id, nil)
	return nil
}

func (s *RecipeService) publish(ctx context.Context, kind types.EventKind, caller types.CallerIdentity, recipeID string, recipe *types.Recipe) {
	if s.events == nil {
		return
	}
	event := types.RecipeEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		RecipeID:   recipeID,
		UserID:     caller.UserID,
		Recipe:     recipe,
		OccurredAt: s.now().UTC(),
	}
	// The write has committed; a client hanging up must not drop its event.
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.ErrorContext(ctx, "publish recipe event failed",
			"kind", kind.String(),
			"recipe_id", recipeID,
			"error", err,
		)
	}
}

// maxCookingTime is the largest value the cooking_time column holds.
const maxCookingTime = math.MaxInt32

func validateInput(input types.RecipeInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return invalid("title", "is required")
	}
	if err := validateText(map[string]string{
		"title":        input.Title,
		"ingredients":  input.Ingredients,
		"instructions": input.Instructions,
	}); err != nil {
		return err
	}
	if err := validateCookingTime(input.CookingTime); err != nil {
		return err
	}
	if !input.Difficulty.Valid() {
		return invalid("difficulty", "is not a known difficulty")
	}
	if !input.Category.Valid() {
		return invalid("category", "is not a known category")
	}
	return nil
}

// validatePatch checks the fields that are present and trims the title in place.
func validatePatch(patch *types.RecipePatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return invalid("title", "is required")
		}
		patch.Title = &title
	}
	text := map[string]string{}
	for field, value := range map[string]*string{
		"title":        patch.Title,
		"ingredients":  patch.Ingredients,
		"instructions": patch.Instructions,
	} {
		if value != nil {
			text[field] = *value
		}
	}
	if err := validateText(text); err != nil {
		return err
	}
	if patch.CookingTime != nil {
		if err := validateCookingTime(*patch.CookingTime); err != nil {
			return err
		}
	}
	if patch.Difficulty != nil && !patch.Difficulty.Valid() {
		return invalid("difficulty", "is not a known difficulty")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return invalid("category", "is not a known category")
	}
	return nil
}

func validateCookingTime(minutes int) error {
	if minutes <= 0 {
		return invalid("cooking_time", "must be a positive number of minutes")
	}
	if minutes > maxCookingTime {
		return invalid("cooking_time", "is too large")
	}
	return nil
}

// validateText rejects NUL bytes, which Postgres text columns cannot store.
func validateText(fields map[string]string) error {
	for field, value := range fields {
		if strings.ContainsRune(value, 0) {
			return invalid(field, "must not contain NUL characters")
		}
	}
	return nil
}
