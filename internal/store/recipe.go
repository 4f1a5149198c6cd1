package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cookshare/apiserver/types"
)

const recipeColumns = `id, user_id, title, ingredients, instructions, cooking_time, difficulty, category, created_at`

// RecipeRepository handles persistence for recipes.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// ListNewestFirst returns every recipe ordered by creation time, newest first.
func (r *RecipeRepository) ListNewestFirst(ctx context.Context) ([]types.Recipe, error) {
	return r.list(ctx, "", nil)
}

func (r *RecipeRepository) ListByOwner(ctx context.Context, userID string) ([]types.Recipe, error) {
	return r.list(ctx, "WHERE user_id = $1", []any{userID})
}

func (r *RecipeRepository) ListByCategory(ctx context.Context, category types.Category) ([]types.Recipe, error) {
	return r.list(ctx, "WHERE category = $1", []any{string(category)})
}

func (r *RecipeRepository) ListByDifficulty(ctx context.Context, difficulty types.Difficulty) ([]types.Recipe, error) {
	return r.list(ctx, "WHERE difficulty = $1", []any{string(difficulty)})
}

// SearchByTitle performs a case-insensitive partial match on the title.
func (r *RecipeRepository) SearchByTitle(ctx context.Context, term string) ([]types.Recipe, error) {
	return r.list(ctx, `WHERE title ILIKE '%' || $1 || '%' ESCAPE '\'`, []any{escapeLike(term)})
}

func (r *RecipeRepository) list(ctx context.Context, where string, args []any) ([]types.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, listQuery(where), args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	recipes := make([]types.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recipes, nil
}

// listQuery orders newest first. id breaks ties between rows created in
// the same transaction so repeated listings agree.
func listQuery(where string) string {
	return `SELECT ` + recipeColumns + ` FROM recipes ` + where + ` ORDER BY created_at DESC, id DESC`
}

func (r *RecipeRepository) Get(ctx context.Context, id string) (types.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Recipe{}, translateError(err)
	}
	return recipe, nil
}

// Create inserts the recipe and returns the stored row with its
// database-assigned id and creation timestamp.
func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	query := `
		INSERT INTO recipes (user_id, title, ingredients, instructions, cooking_time, difficulty, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + recipeColumns
	created, err := scanRecipe(r.db.QueryRowContext(
		ctx,
		query,
		recipe.UserID,
		recipe.Title,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.CookingTime,
		string(recipe.Difficulty),
		string(recipe.Category),
	))
	if err != nil {
		return types.Recipe{}, translateError(err)
	}
	return created, nil
}

// UpdateOwned applies patch to the recipe only when it is owned by ownerID.
// Ownership and existence are checked by the same statement that writes,
// so a row that is missing and a row owned by someone else both yield
// ErrNotFound.
func (r *RecipeRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch types.RecipePatch) (types.Recipe, error) {
	query := `
		UPDATE recipes
		SET title = COALESCE($3, title),
			ingredients = COALESCE($4, ingredients),
			instructions = COALESCE($5, instructions),
			cooking_time = COALESCE($6, cooking_time),
			difficulty = COALESCE($7, difficulty),
			category = COALESCE($8, category)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + recipeColumns
	updated, err := scanRecipe(r.db.QueryRowContext(
		ctx,
		query,
		id,
		ownerID,
		patch.Title,
		patch.Ingredients,
		patch.Instructions,
		patch.CookingTime,
		nullableString(patch.Difficulty),
		nullableString(patch.Category),
	))
	if err != nil {
		return types.Recipe{}, translateError(err)
	}
	return updated, nil
}

// DeleteOwned removes the recipe only when it is owned by ownerID.
func (r *RecipeRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM recipes WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (types.Recipe, error) {
	var recipe types.Recipe
	var difficulty, category string
	if err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.Ingredients,
		&recipe.Instructions,
		&recipe.CookingTime,
		&difficulty,
		&category,
		&recipe.CreatedAt,
	); err != nil {
		return types.Recipe{}, err
	}
	recipe.Difficulty = types.Difficulty(difficulty)
	recipe.Category = types.Category(category)
	return recipe, nil
}

func nullableString[T ~string](value *T) any {
	if value == nil {
		return nil
	}
	return string(*value)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
