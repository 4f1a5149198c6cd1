package types

import "time"

// FilterAll disables the difficulty or category condition of a DirectoryFilter.
const FilterAll = "All"

// Difficulty is the preparation difficulty of a recipe.
type Difficulty string

// Supported difficulty values.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists every valid difficulty in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the supported difficulties.
func (d Difficulty) Valid() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// Category groups recipes by course.
type Category string

// Supported category values.
const (
	CategoryMainDishes Category = "Main Dishes"
	CategoryDesserts   Category = "Desserts"
	CategoryStarters   Category = "Starters"
	CategorySalads     Category = "Salads"
	CategoryBeverages  Category = "Beverages"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryMainDishes,
	CategoryDesserts,
	CategoryStarters,
	CategorySalads,
	CategoryBeverages,
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Recipe is a cooking recipe shared by an account.
type Recipe struct {
	// ID is generated by the database on insert.
	ID string `json:"id" db:"id"`

	// UserID is the owning account. It is set once at creation to the
	// authenticated caller and never changes afterwards.
	UserID string `json:"userid" db:"user_id"`

	// Title is the non-empty display name.
	Title string `json:"title" db:"title"`

	// Ingredients is free text, one ingredient per line.
	Ingredients string `json:"ingredients" db:"ingredients"`

	// Instructions is free text, one step per line.
	Instructions string `json:"instructions" db:"instructions"`

	// CookingTime is expressed in minutes and is always positive.
	CookingTime int `json:"cooking_time" db:"cooking_time"`

	Difficulty Difficulty `json:"difficulty" db:"difficulty"`
	Category   Category   `json:"category" db:"category"`

	// CreatedAt is assigned by the database on insert.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RecipeInput is the payload accepted when creating a recipe. UserID is
// accepted on the wire but always replaced with the caller's identity.
type RecipeInput struct {
	UserID       string     `json:"userid,omitempty"`
	Title        string     `json:"title"`
	Ingredients  string     `json:"ingredients"`
	Instructions string     `json:"instructions"`
	CookingTime  int        `json:"cooking_time"`
	Difficulty   Difficulty `json:"difficulty"`
	Category     Category   `json:"category"`
}

// RecipePatch carries a partial update. Nil fields are left untouched.
// Ownership never changes, so there is no owner field.
type RecipePatch struct {
	Title        *string     `json:"title,omitempty"`
	Ingredients  *string     `json:"ingredients,omitempty"`
	Instructions *string     `json:"instructions,omitempty"`
	CookingTime  *int        `json:"cooking_time,omitempty"`
	Difficulty   *Difficulty `json:"difficulty,omitempty"`
	Category     *Category   `json:"category,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p RecipePatch) Empty() bool {
	return p.Title == nil &&
		p.Ingredients == nil &&
		p.Instructions == nil &&
		p.CookingTime == nil &&
		p.Difficulty == nil &&
		p.Category == nil
}

// DirectoryEntry is a recipe joined with its owner's profile. Profile is nil
// when the owner has no profile row or the profile lookup failed.
type DirectoryEntry struct {
	Recipe
	Profile *ProfileSummary `json:"profiles"`
}

// DirectoryFilter narrows a directory listing. Empty SearchTerm and the
// FilterAll sentinel disable their respective conditions.
type DirectoryFilter struct {
	SearchTerm string `json:"search_term"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
}
