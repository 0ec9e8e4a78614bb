package models

import "time"

const (
	MinCookingTime = 1
	MaxCookingTime = 32000
)

type Recipe struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID    string    `json:"author_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null"`
	ShortCode   *string   `json:"short_code,omitempty" gorm:"uniqueIndex;size:16"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	// associations
	Author      *User              `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Tags        []Tag              `json:"tags,omitempty" gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `json:"ingredients,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient is the amount of one ingredient used by one recipe.
type RecipeIngredient struct {
	ID           int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipeID     int64 `json:"recipe_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID int64 `json:"ingredient_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Amount       int   `json:"amount" gorm:"not null;check:chk_amount_positive,amount >= 1"`

	Ingredient *Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
