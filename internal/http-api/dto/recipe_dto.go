package dto

import (
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/service"
)

// RecipeIngredientRequest: one ingredient id with its amount
type RecipeIngredientRequest struct {
	ID     int64 `json:"id" binding:"required,min=1"`
	Amount int   `json:"amount" binding:"required,min=1"`
}

// RecipeRequest is used for both POST /api/recipes and PATCH /api/recipes/:id.
type RecipeRequest struct {
	Ingredients []RecipeIngredientRequest `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []int64                   `json:"tags" binding:"required,min=1"`
	Name        string                    `json:"name" binding:"required,max=200"`
	Text        string                    `json:"text" binding:"required"`
	CookingTime int                       `json:"cooking_time" binding:"required,min=1,max=32000"`
}

func (r RecipeRequest) ToModel() *models.Recipe {
	recipe := &models.Recipe{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Tags:        make([]models.Tag, 0, len(r.Tags)),
		Ingredients: make([]models.RecipeIngredient, 0, len(r.Ingredients)),
	}
	for _, id := range r.Tags {
		recipe.Tags = append(recipe.Tags, models.Tag{ID: id})
	}
	for _, it := range r.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: it.ID,
			Amount:       it.Amount,
		})
	}
	return recipe
}

type RecipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           *UserResponse              `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// FromRecipeDetail converts a recipe with the viewer's marks.
func FromRecipeDetail(d service.RecipeDetail) RecipeResponse {
	r := d.Recipe
	resp := RecipeResponse{
		ID:               r.ID,
		Tags:             make([]TagResponse, 0, len(r.Tags)),
		Ingredients:      make([]RecipeIngredientResponse, 0, len(r.Ingredients)),
		IsFavorited:      d.IsFavorited,
		IsInShoppingCart: d.IsInShoppingCart,
		Name:             r.Name,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
	if r.Author != nil {
		author := FromUser(r.Author, d.AuthorSubscribed)
		resp.Author = &author
	}
	for _, t := range r.Tags {
		resp.Tags = append(resp.Tags, FromTag(t))
	}
	for _, it := range r.Ingredients {
		line := RecipeIngredientResponse{ID: it.IngredientID, Amount: it.Amount}
		if it.Ingredient != nil {
			line.Name = it.Ingredient.Name
			line.MeasurementUnit = it.Ingredient.MeasurementUnit
		}
		resp.Ingredients = append(resp.Ingredients, line)
	}
	return resp
}

// RecipeShortResponse is returned by the favorite and shopping cart endpoints.
type RecipeShortResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CookingTime int    `json:"cooking_time"`
}

func FromRecipeShort(r *models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{ID: r.ID, Name: r.Name, CookingTime: r.CookingTime}
}

type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}
