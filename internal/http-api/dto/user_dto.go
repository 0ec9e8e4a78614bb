package dto

import "foodgram/internal/http-api/models"

type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func FromUser(u *models.User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// SubscriptionResponse is a followed author with a preview of their recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

func NewSubscriptionResponse(author *models.User, recipes []models.Recipe, count int64) SubscriptionResponse {
	short := make([]RecipeShortResponse, 0, len(recipes))
	for i := range recipes {
		short = append(short, FromRecipeShort(&recipes[i]))
	}
	return SubscriptionResponse{
		UserResponse: FromUser(author, true),
		Recipes:      short,
		RecipesCount: count,
	}
}
