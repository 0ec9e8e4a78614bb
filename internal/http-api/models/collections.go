package models

import "time"

type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  int64     `json:"recipe_id" gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ShoppingCartEntry puts a recipe into a user's cart for shopping-list generation.
type ShoppingCartEntry struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  int64     `json:"recipe_id" gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (ShoppingCartEntry) TableName() string {
	return "shopping_cart_entries"
}
