package models

// ShoppingListLine is one (name, unit) group with its summed amount.
type ShoppingListLine struct {
	Name            string `json:"name" gorm:"column:name"`
	MeasurementUnit string `json:"measurement_unit" gorm:"column:measurement_unit"`
	Amount          int64  `json:"amount" gorm:"column:amount"`
}

// All tables managed by AutoMigrate, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Subscription{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartEntry{},
	}
}
