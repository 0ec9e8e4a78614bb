package dto

import "foodgram/internal/http-api/models"

type TagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

func FromTag(t models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

type IngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func FromIngredient(i models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}
