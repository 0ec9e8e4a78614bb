package models

type Tag struct {
	ID    int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name" gorm:"uniqueIndex;size:200;not null"`
	Color string `json:"color" gorm:"size:7"`
	Slug  string `json:"slug" gorm:"uniqueIndex;size:200;not null"`
}

func (Tag) TableName() string {
	return "tags"
}

// Ingredient rows are identified by id, but aggregation treats rows with the
// same (Name, MeasurementUnit) as one line item.
type Ingredient struct {
	ID              int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string `json:"name" gorm:"size:128;not null;index"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:64;not null"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
