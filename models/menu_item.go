package models

import "time"

// Category is the closed menu category enum.
type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategorySnacks    Category = "snacks"
	CategoryBeverages Category = "beverages"
	CategoryDesserts  Category = "desserts"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBreakfast, CategoryLunch, CategoryDinner,
		CategorySnacks, CategoryBeverages, CategoryDesserts:
		return true
	}
	return false
}

type MenuItem struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"type:varchar(255);not null" json:"name"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Price       float64  `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    Category `gorm:"type:varchar(20);not null;index" json:"category"`
	Image       string   `gorm:"type:varchar(255);default:'/uploads/default-food.jpg'" json:"image"`
	Ingredients string   `gorm:"type:text" json:"ingredients,omitempty"`

	IsVegetarian bool `gorm:"not null;default:false" json:"is_vegetarian"`
	IsVegan      bool `gorm:"not null;default:false" json:"is_vegan"`
	IsGlutenFree bool `gorm:"not null;default:false" json:"is_gluten_free"`

	// Availability gates purchasability without deleting the item.
	IsAvailable bool `gorm:"not null;default:true;index" json:"is_available"`

	// Preparation time in minutes, used for delivery estimates.
	PreparationTime int `gorm:"not null;default:15" json:"preparation_time"`

	// Running counters, maintained on review submission rather than
	// recomputed from a join.
	Rating      float64 `gorm:"not null;default:0" json:"rating"`
	ReviewCount int     `gorm:"not null;default:0" json:"review_count"`

	CreatedByID uint      `gorm:"not null" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// AverageRating derives the display rating from the running counters.
func (m *MenuItem) AverageRating() float64 {
	if m.ReviewCount == 0 {
		return 0
	}
	return m.Rating / float64(m.ReviewCount)
}
