package model

import "time"

// Category product category model
type Category struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	NameRU        string    `gorm:"type:varchar(100);not null" json:"name_ru"`
	NameEN        string    `gorm:"type:varchar(100);not null" json:"name_en"`
	DescriptionRU *string   `gorm:"type:text" json:"description_ru,omitempty"`
	DescriptionEN *string   `gorm:"type:text" json:"description_en,omitempty"`
	Icon          *string   `gorm:"type:varchar(255)" json:"icon,omitempty"`
	CreatedAt     time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName set name
func (Category) TableName() string {
	return "categories"
}
