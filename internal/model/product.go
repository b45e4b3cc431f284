package model

import "time"

// Product digital goods model. Prices are stored in minor units (cents/kopecks).
type Product struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID    uint64    `gorm:"type:bigint unsigned;not null;index" json:"category_id"`
	TitleRU       string    `gorm:"type:varchar(200);not null" json:"title_ru"`
	TitleEN       string    `gorm:"type:varchar(200);not null" json:"title_en"`
	DescriptionRU string    `gorm:"type:text;not null" json:"description_ru"`
	DescriptionEN string    `gorm:"type:text;not null" json:"description_en"`
	Price         int64     `gorm:"type:bigint;not null" json:"price"`
	Currency      string    `gorm:"type:varchar(8);not null;default:'RUB'" json:"currency"`
	ImageURL      *string   `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	DownloadLink  *string   `gorm:"type:varchar(500)" json:"-"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	StockQuantity int       `gorm:"type:int;not null;default:999" json:"stock_quantity"`
	CreatedAt     time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName set name
func (Product) TableName() string {
	return "products"
}

// Title returns the title for a language
func (p *Product) Title(lang string) string {
	if lang == "en" {
		return p.TitleEN
	}
	return p.TitleRU
}
