package model

import "time"

// DealStatus deal workflow status
type DealStatus string

const (
	// DealStatusPending buyer requested, waiting for seller
	DealStatusPending DealStatus = "pending"
	// DealStatusAccepted seller accepted, waiting for payment
	DealStatusAccepted DealStatus = "accepted"
	// DealStatusPaymentSent buyer submitted the gift card code
	DealStatusPaymentSent DealStatus = "payment_sent"
	// DealStatusCompleted deal completed successfully
	DealStatusCompleted DealStatus = "completed"
	// DealStatusRejected seller rejected
	DealStatusRejected DealStatus = "rejected"
	// DealStatusCancelled buyer (or a ban) cancelled
	DealStatusCancelled DealStatus = "cancelled"
	// DealStatusDisputed issue raised with the deal
	DealStatusDisputed DealStatus = "disputed"
)

// AllDealStatuses every defined status value
var AllDealStatuses = []DealStatus{
	DealStatusPending,
	DealStatusAccepted,
	DealStatusPaymentSent,
	DealStatusCompleted,
	DealStatusRejected,
	DealStatusCancelled,
	DealStatusDisputed,
}

// ActiveDealStatuses statuses a deal can still move out of through the
// normal workflow
var ActiveDealStatuses = []DealStatus{
	DealStatusPending,
	DealStatusAccepted,
	DealStatusPaymentSent,
}

// Valid reports whether s is one of the defined statuses
func (s DealStatus) Valid() bool {
	for _, known := range AllDealStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s DealStatus) IsTerminal() bool {
	switch s {
	case DealStatusCompleted, DealStatusRejected, DealStatusCancelled:
		return true
	}
	return false
}

// Deal a buyer/seller negotiation over one product
type Deal struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DealNo        string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"deal_no"`
	BuyerID       uint64     `gorm:"type:bigint unsigned;not null;index" json:"buyer_id"`
	ProductID     uint64     `gorm:"type:bigint unsigned;not null;index" json:"product_id"`
	Status        DealStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SteamCardCode *string    `gorm:"type:varchar(64)" json:"steam_card_code,omitempty"`
	CreatedAt     time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`
	CompletedAt   *time.Time `gorm:"type:timestamp" json:"completed_at,omitempty"`

	Buyer   *User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName set name
func (Deal) TableName() string {
	return "deals"
}

// IsActive check if the deal is still in the normal workflow
func (d *Deal) IsActive() bool {
	for _, s := range ActiveDealStatuses {
		if d.Status == s {
			return true
		}
	}
	return false
}
