// models/trade.go
package models

import (
	"database/sql/driver"
	"time"
)

type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusAccepted  TradeStatus = "accepted"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusDeclined  TradeStatus = "declined"
)

func (s TradeStatus) Value() (driver.Value, error) { return string(s), nil }

// Trade is an accepted offer between a seller and a buyer on a listing.
type Trade struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	ListingID    string      `gorm:"size:128;index" json:"listing_id"`
	ListingTitle string      `json:"listing_title"`
	SellerID     string      `gorm:"size:128;index;not null" json:"seller_id"`
	BuyerID      string      `gorm:"size:128;index;not null" json:"buyer_id"`
	OfferedCoins int64       `json:"offered_coins" gorm:"default:0"`
	CO2Saved     float64     `json:"co2_saved" gorm:"column:co2_saved;default:0"`
	Status       TradeStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`

	Timestamps
}

// TradeVerification is the QR handshake state for a trade. There is no persisted
// "expired" state: expiry is computed from the code's timestamp at check time.
type TradeVerification struct {
	TradeID    string     `gorm:"primaryKey;size:36" json:"trade_id"`
	BuyerID    string     `gorm:"size:128;not null" json:"buyer_id"`
	Timestamp  int64      `gorm:"not null" json:"timestamp"` // ms since epoch
	Hash       string     `gorm:"size:16;not null" json:"hash"`
	Code       string     `gorm:"type:text;not null" json:"code"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Verified   bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `gorm:"size:128" json:"verified_by,omitempty"`
}
