package models

import "time"

// RewardCategory groups the redemption catalog on the rewards page.
type RewardCategory string

const (
	RewardCategoryVoucher    RewardCategory = "voucher"
	RewardCategoryMerch      RewardCategory = "merch"
	RewardCategoryDonation   RewardCategory = "donation"
	RewardCategoryExperience RewardCategory = "experience"
)

// RewardDefinition is a catalog item users spend coins on.
type RewardDefinition struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Cost        int64          `json:"cost"`
	Category    RewardCategory `json:"category"`
	Available   bool           `json:"available"`
}

// RewardRedemption records that a user bought a reward. Each reward can be redeemed
// once per user.
type RewardRedemption struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:128;not null;uniqueIndex:idx_user_reward" json:"user_id"`
	RewardID   string    `gorm:"size:64;not null;uniqueIndex:idx_user_reward" json:"reward_id"`
	Cost       int64     `gorm:"not null" json:"cost"`
	RedeemedAt time.Time `gorm:"not null" json:"redeemed_at"`
}

var Rewards = []RewardDefinition{
	{ID: "cafe_voucher", Title: "Campus Cafe Voucher", Description: "10% off at the campus cafeteria", Icon: "local_cafe", Cost: 100, Category: RewardCategoryVoucher, Available: true},
	{ID: "tote_bag", Title: "ReLoop Tote Bag", Description: "Eco-friendly canvas tote bag", Icon: "shopping_bag", Cost: 250, Category: RewardCategoryMerch, Available: true},
	{ID: "plant_tree", Title: "Plant a Tree", Description: "We plant a tree in your name", Icon: "park", Cost: 500, Category: RewardCategoryDonation, Available: true},
	{ID: "bookstore_credit", Title: "Campus Bookstore Credit", Description: "$5 credit at the bookstore", Icon: "menu_book", Cost: 200, Category: RewardCategoryVoucher, Available: true},
	{ID: "sticker_pack", Title: "ReLoop Sticker Pack", Description: "Set of 10 eco-themed stickers", Icon: "palette", Cost: 75, Category: RewardCategoryMerch, Available: true},
	{ID: "ocean_cleanup", Title: "Ocean Cleanup Donation", Description: "Donate to ocean cleanup efforts", Icon: "waves", Cost: 300, Category: RewardCategoryDonation, Available: true},
	{ID: "workshop_pass", Title: "Workshop Pass", Description: "Free pass to upcycling workshop", Icon: "handyman", Cost: 400, Category: RewardCategoryExperience, Available: true},
	{ID: "water_bottle", Title: "ReLoop Water Bottle", Description: "Stainless steel eco bottle", Icon: "water_bottle", Cost: 350, Category: RewardCategoryMerch, Available: false},
}

func FindReward(id string) (RewardDefinition, bool) {
	for _, r := range Rewards {
		if r.ID == id {
			return r, true
		}
	}
	return RewardDefinition{}, false
}
