package services

import "errors"

// Validation, authorization and state failures. Messages are shown to users as-is.
var (
	ErrProfileNotFound     = errors.New("User not found")
	ErrMissionNotFound     = errors.New("Mission not found")
	ErrMissionNotCompleted = errors.New("Mission not completed")
	ErrRewardClaimed       = errors.New("Reward already claimed")
	ErrInvalidIncrement    = errors.New("increment must be positive")
	ErrInvalidSortField    = errors.New("unsupported leaderboard field")
	ErrInvalidActivity     = errors.New("unknown activity kind")
	ErrMissionAutoTracked  = errors.New("Mission progress is tracked automatically")

	ErrInvalidCodeFormat = errors.New("Invalid QR code format")
	ErrHashMismatch      = errors.New("Invalid QR code - hash mismatch")
	ErrCodeExpired       = errors.New("QR code has expired")
	ErrTradeNotFound     = errors.New("Trade not found")
	ErrNotTradeSeller    = errors.New("You are not the seller of this trade")
	ErrBuyerMismatch     = errors.New("Buyer ID mismatch")
	ErrInvalidTradeParty = errors.New("trade and buyer ids must be non-empty and must not contain ':'")
	ErrTradeNotVerified  = errors.New("Trade has not been verified")
	ErrTradeClosed       = errors.New("Trade is already closed")
	ErrCodeSuperseded    = errors.New("QR code has been replaced by a newer one")
	ErrInsufficientCoins = errors.New("Not enough coins")

	ErrRewardNotFound    = errors.New("Reward not found")
	ErrRewardUnavailable = errors.New("Reward is not available")
	ErrRewardRedeemed    = errors.New("Reward already redeemed")

	ErrInvalidImage = errors.New("image is required")
)

var domainErrors = []error{
	ErrProfileNotFound, ErrMissionNotFound, ErrMissionNotCompleted, ErrRewardClaimed,
	ErrInvalidIncrement, ErrInvalidSortField, ErrInvalidActivity, ErrMissionAutoTracked,
	ErrInvalidCodeFormat, ErrHashMismatch, ErrCodeExpired, ErrTradeNotFound,
	ErrNotTradeSeller, ErrBuyerMismatch, ErrInvalidTradeParty, ErrTradeNotVerified,
	ErrTradeClosed, ErrCodeSuperseded, ErrInsufficientCoins,
	ErrRewardNotFound, ErrRewardUnavailable, ErrRewardRedeemed, ErrInvalidImage,
}

// isDomainError reports whether err is an expected failure rather than a store error.
func isDomainError(err error) bool {
	for _, e := range domainErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
