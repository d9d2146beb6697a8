package models

import "time"

// RatingTier is the closed seven-tier quality scale judges rate messages on.
type RatingTier string

const (
	TierBrilliant RatingTier = "brilliant"
	TierGreat     RatingTier = "great"
	TierExcellent RatingTier = "excellent"
	TierGood      RatingTier = "good"
	TierMiss      RatingTier = "miss"
	TierMistake   RatingTier = "mistake"
	TierBlunder   RatingTier = "blunder"
)

// tierRank orders tiers best (highest) to worst (lowest).
var tierRank = map[RatingTier]int{
	TierBrilliant: 7,
	TierGreat:     6,
	TierExcellent: 5,
	TierGood:      4,
	TierMiss:      3,
	TierMistake:   2,
	TierBlunder:   1,
}

// AllTiers lists the tiers best-first.
var AllTiers = []RatingTier{
	TierBrilliant, TierGreat, TierExcellent, TierGood,
	TierMiss, TierMistake, TierBlunder,
}

// Valid reports whether t is one of the seven tiers.
func (t RatingTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Compare returns a negative value when t ranks below other, zero when
// equal, positive when above.
func (t RatingTier) Compare(other RatingTier) int {
	return tierRank[t] - tierRank[other]
}

// JudgeRating is one judge's verdict on one message. At most one row per
// (message, judge) pair.
type JudgeRating struct {
	ID          string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MessageID   string     `gorm:"uniqueIndex:idx_message_judge;not null" json:"message_id"`
	JudgeID     string     `gorm:"uniqueIndex:idx_message_judge;not null" json:"judge_id"`
	Rating      RatingTier `gorm:"type:varchar(16);not null" json:"rating"`
	Explanation *string    `gorm:"type:text" json:"explanation,omitempty"`
	RatedAt     time.Time  `gorm:"not null" json:"rated_at"`
}
