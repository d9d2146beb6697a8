package models

// StartingElo is the rating every new user begins with, for both pools.
const StartingElo = 1200

// JudgeEloFloor is the hard minimum a judge rating can fall to.
const JudgeEloFloor = 800

// User is a local mirror of an identity-provider account, extended with the
// two rating pools this service owns. Profile fields are populated by the
// profile sync worker; rating fields are only ever written by this service.
type User struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // identity provider's stable id
	Username       string  `gorm:"index;not null" json:"username"`
	AvatarURL      *string `json:"avatar_url,omitempty"`

	// Player rating pool
	Elo          int `json:"elo" gorm:"default:1200"`
	PeakElo      int `json:"peak_elo" gorm:"default:1200"`
	TotalMatches int `json:"total_matches" gorm:"default:0"`
	Wins         int `json:"wins" gorm:"default:0"`
	Losses       int `json:"losses" gorm:"default:0"`

	// Judge rating pool
	JudgeElo           int `json:"judge_elo" gorm:"default:1200"`
	PeakJudgeElo       int `json:"peak_judge_elo" gorm:"default:1200"`
	TotalJudgeMatches  int `json:"total_judge_matches" gorm:"default:0"`
	JudgeAgreements    int `json:"judge_agreements" gorm:"default:0"`
	JudgeDisagreements int `json:"judge_disagreements" gorm:"default:0"`

	Timestamps
}
