package models

import "time"

// MaxMessageLength caps accepted message content, measured after trimming.
const MaxMessageLength = 2000

// Message is one tactical message inside a match. ConsensusAt is stamped
// the moment both judges have rated it and the judge-ELO adjustment has
// fired; a stamped message never fires again.
type Message struct {
	ID          string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MatchID     string     `gorm:"index;not null" json:"match_id"`
	UserID      string     `gorm:"index;not null" json:"user_id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	SentAt      time.Time  `gorm:"index;not null" json:"sent_at"`
	ConsensusAt *time.Time `json:"consensus_at,omitempty"`

	Ratings []JudgeRating `json:"ratings,omitempty" gorm:"foreignKey:MessageID"`
}
