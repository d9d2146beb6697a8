package models

import "time"

// Queue roles. A user waits either for a player slot or a judge slot.
const (
	MatchTypePlayer = "player"
	MatchTypeJudge  = "judge"
)

// QueueEntry is a pending request to be matched. One row per user — joining
// again replaces the previous entry and resets joined_at. Elo is a snapshot
// taken at join time so queue scans never touch the users table.
type QueueEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"uniqueIndex;not null" json:"user_id"`
	Elo       int       `gorm:"not null" json:"elo"`
	MatchType string    `gorm:"type:varchar(16);not null;check:match_type IN ('player','judge')" json:"match_type"`
	JoinedAt  time.Time `gorm:"index;not null" json:"joined_at"`
}
