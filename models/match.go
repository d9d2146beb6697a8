package models

import "time"

// Match status values. waiting and active are the only non-terminal states.
const (
	MatchStatusWaiting   = "waiting"
	MatchStatusActive    = "active"
	MatchStatusCompleted = "completed"
	MatchStatusForfeit   = "forfeit"
)

// Match outcome values. A match ends "win" with WinnerID set, or "draw"
// (time expiry with no verdict). "pending" means still in play.
const (
	OutcomePending = "pending"
	OutcomeDraw    = "draw"
	OutcomeWin     = "win"
)

// DefaultTimeLimitSec is the wall-clock budget for a match, measured from
// started_at.
const DefaultTimeLimitSec = 300

// Match is one duel: two players exchanging messages under a shared clock,
// two judges rating each message. Player2/judges are nil until the matcher
// assembles the full quartet; status is active only once all four are set
// and started_at is stamped. CurrentTurn is always one of the two player ids
// while active.
type Match struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Player1ID string  `gorm:"index;not null" json:"player1_id"`
	Player2ID *string `gorm:"index" json:"player2_id,omitempty"`
	Judge1ID  *string `gorm:"index" json:"judge1_id,omitempty"`
	Judge2ID  *string `gorm:"index" json:"judge2_id,omitempty"`

	Status      string  `gorm:"type:varchar(16);not null;default:'waiting';index" json:"status"`
	CurrentTurn *string `json:"current_turn,omitempty"`

	Outcome      string  `gorm:"type:varchar(16);not null;default:'pending'" json:"outcome"`
	WinnerID     *string `json:"winner_id,omitempty"`
	Player1Score int     `json:"player1_score" gorm:"default:0"` // 0-10
	Player2Score int     `json:"player2_score" gorm:"default:0"` // 0-10

	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	TimeLimit     int        `json:"time_limit" gorm:"default:300"` // seconds
	TranscriptURL *string    `json:"transcript_url,omitempty"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:MatchID"`

	Timestamps
}

// HasPlayer reports whether userID plays in this match.
func (m *Match) HasPlayer(userID string) bool {
	return m.Player1ID == userID || (m.Player2ID != nil && *m.Player2ID == userID)
}

// HasJudge reports whether userID judges this match.
func (m *Match) HasJudge(userID string) bool {
	return (m.Judge1ID != nil && *m.Judge1ID == userID) ||
		(m.Judge2ID != nil && *m.Judge2ID == userID)
}

// Terminal reports whether the match can never change again.
func (m *Match) Terminal() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusForfeit
}

// Deadline returns the instant the match clock runs out, or false when the
// match has not started.
func (m *Match) Deadline() (time.Time, bool) {
	if m.StartedAt == nil {
		return time.Time{}, false
	}
	return m.StartedAt.Add(time.Duration(m.TimeLimit) * time.Second), true
}

// Expired reports whether the time limit has passed at now.
func (m *Match) Expired(now time.Time) bool {
	deadline, ok := m.Deadline()
	return ok && now.After(deadline)
}
