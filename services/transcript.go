package services

import (
	"encoding/json"
	"fmt"
	"time"

	"message-duel-system/models"
	"message-duel-system/utils"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TranscriptArchiver uploads a JSON transcript of a finished match to R2 and
// stores the public URL on the match row. Strictly best-effort: the match
// result never depends on it, and it is disabled entirely when R2 is not
// configured.
type TranscriptArchiver struct{}

func NewTranscriptArchiver() *TranscriptArchiver {
	return &TranscriptArchiver{}
}

func (a *TranscriptArchiver) Enabled() bool {
	return utils.R2Enabled()
}

type transcriptMessage struct {
	Sender  string               `json:"sender"`
	Content string               `json:"content"`
	SentAt  time.Time            `json:"sent_at"`
	Ratings []models.JudgeRating `json:"ratings,omitempty"`
}

type transcript struct {
	MatchID    string              `json:"match_id"`
	Player1    string              `json:"player1"`
	Player2    string              `json:"player2,omitempty"`
	Judge1     string              `json:"judge1,omitempty"`
	Judge2     string              `json:"judge2,omitempty"`
	Status     string              `json:"status"`
	Outcome    string              `json:"outcome"`
	Winner     string              `json:"winner,omitempty"`
	Score      [2]int              `json:"score"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	EndedAt    *time.Time          `json:"ended_at,omitempty"`
	Messages   []transcriptMessage `json:"messages"`
	ArchivedAt time.Time           `json:"archived_at"`
}

// Archive builds and uploads the transcript for a finished match.
func (a *TranscriptArchiver) Archive(db *gorm.DB, matchID string) error {
	var match models.Match
	if err := db.Where("id = ?", matchID).First(&match).Error; err != nil {
		return fmt.Errorf("load match: %w", err)
	}
	if !match.Terminal() {
		return fmt.Errorf("match %s is not finished", matchID)
	}

	names, err := usernamesFor(db, &match)
	if err != nil {
		return err
	}

	var messages []models.Message
	if err := db.Preload("Ratings").
		Where("match_id = ?", matchID).
		Order("sent_at ASC").
		Find(&messages).Error; err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	doc := transcript{
		MatchID:    match.ID,
		Player1:    names[match.Player1ID],
		Status:     match.Status,
		Outcome:    match.Outcome,
		Score:      [2]int{match.Player1Score, match.Player2Score},
		StartedAt:  match.StartedAt,
		EndedAt:    match.EndedAt,
		ArchivedAt: time.Now(),
	}
	if match.Player2ID != nil {
		doc.Player2 = names[*match.Player2ID]
	}
	if match.Judge1ID != nil {
		doc.Judge1 = names[*match.Judge1ID]
	}
	if match.Judge2ID != nil {
		doc.Judge2 = names[*match.Judge2ID]
	}
	if match.WinnerID != nil {
		doc.Winner = names[*match.WinnerID]
	}
	for _, m := range messages {
		doc.Messages = append(doc.Messages, transcriptMessage{
			Sender:  names[m.UserID],
			Content: m.Content,
			SentAt:  m.SentAt,
			Ratings: m.Ratings,
		})
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	key := transcriptKey(&match, doc.Player1, doc.Player2)
	url, err := utils.UploadBytesToR2(body, key, "application/json")
	if err != nil {
		return err
	}

	return db.Model(&models.Match{}).
		Where("id = ?", match.ID).
		Update("transcript_url", url).Error
}

// transcriptKey builds a stable, readable object key, e.g.
// transcripts/2026-08-24/alice-vs-bob-1a2b3c4d.json
func transcriptKey(match *models.Match, player1, player2 string) string {
	day := time.Now().UTC().Format("2006-01-02")
	if match.EndedAt != nil {
		day = match.EndedAt.UTC().Format("2006-01-02")
	}
	short := match.ID
	if len(short) > 8 {
		short = short[:8]
	}
	vs := slug.Make(player1)
	if player2 != "" {
		vs = slug.Make(player1 + "-vs-" + player2)
	}
	return fmt.Sprintf("transcripts/%s/%s-%s.json", day, vs, short)
}

// usernamesFor maps every participant id to a username.
func usernamesFor(db *gorm.DB, match *models.Match) (map[string]string, error) {
	ids := []string{match.Player1ID}
	for _, ref := range []*string{match.Player2ID, match.Judge1ID, match.Judge2ID} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
