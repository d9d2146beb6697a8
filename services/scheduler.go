package services

import (
	"log"
	"time"

	"message-duel-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartExpirySweeper closes abandoned matches. Expiry is checked lazily on
// every touch anyway; the sweeper only keeps matches nobody polls from
// lingering as active forever.
func (s *MatchService) StartExpirySweeper() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 30s: close active matches whose clock ran out
	_, _ = sched.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(func() {
			var expired []models.Match
			err := s.DB.
				Where("status = ? AND started_at + make_interval(secs => time_limit) <= ?",
					models.MatchStatusActive, time.Now()).
				Find(&expired).Error
			if err != nil {
				log.Printf("[Sweeper] DB error: %v", err)
				return
			}

			for _, m := range expired {
				if err := s.CloseIfExpired(m.ID); err != nil {
					log.Printf("[Sweeper] Failed to close match %s: %v", m.ID, err)
				}
			}
		}),
	)
}
