package monitoring

import (
	"github.com/pvdmeer/babbel/internal/auth"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SessionSweeper purges expired sessions on a fixed schedule. Logout destroys
// a session immediately; the sweeper only reclaims sessions that were simply
// abandoned.
type SessionSweeper struct {
	sessions *auth.SessionStore
	cron     *cron.Cron
}

// NewSessionSweeper creates a new sweeper for the given store.
func NewSessionSweeper(sessions *auth.SessionStore) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		cron:     cron.New(),
	}
}

// Run starts the sweep schedule. It returns immediately; the cron runner has
// its own goroutine.
func (s *SessionSweeper) Run() {
	log.Info().Msg("Starting session sweeper")
	_, err := s.cron.AddFunc("*/10 * * * *", s.sweep)
	if err != nil {
		log.Error().Err(err).Msg("Failed to schedule session sweep")
		return
	}
	s.cron.Start()
}

// Stop halts the sweep schedule.
func (s *SessionSweeper) Stop() {
	s.cron.Stop()
	log.Info().Msg("Stopped session sweeper")
}

func (s *SessionSweeper) sweep() {
	if removed := s.sessions.PurgeExpired(); removed > 0 {
		log.Info().Int("removed", removed).Msg("Purged expired sessions")
	}
}
