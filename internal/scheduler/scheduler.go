package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionSweeper deletes sessions that have ended and returns their ids.
type SessionSweeper interface {
	DeleteEndedSessions(ctx context.Context, now time.Time) ([]string, error)
}

// SessionEnder drops the in-memory state of ended sessions.
type SessionEnder interface {
	Discard(sessionIDs ...string)
}

// Scheduler runs periodic housekeeping on a cron.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionSweeper
	ender    SessionEnder
	interval time.Duration
	now      func() time.Time
}

// New creates a scheduler that sweeps ended sessions every interval.
func New(sessions SessionSweeper, ender SessionEnder, interval time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		ender:    ender,
		interval: interval,
		now:      time.Now,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	if s.interval < time.Second {
		return fmt.Errorf("session sweep interval %s is too short", s.interval)
	}
	schedule := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(schedule, s.SweepSessions); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.cron.Start()
	log.Printf("[scheduler] session sweep started (%s interval)", s.interval)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] scheduler stopped")
}

// SweepSessions deletes expired and revoked sessions and discards their
// watchlists.
func (s *Scheduler) SweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ids, err := s.sessions.DeleteEndedSessions(ctx, s.now())
	if err != nil {
		log.Printf("[scheduler] session sweep failed: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	s.ender.Discard(ids...)
	log.Printf("[scheduler] swept %d ended session(s)", len(ids))
}
