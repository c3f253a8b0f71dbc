package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic maintenance jobs: the daily memory rollup and
// the hourly event-ledger cleanup.
type Scheduler struct {
	cron      *cron.Cron
	rollupFn  func() error
	cleanupFn func() error
}

func New(rollupFn, cleanupFn func() error) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		rollupFn:  rollupFn,
		cleanupFn: cleanupFn,
	}
}

func (s *Scheduler) Start() error {
	if s.rollupFn != nil {
		_, err := s.cron.AddFunc("0 0 * * *", func() {
			log.Println("🕛 running daily memory rollup")
			if err := s.rollupFn(); err != nil {
				log.Printf("❌ memory rollup failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}
	if s.cleanupFn != nil {
		_, err := s.cron.AddFunc("0 * * * *", func() {
			if err := s.cleanupFn(); err != nil {
				log.Printf("❌ ledger cleanup failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Println("📅 scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Println("📅 scheduler stopped")
}
