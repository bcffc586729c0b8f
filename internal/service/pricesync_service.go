package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// defaultSyncSchedule runs shortly after midnight UTC, once the previous
// day's closes are published.
const defaultSyncSchedule = "15 0 * * *"

// PriceSyncService schedules the daily price refresh.
type PriceSyncService struct {
	priceService *PriceService
	schedule     string
	scheduler    *cron.Cron
}

// NewPriceSyncService creates a scheduler for the given cron schedule, or
// the default daily schedule when empty.
func NewPriceSyncService(priceService *PriceService, schedule string) *PriceSyncService {
	if schedule == "" {
		schedule = defaultSyncSchedule
	}
	return &PriceSyncService{
		priceService: priceService,
		schedule:     schedule,
	}
}

// Start begins the scheduled refresh. The first refresh runs on schedule,
// not immediately; use RunOnce for an immediate sync.
func (s *PriceSyncService) Start() error {
	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.schedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.scheduler.Start()
	log.Printf("Price sync scheduled: %s", s.schedule)
	return nil
}

// RunOnce performs a single refresh, logging the outcome.
func (s *PriceSyncService) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.priceService.RefreshPrices(ctx); err != nil {
		log.Printf("Price sync failed: %v", err)
		return
	}
	log.Printf("Price sync completed in %s", time.Since(start).Round(time.Millisecond))
}

// Stop halts the scheduler, waiting for a running refresh to finish.
func (s *PriceSyncService) Stop() {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
}
