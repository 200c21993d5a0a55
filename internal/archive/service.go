// Package archive exports each finished month of the schedule to XLSX and
// prunes days past the retention window.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clinicgrid/internal/export"
	"clinicgrid/internal/model"
)

// Config holds configuration for the archive service.
type Config struct {
	// Dir receives one workbook per month.
	Dir string

	// RetentionDays is how many days of schedule to keep. Zero keeps everything.
	RetentionDays int

	// ExportOnStart runs the previous month's export immediately.
	ExportOnStart bool
}

// Source reads what goes into a workbook.
type Source interface {
	GetSchedule(ctx context.Context, from, to string) (model.MultiDayScheduleData, error)
	ListStatuses(ctx context.Context) ([]model.PatientStatus, error)
}

// Cleaner deletes schedule days before a date key.
type Cleaner interface {
	DeleteScheduleBefore(ctx context.Context, date string) (int64, error)
}

// Service handles monthly exports and schedule cleanup.
type Service struct {
	config  Config
	source  Source
	cleaner Cleaner
	logger  *zerolog.Logger
	now     func() time.Time
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewService creates an archive service. cleaner may be nil.
func NewService(config Config, source Source, cleaner Cleaner, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		config:  config,
		source:  source,
		cleaner: cleaner,
		logger:  logger,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the monthly scheduler.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.config.ExportOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.RunExportAndCleanup(context.Background())
		}()
	}

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().Str("dir", s.config.Dir).Int("retention_days", s.config.RetentionDays).Msg("archive service started")
}

// Stop waits for a running export to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("archive service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	nextRun := nextFirstOfMonth(s.now())
	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()
	s.logger.Info().Time("next_run", nextRun).Msg("next archive scheduled")

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
			s.RunExportAndCleanup(context.Background())

			nextRun = nextFirstOfMonth(s.now())
			timer.Reset(time.Until(nextRun))
			s.logger.Info().Time("next_run", nextRun).Msg("next archive scheduled")
		}
	}
}

// nextFirstOfMonth is 00:01 on the first day of the month after now.
func nextFirstOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, now.Location())
}

// Filename is "March_2026.xlsx" for any time in March 2026.
func Filename(t time.Time) string {
	return fmt.Sprintf("%s_%d.xlsx", t.Month(), t.Year())
}

// RunExportAndCleanup archives the previous month, then prunes old days.
// Cleanup runs even when the export fails.
func (s *Service) RunExportAndCleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	now := s.now()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	if _, err := s.ExportMonth(ctx, prev); err != nil {
		s.logger.Error().Err(err).Msg("failed to export schedule archive")
	}
	if _, err := s.Cleanup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clean up old schedule days")
	}
}

// ExportMonth writes the month containing t and returns the file path.
func (s *Service) ExportMonth(ctx context.Context, t time.Time) (string, error) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	data, err := s.source.GetSchedule(ctx, model.DateKey(first), model.DateKey(last))
	if err != nil {
		return "", fmt.Errorf("get schedule: %w", err)
	}
	statuses, err := s.source.ListStatuses(ctx)
	if err != nil {
		return "", fmt.Errorf("list statuses: %w", err)
	}

	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.config.Dir, Filename(first))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := export.WriteSchedule(f, data, statuses); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	s.logger.Info().Str("file", path).Int("days", len(data)).Msg("schedule archived")
	return path, nil
}

// Cleanup deletes days older than the retention window.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	if s.cleaner == nil || s.config.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := model.DateKey(s.now().AddDate(0, 0, -s.config.RetentionDays))
	deleted, err := s.cleaner.DeleteScheduleBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete schedule before %s: %w", cutoff, err)
	}
	s.logger.Info().Int64("deleted_days", deleted).Str("cutoff", cutoff).Msg("cleaned up old schedule days")
	return deleted, nil
}
