package service

import (
	"context"
	"fmt"
	"time"
)

// UserCounter is the storage the report needs.
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// Report summarises registrations.
type Report struct {
	Total  int64
	Recent int64
	Since  time.Time
}

func (r Report) String() string {
	return fmt.Sprintf("%d accounts total, %d registered since %s", r.Total, r.Recent, r.Since.Format("2006-01-02 15:04"))
}

// ReportService builds registration summaries.
type ReportService struct {
	counter UserCounter
}

func NewReportService(counter UserCounter) *ReportService {
	return &ReportService{counter: counter}
}

// Summary counts all accounts and those created within window before now.
func (s *ReportService) Summary(ctx context.Context, now time.Time, window time.Duration) (Report, error) {
	total, err := s.counter.Count(ctx)
	if err != nil {
		return Report{}, err
	}

	since := now.Add(-window)
	recent, err := s.counter.CountCreatedSince(ctx, since)
	if err != nil {
		return Report{}, err
	}

	return Report{Total: total, Recent: recent, Since: since}, nil
}
