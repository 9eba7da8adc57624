package service

import (
	"context"
	"time"

	"github.com/chromapages/support-gateway/internal/repository"
)

type UsageService struct {
	repository *repository.RequestLogRepository
	tiers      []string
}

func NewUsageService(repo *repository.RequestLogRepository, tiers []string) *UsageService {
	return &UsageService{
		repository: repo,
		tiers:      tiers,
	}
}

// Holds a usage summary for a time range
type UsageSummary struct {
	TotalRequests   int64            `json:"total_requests"`
	AvgResponseTime float64          `json:"avg_response_time_ms"`
	RejectedByTier  map[string]int64 `json:"rejected_by_tier"`
}

// Retrieves usage summary for a time range
func (s *UsageService) GetSummary(ctx context.Context, from, to time.Time) (*UsageSummary, error) {
	summary := &UsageSummary{
		RejectedByTier: make(map[string]int64),
	}

	totalRequests, err := s.repository.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalRequests = totalRequests

	if totalRequests == 0 {
		return summary, nil
	}

	avgResponseTime, err := s.repository.AverageResponseTime(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.AvgResponseTime = avgResponseTime

	for _, tier := range s.tiers {
		rejected, err := s.repository.CountRejectedByTier(ctx, tier, from, to)
		if err != nil {
			return nil, err
		}
		summary.RejectedByTier[tier] = rejected
	}

	return summary, nil
}
