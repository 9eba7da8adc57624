package repository

import (
	"context"
	"time"

	"github.com/chromapages/support-gateway/internal/models"
	"github.com/chromapages/support-gateway/internal/storage"
)

type RequestLogRepository struct {
	db *storage.Postgres
}

func NewRequestLogRepository(db *storage.Postgres) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Inserts multiple request logs (for batch insertion)
func (r *RequestLogRepository) CreateBatch(ctx context.Context, logs []models.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).Create(&logs).Error
}

// Counts logs in a time range
func (r *RequestLogRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

// Counts rejected requests (429s) per tier in a time range
func (r *RequestLogRepository) CountRejectedByTier(ctx context.Context, tier string, from, to time.Time) (int64, error) {
	var count int64

	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("tier = ? AND status_code = ? AND timestamp BETWEEN ? AND ?", tier, 429, from, to).
		Count(&count).Error

	return count, err
}

// Calculates average response time over a time range
func (r *RequestLogRepository) AverageResponseTime(ctx context.Context, from, to time.Time) (float64, error) {
	var avg float64

	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Select("COALESCE(AVG(response_time_ms), 0)").
		Scan(&avg).Error

	return avg, err
}

// Retrieves recent logs for a tier
func (r *RequestLogRepository) FindByTier(ctx context.Context, tier string, from, to time.Time, limit int) ([]models.RequestLog, error) {
	var logs []models.RequestLog

	err := r.db.DB.WithContext(ctx).
		Where("tier = ? AND timestamp BETWEEN ? AND ?", tier, from, to).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error

	return logs, err
}
