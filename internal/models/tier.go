package models

// RateLimitTier is the persisted form of a tier's quota configuration.
// Seeded from config at startup so operators can inspect the live limits.
type RateLimitTier struct {
	Name              string `gorm:"primaryKey" json:"name"`
	RequestsPerMinute int    `gorm:"not null" json:"requests_per_minute"`
	RequestsPerHour   int    `gorm:"not null" json:"requests_per_hour"`
	TokensPerRequest  int    `gorm:"not null;default:1" json:"tokens_per_request"`
	Scope             string `json:"scope"`
}

func (RateLimitTier) TableName() string {
	return "rate_limit_tiers"
}
