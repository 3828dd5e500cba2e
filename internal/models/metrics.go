package models

import "time"

// SystemMetrics is the lightweight runtime snapshot served to admins.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	GenerationsTotal         uint64    `json:"generationsTotal"`
	GenerationFailures       uint64    `json:"generationFailures"`
	TokensConsumed           uint64    `json:"tokensConsumed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
