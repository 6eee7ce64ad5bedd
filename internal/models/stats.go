package models

import "time"

// ShipmentStats summarises shipment volume for the operator dashboard.
type ShipmentStats struct {
	Total            int                    `json:"total"`
	ByStatus         map[ShipmentStatus]int `json:"by_status"`
	CreatedToday     int                    `json:"created_today"`
	CreatedThisWeek  int                    `json:"created_this_week"`
	CreatedThisMonth int                    `json:"created_this_month"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

// SystemMetrics is a lightweight snapshot of process metrics.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ShipmentsCreated         uint64    `json:"shipments_created"`
	TrackingEvents           uint64    `json:"tracking_events"`
	NotificationFailures     uint64    `json:"notification_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
