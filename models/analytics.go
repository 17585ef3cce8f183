package models

import (
	"gorm.io/gorm"
)

// SentLog is one delivery attempt reported by the external sending service.
// Append-only.
type SentLog struct {
	gorm.Model
	AccountID  uint   `gorm:"not null;index" json:"account_id"`
	CampaignID uint   `gorm:"not null;index" json:"campaign_id"`
	UserPhone  string `json:"user_phone"`

	Status       string `json:"status"` // sent, failed
	ErrorDetails string `json:"error_details"`

	// Relations
	Campaign Campaign `json:"-"`
}

// TrackableLink is a campaign link rewritten through /track/click/:code.
// Clicks and revenue are incremented by the tracking redirect and external
// attribution respectively.
type TrackableLink struct {
	gorm.Model
	CampaignID   uint    `gorm:"not null;index" json:"campaign_id"`
	OriginalURL  string  `gorm:"not null" json:"original_url"`
	TrackingCode string  `gorm:"uniqueIndex;not null" json:"tracking_code"`
	Clicks       int     `gorm:"default:0" json:"clicks"`
	Revenue      float64 `gorm:"default:0" json:"revenue"`
}

// CampaignAnalytics holds per-campaign rollups written by the external
// service's reporting path.
type CampaignAnalytics struct {
	gorm.Model
	CampaignID          uint    `gorm:"not null;index" json:"campaign_id"`
	TotalSent           int     `gorm:"default:0" json:"total_sent"`
	TotalClicks         int     `gorm:"default:0" json:"total_clicks"`
	TotalRevenue        float64 `gorm:"default:0" json:"total_revenue"`
	BestPerformingLines string  `json:"best_performing_lines"`
}
