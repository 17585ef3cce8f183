package models

import (
	"bytes"
	"encoding/json"

	"gorm.io/gorm"
)

// Campaign statuses. "starting" is the intermediate state between accepting
// a start request and the external service confirming the job.
const (
	CampaignStatusCreated   = "created"
	CampaignStatusStarting  = "starting"
	CampaignStatusRunning   = "running"
	CampaignStatusStopped   = "stopped"
	CampaignStatusCompleted = "completed"
)

// Campaign represents a configured outbound message job tied to one sending
// session and one message body.
type Campaign struct {
	gorm.Model
	AccountID         uint `gorm:"not null;index" json:"account_id"`
	TelegramSessionID uint `gorm:"not null;index" json:"telegram_session_id"`

	// MessageText is rich-text/HTML authored in the campaign editor
	MessageText string `gorm:"not null" json:"message_text"`
	Status      string `gorm:"default:'created'" json:"status"`

	// Serialized settings blobs
	FiltersJSON       string `gorm:"column:filters_json" json:"-"`
	QuietHoursJSON    string `gorm:"column:quiet_hours_json" json:"-"`
	NudgeSettingsJSON string `gorm:"column:nudge_settings_json" json:"-"`

	// Relations
	Account         Account         `json:"-"`
	TelegramSession TelegramSession `json:"-"`
	Links           []TrackableLink `gorm:"foreignKey:CampaignID" json:"links,omitempty"`
}

// CampaignFilters is the typed filter blob. Time bounds are compared on the
// sending side using the paired comparator ("before" or "after").
type CampaignFilters struct {
	ChatStartTime     string   `json:"chat_start_time,omitempty"`
	ChatStartTimeCmp  string   `json:"chat_start_time_cmp,omitempty"`
	NewestChatTime    string   `json:"newest_chat_time,omitempty"`
	NewestChatTimeCmp string   `json:"newest_chat_time_cmp,omitempty"`
	SleepTime         int      `json:"sleep_time,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	IncludeCategories []string `json:"include_categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
}

// QuietHours suppresses sending between Start and End ("HH:MM", recipient
// local time is the external service's concern).
type QuietHours struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// NudgeSettings configures the follow-up message sent to recipients who do
// not reply within DelayHours.
type NudgeSettings struct {
	Message    string `json:"message,omitempty"`
	DelayHours int    `json:"delay_hours,omitempty"`
}

// DecodeFilters parses the stored filter blob. Unknown fields are rejected so
// a drifted payload fails loudly instead of silently passing through.
func (c *Campaign) DecodeFilters() (CampaignFilters, error) {
	var f CampaignFilters
	if c.FiltersJSON == "" {
		return f, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(c.FiltersJSON)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return CampaignFilters{}, err
	}
	return f, nil
}

// DecodeQuietHours parses the stored quiet-hours blob.
func (c *Campaign) DecodeQuietHours() (QuietHours, error) {
	var q QuietHours
	if c.QuietHoursJSON == "" {
		return q, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(c.QuietHoursJSON)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		return QuietHours{}, err
	}
	return q, nil
}

// DecodeNudgeSettings parses the stored nudge blob.
func (c *Campaign) DecodeNudgeSettings() (NudgeSettings, error) {
	var n NudgeSettings
	if c.NudgeSettingsJSON == "" {
		return n, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(c.NudgeSettingsJSON)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&n); err != nil {
		return NudgeSettings{}, err
	}
	return n, nil
}
