package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Category is a user-defined recipient tag rule based on keyword containment.
type Category struct {
	gorm.Model
	AccountID uint   `gorm:"not null;index" json:"account_id"`
	Name      string `gorm:"not null" json:"name"`

	// Keywords and sample chats are stored as serialized JSON text
	KeywordsJSON    string `gorm:"column:keywords_json" json:"-"`
	Description     string `json:"description"`
	RegexPattern    string `json:"regex_pattern"`
	SampleChatsJSON string `gorm:"column:sample_chats_json" json:"-"`

	// Relations
	Account Account `json:"-"`
}

// Keywords parses the serialized keyword list. A corrupt or empty blob yields
// an empty list, matching how missing keywords behave during categorization.
func (c *Category) Keywords() []string {
	var kws []string
	if err := json.Unmarshal([]byte(c.KeywordsJSON), &kws); err != nil {
		return nil
	}
	return kws
}

// SampleChats parses the serialized example list.
func (c *Category) SampleChats() []string {
	var samples []string
	if err := json.Unmarshal([]byte(c.SampleChatsJSON), &samples); err != nil {
		return nil
	}
	return samples
}

// CustomerCategory tags a recipient phone with a category name. Rows are
// written only by the categorizer with upsert semantics: one row per
// (account, phone, category).
type CustomerCategory struct {
	gorm.Model
	AccountID       uint    `gorm:"not null;index:idx_customer_category,unique" json:"account_id"`
	UserPhone       string  `gorm:"index:idx_customer_category,unique" json:"user_phone"`
	Category        string  `gorm:"index:idx_customer_category,unique" json:"category"`
	ConfidenceScore float64 `json:"confidence_score"`
}
