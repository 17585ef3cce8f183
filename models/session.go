package models

import (
	"gorm.io/gorm"
)

// TelegramSession is a connected sending identity. The session blob the
// external sending service needs is stored encrypted (AES-GCM, base64).
type TelegramSession struct {
	gorm.Model
	AccountID uint   `gorm:"not null;index" json:"account_id"`
	Phone     string `gorm:"not null" json:"phone"`

	EncryptedSessionData string `json:"-"`

	// Relations
	Account Account `json:"-"`
}

// PendingSession is the transient record between sending a login code and
// verifying it. AccountID is the primary key: at most one per account, a new
// connect request replaces the previous one.
type PendingSession struct {
	AccountID     uint   `gorm:"primaryKey" json:"account_id"`
	Phone         string `json:"phone"`
	Session       string `json:"-"`
	PhoneCodeHash string `json:"-"`
}
