package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telereach/models"
)

// MatchConfidence is the score written for every keyword hit.
const MatchConfidence = 0.8

// Categorizer tags recipients by scanning their chat history against each
// category's keyword list. It only ever writes customer_categories rows.
type Categorizer struct {
	DB       *gorm.DB
	API      *PythonAPIClient
	Logger   *logrus.Entry
	UseRegex bool
}

func NewCategorizer(db *gorm.DB, api *PythonAPIClient, logger *logrus.Logger, useRegex bool) *Categorizer {
	return &Categorizer{
		DB:       db,
		API:      api,
		Logger:   logger.WithField("component", "categorizer"),
		UseRegex: useRegex,
	}
}

// Categorize fetches the account's chats from the sending service and upserts
// a tag per (recipient, category) keyword hit. A missing category list or a
// failed chat fetch is a logged no-op. One recipient's failure never aborts
// the rest of the sweep.
func (cz *Categorizer) Categorize(accountID uint, session string) error {
	var categories []models.Category
	if err := cz.DB.Where("account_id = ?", accountID).Find(&categories).Error; err != nil {
		return err
	}
	if len(categories) == 0 {
		cz.Logger.WithField("account_id", accountID).Info("no categories defined, skipping")
		return nil
	}

	chats := cz.API.Chats(session)
	if len(chats) == 0 {
		cz.Logger.WithField("account_id", accountID).Info("no chats returned, skipping")
		return nil
	}

	for _, chat := range chats {
		text := strings.ToLower(strings.Join(chat.Messages, " \n"))
		for _, cat := range categories {
			if !cz.matches(cat, text) {
				continue
			}
			if err := cz.upsertTag(accountID, chat.Phone, cat.Name); err != nil {
				cz.Logger.WithFields(logrus.Fields{
					"account_id": accountID,
					"phone":      chat.Phone,
					"category":   cat.Name,
				}).Warnf("tag upsert failed: %v", err)
				continue
			}
			cz.Logger.WithFields(logrus.Fields{
				"phone":    chat.Phone,
				"category": cat.Name,
			}).Info("recipient matched category")
		}
	}
	return nil
}

// matches is a plain substring containment test over the lowercased chat
// text. The stored regex pattern is only consulted when UseRegex is set.
func (cz *Categorizer) matches(cat models.Category, loweredText string) bool {
	for _, kw := range cat.Keywords() {
		if kw == "" {
			continue
		}
		if strings.Contains(loweredText, strings.ToLower(kw)) {
			return true
		}
	}
	if cz.UseRegex && cat.RegexPattern != "" {
		re, err := regexp.Compile("(?i)" + cat.RegexPattern)
		if err != nil {
			cz.Logger.WithField("category", cat.Name).Warnf("bad regex pattern: %v", err)
			return false
		}
		return re.MatchString(loweredText)
	}
	return false
}

func (cz *Categorizer) upsertTag(accountID uint, phone, category string) error {
	var existing models.CustomerCategory
	err := cz.DB.Where("account_id = ? AND user_phone = ? AND category = ?", accountID, phone, category).
		First(&existing).Error
	if err == nil {
		return cz.DB.Model(&existing).Update("confidence_score", MatchConfidence).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return cz.DB.Create(&models.CustomerCategory{
		AccountID:       accountID,
		UserPhone:       phone,
		Category:        category,
		ConfidenceScore: MatchConfidence,
	}).Error
}
