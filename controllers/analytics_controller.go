package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telereach/models"
	"telereach/utils"
)

type AnalyticsController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewAnalyticsController(db *gorm.DB, logger *logrus.Logger) *AnalyticsController {
	return &AnalyticsController{
		DB:     db,
		Logger: logger.WithField("component", "analytics"),
	}
}

type summaryMetrics struct {
	MessagesSent int64   `json:"messages_sent"`
	Successes    int64   `json:"successes"`
	Failures     int64   `json:"failures"`
	Revenue      float64 `json:"revenue"`
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type campaignSummaryRow struct {
	ID           uint    `json:"id"`
	MessageText  string  `json:"message_text"`
	Status       string  `json:"status"`
	TotalSent    int     `json:"total_sent"`
	TotalClicks  int     `json:"total_clicks"`
	TotalRevenue float64 `json:"total_revenue"`
}

type revenueByDay struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
}

// GetSummary aggregates the account's delivery, categorization and revenue
// numbers. An optional session_id query param narrows everything to campaigns
// sent through that session. Accounts with no activity get zeroed metrics and
// empty lists, not an error.
func (ac *AnalyticsController) GetSummary(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)
	sessionID := c.QueryInt("session_id", 0)

	logs := ac.DB.Table("sent_logs").
		Joins("JOIN campaigns ON sent_logs.campaign_id = campaigns.id").
		Where("campaigns.account_id = ? AND sent_logs.deleted_at IS NULL", account.ID)
	if sessionID > 0 {
		logs = logs.Where("campaigns.telegram_session_id = ?", sessionID)
	}

	var metrics summaryMetrics
	if err := logs.Session(&gorm.Session{}).Count(&metrics.MessagesSent).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}
	if err := logs.Session(&gorm.Session{}).Where("sent_logs.status = ?", "sent").Count(&metrics.Successes).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}
	if err := logs.Session(&gorm.Session{}).Where("sent_logs.status = ?", "failed").Count(&metrics.Failures).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	revenue := ac.DB.Table("trackable_links").
		Joins("JOIN campaigns ON trackable_links.campaign_id = campaigns.id").
		Where("campaigns.account_id = ? AND trackable_links.deleted_at IS NULL", account.ID)
	if sessionID > 0 {
		revenue = revenue.Where("campaigns.telegram_session_id = ?", sessionID)
	}
	var totalRevenue *float64
	if err := revenue.Session(&gorm.Session{}).Select("SUM(trackable_links.revenue)").Scan(&totalRevenue).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}
	if totalRevenue != nil {
		metrics.Revenue = *totalRevenue
	}

	var categories []categoryCount
	ac.DB.Table("customer_categories").
		Select("category, COUNT(*) AS count").
		Where("account_id = ? AND deleted_at IS NULL", account.ID).
		Group("category").
		Order("count DESC").
		Scan(&categories)
	if categories == nil {
		categories = []categoryCount{}
	}

	campaignQuery := ac.DB.Table("campaigns").
		Select("campaigns.id, campaigns.message_text, campaigns.status, " +
			"COALESCE(campaign_analytics.total_sent, 0) AS total_sent, " +
			"COALESCE(campaign_analytics.total_clicks, 0) AS total_clicks, " +
			"COALESCE(campaign_analytics.total_revenue, 0) AS total_revenue").
		Joins("LEFT JOIN campaign_analytics ON campaign_analytics.campaign_id = campaigns.id").
		Where("campaigns.account_id = ? AND campaigns.deleted_at IS NULL", account.ID)
	if sessionID > 0 {
		campaignQuery = campaignQuery.Where("campaigns.telegram_session_id = ?", sessionID)
	}
	var campaigns []campaignSummaryRow
	campaignQuery.Order("campaigns.id DESC").Scan(&campaigns)
	if campaigns == nil {
		campaigns = []campaignSummaryRow{}
	}

	dayQuery := ac.DB.Table("trackable_links").
		Select("DATE(trackable_links.created_at) AS day, SUM(trackable_links.revenue) AS revenue").
		Joins("JOIN campaigns ON trackable_links.campaign_id = campaigns.id").
		Where("campaigns.account_id = ? AND trackable_links.deleted_at IS NULL", account.ID)
	if sessionID > 0 {
		dayQuery = dayQuery.Where("campaigns.telegram_session_id = ?", sessionID)
	}
	var byDay []revenueByDay
	dayQuery.Group("DATE(trackable_links.created_at)").Order("day").Scan(&byDay)
	if byDay == nil {
		byDay = []revenueByDay{}
	}

	return c.JSON(fiber.Map{
		"metrics":        metrics,
		"categories":     categories,
		"campaigns":      campaigns,
		"revenue_by_day": byDay,
	})
}
