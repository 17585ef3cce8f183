package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telereach/models"
	"telereach/utils"
)

type CampaignController struct {
	DB          *gorm.DB
	API         *utils.PythonAPIClient
	Store       *utils.SessionStore
	Categorizer *utils.Categorizer
	Logger      *logrus.Entry
}

func NewCampaignController(db *gorm.DB, api *utils.PythonAPIClient, store *utils.SessionStore, categorizer *utils.Categorizer, logger *logrus.Logger) *CampaignController {
	return &CampaignController{
		DB:          db,
		API:         api,
		Store:       store,
		Categorizer: categorizer,
		Logger:      logger.WithField("component", "campaign"),
	}
}

type CreateCampaignRequest struct {
	TelegramSessionID uint   `json:"telegram_session_id" validate:"required"`
	MessageText       string `json:"message_text" validate:"required"`

	ChatStartTime     string   `json:"chat_start_time"`
	ChatStartTimeCmp  string   `json:"chat_start_time_cmp" validate:"omitempty,oneof=before after"`
	NewestChatTime    string   `json:"newest_chat_time"`
	NewestChatTimeCmp string   `json:"newest_chat_time_cmp" validate:"omitempty,oneof=before after"`
	SleepTime         int      `json:"sleep_time" validate:"omitempty,gt=0"`
	Limit             int      `json:"limit" validate:"omitempty,gt=0"`
	IncludeCategories []string `json:"include_categories"`
	ExcludeCategories []string `json:"exclude_categories"`

	QuietHoursStart string `json:"quiet_hours_start"`
	QuietHoursEnd   string `json:"quiet_hours_end"`
	NudgeMessage    string `json:"nudge_message"`
	NudgeDelayHours int    `json:"nudge_delay_hours" validate:"omitempty,gt=0"`

	TrackingURL string `json:"tracking_url" validate:"omitempty,url"`
}

// CreateCampaign persists a campaign in the created state. Filter, quiet-hour
// and nudge settings are serialized into their own blobs; an optional
// tracking URL gets a trackable link with a generated code.
func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var req CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// The sending session must belong to the caller
	var session models.TelegramSession
	if err := cc.DB.Where("id = ? AND account_id = ?", req.TelegramSessionID, account.ID).First(&session).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Telegram session not found",
		})
	}

	filters := models.CampaignFilters{
		ChatStartTime:     req.ChatStartTime,
		ChatStartTimeCmp:  req.ChatStartTimeCmp,
		NewestChatTime:    req.NewestChatTime,
		NewestChatTimeCmp: req.NewestChatTimeCmp,
		SleepTime:         req.SleepTime,
		Limit:             req.Limit,
		IncludeCategories: req.IncludeCategories,
		ExcludeCategories: req.ExcludeCategories,
	}
	filtersJSON, _ := json.Marshal(filters)

	quietJSON, _ := json.Marshal(models.QuietHours{
		Start: req.QuietHoursStart,
		End:   req.QuietHoursEnd,
	})
	nudgeJSON, _ := json.Marshal(models.NudgeSettings{
		Message:    req.NudgeMessage,
		DelayHours: req.NudgeDelayHours,
	})

	campaign := models.Campaign{
		AccountID:         account.ID,
		TelegramSessionID: session.ID,
		MessageText:       req.MessageText,
		Status:            models.CampaignStatusCreated,
		FiltersJSON:       string(filtersJSON),
		QuietHoursJSON:    string(quietJSON),
		NudgeSettingsJSON: string(nudgeJSON),
	}

	tx := cc.DB.Begin()
	if err := tx.Create(&campaign).Error; err != nil {
		tx.Rollback()
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	if req.TrackingURL != "" {
		link := models.TrackableLink{
			CampaignID:   campaign.ID,
			OriginalURL:  req.TrackingURL,
			TrackingCode: utils.GenerateTrackingCode(),
		}
		if err := tx.Create(&link).Error; err != nil {
			tx.Rollback()
			utils.ReportError(err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "db error",
			})
		}
	}
	tx.Commit()

	cc.Logger.WithFields(logrus.Fields{
		"account_id":  account.ID,
		"campaign_id": campaign.ID,
	}).Info("campaign created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": campaign.ID})
}

type campaignListRow struct {
	ID                uint   `json:"id"`
	MessageText       string `json:"message_text"`
	Status            string `json:"status"`
	FiltersJSON       string `json:"filters_json"`
	TelegramSessionID uint   `json:"telegram_session_id"`
	SessionPhone      string `json:"session_phone"`
	AccountEmail      string `json:"account_email"`
}

// GetCampaigns lists the account's campaigns newest first, joined with the
// session phone and account email for display.
func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var rows []campaignListRow
	err := cc.DB.Table("campaigns").
		Select("campaigns.id, campaigns.message_text, campaigns.status, campaigns.filters_json, campaigns.telegram_session_id, telegram_sessions.phone AS session_phone, accounts.email AS account_email").
		Joins("LEFT JOIN telegram_sessions ON campaigns.telegram_session_id = telegram_sessions.id").
		Joins("LEFT JOIN accounts ON campaigns.account_id = accounts.id").
		Where("campaigns.account_id = ? AND campaigns.deleted_at IS NULL", account.ID).
		Order("campaigns.id DESC").
		Scan(&rows).Error
	if err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	if rows == nil {
		rows = []campaignListRow{}
	}
	return c.JSON(fiber.Map{"campaigns": rows})
}

// HandleClickTracking resolves a trackable-link code, counts the click and
// redirects to the original URL. Public, no auth: recipients hit this.
func (cc *CampaignController) HandleClickTracking(c *fiber.Ctx) error {
	code := c.Params("code")

	var link models.TrackableLink
	if err := cc.DB.Where("tracking_code = ?", code).First(&link).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Link not found",
		})
	}

	if err := cc.DB.Model(&link).UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error; err != nil {
		cc.Logger.Warnf("click increment failed for %s: %v", code, err)
	}

	return c.Redirect(link.OriginalURL, fiber.StatusFound)
}
