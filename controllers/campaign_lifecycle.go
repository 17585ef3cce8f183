package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"telereach/models"
	"telereach/utils"
)

// startableStatuses are the states a campaign may be started from. Completed
// campaigns can be re-started; there is no terminal state in the data model.
var startableStatuses = []string{
	models.CampaignStatusCreated,
	models.CampaignStatusStopped,
	models.CampaignStatusCompleted,
}

// sessionPlaintext resolves the decrypted session blob for a campaign's
// sending identity, preferring the cache and falling back to the stored
// ciphertext. A decryption failure is fatal for the session.
func (cc *CampaignController) sessionPlaintext(c *fiber.Ctx, accountID uint, session *models.TelegramSession) (string, error) {
	if cached, err := cc.Store.Get(c.Context(), accountID); err == nil && cached != "" {
		return cached, nil
	} else if err != nil {
		cc.Logger.Warnf("session cache read failed: %v", err)
	}

	plain, err := utils.Decrypt(session.EncryptedSessionData)
	if err != nil {
		return "", err
	}

	// Repopulate the cache for the next start
	if err := cc.Store.Set(c.Context(), accountID, plain); err != nil {
		cc.Logger.Warnf("session cache write failed: %v", err)
	}
	return plain, nil
}

// StartCampaign moves a campaign through the two-phase start: flip to
// "starting", hand the job to the sending service, then finalize to
// "running" or revert to the prior status if the service refuses the job.
func (cc *CampaignController) StartCampaign(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)
	campaignID := c.Params("id")

	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND account_id = ?", campaignID, account.ID).First(&campaign).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}

	var session models.TelegramSession
	if err := cc.DB.First(&session, campaign.TelegramSessionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Telegram session not found",
		})
	}
	if session.EncryptedSessionData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no session data found",
		})
	}

	sessionBlob, err := cc.sessionPlaintext(c, account.ID, &session)
	if err != nil {
		utils.ReportError(err)
		cc.Logger.WithField("campaign_id", campaign.ID).Errorf("session decrypt failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "session data unreadable",
		})
	}

	// Tag recipients before sending; a categorization failure never blocks
	// the send itself
	if err := cc.Categorizer.Categorize(account.ID, sessionBlob); err != nil {
		cc.Logger.WithField("campaign_id", campaign.ID).Warnf("categorization failed: %v", err)
	}

	filters, err := campaign.DecodeFilters()
	if err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "invalid filter data",
		})
	}
	quiet, err := campaign.DecodeQuietHours()
	if err != nil {
		cc.Logger.WithField("campaign_id", campaign.ID).Warnf("quiet hours unreadable: %v", err)
	}
	nudge, err := campaign.DecodeNudgeSettings()
	if err != nil {
		cc.Logger.WithField("campaign_id", campaign.ID).Warnf("nudge settings unreadable: %v", err)
	}

	// Optional per-start recipient limit overrides the stored filter
	limit := filters.Limit
	if len(c.Body()) > 0 {
		var body struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal(c.Body(), &body); err == nil && body.Limit > 0 {
			limit = body.Limit
		}
	}

	priorStatus := campaign.Status
	res := cc.DB.Model(&models.Campaign{}).
		Where("id = ? AND status IN ?", campaign.ID, startableStatuses).
		Update("status", models.CampaignStatusStarting)
	if res.Error != nil {
		utils.ReportError(res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "campaign is already starting or running",
		})
	}

	raw, err := cc.API.ExecuteCampaign(utils.ExecuteCampaignRequest{
		Session:    sessionBlob,
		Message:    campaign.MessageText,
		AccountID:  account.ID,
		CampaignID: campaign.ID,
		Limit:      limit,

		ChatStartTime:     filters.ChatStartTime,
		ChatStartTimeCmp:  filters.ChatStartTimeCmp,
		NewestChatTime:    filters.NewestChatTime,
		NewestChatTimeCmp: filters.NewestChatTimeCmp,
		SleepTime:         filters.SleepTime,
		IncludeCategories: filters.IncludeCategories,
		ExcludeCategories: filters.ExcludeCategories,

		QuietHoursStart: quiet.Start,
		QuietHoursEnd:   quiet.End,
		NudgeMessage:    nudge.Message,
		NudgeDelayHours: nudge.DelayHours,
	})
	if err != nil {
		// The service refused the job: put the campaign back where it was
		if revertErr := cc.DB.Model(&models.Campaign{}).
			Where("id = ? AND status = ?", campaign.ID, models.CampaignStatusStarting).
			Update("status", priorStatus).Error; revertErr != nil {
			utils.ReportError(revertErr)
			cc.Logger.WithField("campaign_id", campaign.ID).Errorf("status revert failed: %v", revertErr)
		}
		return upstreamErrorResponse(c, err, "api request failed")
	}

	if err := cc.DB.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", campaign.ID, models.CampaignStatusStarting).
		Update("status", models.CampaignStatusRunning).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	cc.Logger.WithField("campaign_id", campaign.ID).Info("campaign started")
	return c.JSON(fiber.Map{"status": "started", "result": rawOrEmpty(raw)})
}

// StopCampaign proxies the stop and only flips local status once the sending
// service confirms. A failed stop leaves the status untouched.
func (cc *CampaignController) StopCampaign(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)
	campaignID := c.Params("id")

	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND account_id = ?", campaignID, account.ID).First(&campaign).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}

	raw, err := cc.API.StopCampaign(campaign.ID)
	if err != nil {
		return upstreamErrorResponse(c, err, "api request failed")
	}

	if err := cc.DB.Model(&campaign).Update("status", models.CampaignStatusStopped).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	cc.Logger.WithField("campaign_id", campaign.ID).Info("campaign stopped")
	return c.JSON(fiber.Map{"status": "stopped", "result": rawOrEmpty(raw)})
}

// ResumeCampaign re-runs categorization, proxies the resume and flips the
// status back to running only on a confirmed resume. Only stopped campaigns
// can resume; anything else never had a job to pick back up.
func (cc *CampaignController) ResumeCampaign(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)
	campaignID := c.Params("id")

	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND account_id = ?", campaignID, account.ID).First(&campaign).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	if campaign.Status != models.CampaignStatusStopped {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "campaign is not stopped",
		})
	}

	var session models.TelegramSession
	if err := cc.DB.First(&session, campaign.TelegramSessionID).Error; err == nil && session.EncryptedSessionData != "" {
		if sessionBlob, err := cc.sessionPlaintext(c, account.ID, &session); err == nil {
			if err := cc.Categorizer.Categorize(account.ID, sessionBlob); err != nil {
				cc.Logger.WithField("campaign_id", campaign.ID).Warnf("categorization failed: %v", err)
			}
		} else {
			cc.Logger.WithField("campaign_id", campaign.ID).Warnf("session decrypt failed: %v", err)
		}
	}

	raw, err := cc.API.ResumeCampaign(campaign.ID)
	if err != nil {
		return upstreamErrorResponse(c, err, "api request failed")
	}

	// Guarded flip: a stop that raced the resume wins
	res := cc.DB.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", campaign.ID, models.CampaignStatusStopped).
		Update("status", models.CampaignStatusRunning)
	if res.Error != nil {
		utils.ReportError(res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "campaign is not stopped",
		})
	}

	cc.Logger.WithField("campaign_id", campaign.ID).Info("campaign resumed")
	return c.JSON(fiber.Map{"status": "resumed", "result": rawOrEmpty(raw)})
}
