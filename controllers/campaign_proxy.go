package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"telereach/models"
	"telereach/utils"
)

// The sending service owns live execution state (progress, per-recipient
// logs, editable in-flight data). These handlers proxy it after checking the
// campaign belongs to the caller.

func (cc *CampaignController) findOwnedCampaign(c *fiber.Ctx) (*models.Campaign, error) {
	account := c.Locals("account").(*models.Account)
	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND account_id = ?", c.Params("id"), account.ID).First(&campaign).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	return &campaign, nil
}

// GetCampaignStatus proxies the live execution status.
func (cc *CampaignController) GetCampaignStatus(c *fiber.Ctx) error {
	campaign, err := cc.findOwnedCampaign(c)
	if campaign == nil {
		return err
	}

	raw, apiErr := cc.API.CampaignStatus(campaign.ID)
	if apiErr != nil {
		return upstreamErrorResponse(c, apiErr, "api request failed")
	}
	c.Set("Content-Type", "application/json")
	return c.Send(rawOrEmpty(raw))
}

// GetCampaignLogs proxies the per-recipient send log.
func (cc *CampaignController) GetCampaignLogs(c *fiber.Ctx) error {
	campaign, err := cc.findOwnedCampaign(c)
	if campaign == nil {
		return err
	}

	raw, apiErr := cc.API.CampaignLogs(campaign.ID)
	if apiErr != nil {
		return upstreamErrorResponse(c, apiErr, "api request failed")
	}
	c.Set("Content-Type", "application/json")
	return c.Send(rawOrEmpty(raw))
}

// GetCampaignData proxies the editable campaign data held by the sending
// service.
func (cc *CampaignController) GetCampaignData(c *fiber.Ctx) error {
	campaign, err := cc.findOwnedCampaign(c)
	if campaign == nil {
		return err
	}

	raw, apiErr := cc.API.CampaignData(campaign.ID)
	if apiErr != nil {
		return upstreamErrorResponse(c, apiErr, "api request failed")
	}
	c.Set("Content-Type", "application/json")
	return c.Send(rawOrEmpty(raw))
}

// UpdateCampaignData forwards an edit of in-flight campaign data.
func (cc *CampaignController) UpdateCampaignData(c *fiber.Ctx) error {
	campaign, err := cc.findOwnedCampaign(c)
	if campaign == nil {
		return err
	}

	body := json.RawMessage(c.Body())
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	raw, apiErr := cc.API.UpdateCampaign(campaign.ID, body)
	if apiErr != nil {
		return upstreamErrorResponse(c, apiErr, "api request failed")
	}
	c.Set("Content-Type", "application/json")
	return c.Send(rawOrEmpty(raw))
}

// GetCampaignAnalytics returns the locally stored per-campaign rollup.
func (cc *CampaignController) GetCampaignAnalytics(c *fiber.Ctx) error {
	campaign, err := cc.findOwnedCampaign(c)
	if campaign == nil {
		return err
	}

	var analytics models.CampaignAnalytics
	if dbErr := cc.DB.Where("campaign_id = ?", campaign.ID).First(&analytics).Error; dbErr != nil {
		return c.JSON(fiber.Map{"analytics": nil})
	}
	return c.JSON(fiber.Map{"analytics": analytics})
}

// IngestSentLogs accepts delivery outcomes reported back by the sending
// service and appends them to sent_logs. The campaign must belong to the
// authenticated account: logs can never be attributed to another tenant.
func (cc *CampaignController) IngestSentLogs(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var input struct {
		CampaignID uint `json:"campaign_id" validate:"required"`
		Logs       []struct {
			UserPhone    string `json:"user_phone"`
			Status       string `json:"status"`
			ErrorDetails string `json:"error_details"`
		} `json:"logs" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND account_id = ?", input.CampaignID, account.ID).First(&campaign).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}

	for _, entry := range input.Logs {
		log := models.SentLog{
			AccountID:    campaign.AccountID,
			CampaignID:   campaign.ID,
			UserPhone:    entry.UserPhone,
			Status:       entry.Status,
			ErrorDetails: entry.ErrorDetails,
		}
		if err := cc.DB.Create(&log).Error; err != nil {
			cc.Logger.Warnf("sent log insert failed for %s: %v", entry.UserPhone, err)
		}
	}

	return c.JSON(fiber.Map{"ingested": len(input.Logs)})
}
