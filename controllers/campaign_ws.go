package controller

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"telereach/models"
)

type campaignProgress struct {
	CampaignID uint   `json:"campaign_id"`
	Status     string `json:"status"`
	Sent       int64  `json:"sent"`
	Failed     int64  `json:"failed"`
}

// HandleCampaignProgressWS streams campaign progress to a connected client.
// The client sends {"campaign_id": N} once; the handler then pushes status
// and sent/failed counts until the campaign leaves the running state or the
// connection drops.
func (cc *CampaignController) HandleCampaignProgressWS(c *websocket.Conn) {
	defer c.Close()

	var input struct {
		CampaignID uint `json:"campaign_id"`
	}
	if err := c.ReadJSON(&input); err != nil {
		cc.Logger.Warnf("ws read failed: %v", err)
		return
	}

	accountID, ok := c.Locals("accountID").(uint)
	if !ok {
		return
	}

	for {
		var campaign models.Campaign
		err := cc.DB.Where("id = ? AND account_id = ?", input.CampaignID, accountID).First(&campaign).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				cc.Logger.Warnf("ws campaign lookup failed: %v", err)
			}
			return
		}

		var sent, failed int64
		cc.DB.Model(&models.SentLog{}).
			Where("campaign_id = ? AND status = ?", campaign.ID, "sent").Count(&sent)
		cc.DB.Model(&models.SentLog{}).
			Where("campaign_id = ? AND status = ?", campaign.ID, "failed").Count(&failed)

		progress := campaignProgress{
			CampaignID: campaign.ID,
			Status:     campaign.Status,
			Sent:       sent,
			Failed:     failed,
		}
		if err := c.WriteJSON(progress); err != nil {
			return
		}

		if campaign.Status != models.CampaignStatusRunning &&
			campaign.Status != models.CampaignStatusStarting {
			return
		}
		time.Sleep(2 * time.Second)
	}
}
