package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telereach/models"
	"telereach/utils"
)

// ReconcileWorker polls the sending service for campaigns we believe are
// running and flips them to completed once the service reports they finished.
// The service never calls back on completion, so local status would otherwise
// stay running forever.
type ReconcileWorker struct {
	DB       *gorm.DB
	API      *utils.PythonAPIClient
	Interval time.Duration
	Logger   *logrus.Entry
}

func NewReconcileWorker(db *gorm.DB, api *utils.PythonAPIClient, interval time.Duration, logger *logrus.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		DB:       db,
		API:      api,
		Interval: interval,
		Logger:   logger.WithField("component", "reconcile"),
	}
}

func (rw *ReconcileWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	rw.Logger.Info("reconcile worker started")

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Info("reconcile worker shutting down")
			return
		case <-ticker.C:
			rw.reconcileRunning()
		}
	}
}

func (rw *ReconcileWorker) reconcileRunning() {
	var campaigns []models.Campaign
	if err := rw.DB.Where("status = ?", models.CampaignStatusRunning).Find(&campaigns).Error; err != nil {
		rw.Logger.Errorf("running campaign scan failed: %v", err)
		return
	}

	for _, campaign := range campaigns {
		if err := rw.ReconcileStatus(campaign.ID); err != nil {
			rw.Logger.WithField("campaign_id", campaign.ID).Warnf("reconcile failed: %v", err)
		}
	}
}

// ReconcileStatus asks the sending service for one campaign's live status and
// writes completed back when the service says the run finished. Anything
// other than a confirmed completion leaves the local status alone.
func (rw *ReconcileWorker) ReconcileStatus(campaignID uint) error {
	raw, err := rw.API.CampaignStatus(campaignID)
	if err != nil {
		return err
	}

	var upstream struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &upstream); err != nil {
		return err
	}

	if upstream.Status != "completed" && upstream.Status != "finished" {
		return nil
	}

	res := rw.DB.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", campaignID, models.CampaignStatusRunning).
		Update("status", models.CampaignStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		rw.Logger.WithField("campaign_id", campaignID).Info("campaign completed")
	}
	return nil
}
