package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telereach/models"
	"telereach/utils"
)

type SessionController struct {
	DB     *gorm.DB
	API    *utils.PythonAPIClient
	Store  *utils.SessionStore
	Logger *logrus.Entry
}

func NewSessionController(db *gorm.DB, api *utils.PythonAPIClient, store *utils.SessionStore, logger *logrus.Logger) *SessionController {
	return &SessionController{
		DB:     db,
		API:    api,
		Store:  store,
		Logger: logger.WithField("component", "session"),
	}
}

type ConnectRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type VerifyRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// Connect asks the sending service to text a login code to the phone and
// parks the intermediate session in pending_sessions. A second connect
// request replaces the first: one pending login per account.
func (sc *SessionController) Connect(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var req ConnectRequest
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

	result, err := sc.API.SessionConnect(req.Phone)
	if err != nil {
		return upstreamErrorResponse(c, err, "Failed to send code")
	}

	pending := models.PendingSession{
		AccountID:     account.ID,
		Phone:         req.Phone,
		Session:       result.Session,
		PhoneCodeHash: result.PhoneCodeHash,
	}
	if err := sc.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&pending).Error; err != nil {
		utils.ReportError(err)
		sc.Logger.Errorf("pending session save failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	sc.Logger.WithField("account_id", account.ID).Info("login code sent")
	return c.JSON(fiber.Map{"status": "code_sent"})
}

// Verify exchanges the code for the final session blob, stores it encrypted
// and clears the pending record.
func (sc *SessionController) Verify(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var req VerifyRequest
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

	var pending models.PendingSession
	if err := sc.DB.Where("account_id = ?", account.ID).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No pending session",
			})
		}
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	session, err := sc.API.SessionVerify(req.Phone, req.Code, pending.Session, pending.PhoneCodeHash)
	if err != nil {
		return upstreamErrorResponse(c, err, "Failed to verify code")
	}

	encrypted, err := utils.Encrypt(session)
	if err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store session",
		})
	}

	tgSession := models.TelegramSession{
		AccountID:            account.ID,
		Phone:                pending.Phone,
		EncryptedSessionData: encrypted,
	}
	if err := sc.DB.Create(&tgSession).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	// Cache failure is not fatal, the DB row is the durable copy
	if err := sc.Store.Set(c.Context(), account.ID, session); err != nil {
		sc.Logger.Warnf("session cache write failed: %v", err)
	}

	if err := sc.DB.Delete(&models.PendingSession{}, "account_id = ?", account.ID).Error; err != nil {
		sc.Logger.Warnf("pending session cleanup failed: %v", err)
	}

	sc.Logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"session_id": tgSession.ID,
	}).Info("telegram session connected")

	return c.JSON(fiber.Map{
		"status":     "connected",
		"session_id": tgSession.ID,
	})
}

// Status lists the account's connected sessions.
func (sc *SessionController) Status(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var sessions []models.TelegramSession
	if err := sc.DB.Where("account_id = ?", account.ID).Find(&sessions).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	list := make([]fiber.Map, 0, len(sessions))
	for _, s := range sessions {
		list = append(list, fiber.Map{"id": s.ID, "phone": s.Phone})
	}
	return c.JSON(fiber.Map{"sessions": list})
}
