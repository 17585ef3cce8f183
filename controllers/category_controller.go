package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telereach/models"
	"telereach/utils"
)

type CategoryController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewCategoryController(db *gorm.DB, logger *logrus.Logger) *CategoryController {
	return &CategoryController{
		DB:     db,
		Logger: logger.WithField("component", "category"),
	}
}

type CategoryRequest struct {
	Name        string   `json:"name" validate:"required"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
	Regex       string   `json:"regex"`
	Examples    []string `json:"examples"`
}

type categoryResponse struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Keywords     []string `json:"keywords"`
	Description  string   `json:"description"`
	RegexPattern string   `json:"regex_pattern,omitempty"`
	SampleChats  []string `json:"sample_chats"`
}

func toCategoryResponse(cat models.Category) categoryResponse {
	keywords := cat.Keywords()
	if keywords == nil {
		keywords = []string{}
	}
	samples := cat.SampleChats()
	if samples == nil {
		samples = []string{}
	}
	return categoryResponse{
		ID:           cat.ID,
		Name:         cat.Name,
		Keywords:     keywords,
		Description:  cat.Description,
		RegexPattern: cat.RegexPattern,
		SampleChats:  samples,
	}
}

// GetCategories lists the account's categories.
func (cc *CategoryController) GetCategories(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var categories []models.Category
	if err := cc.DB.Where("account_id = ?", account.ID).Find(&categories).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch categories",
		})
	}

	list := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		list = append(list, toCategoryResponse(cat))
	}
	return c.JSON(fiber.Map{"categories": list})
}

// CreateCategory stores a new keyword rule. List fields are serialized as
// JSON text in the row.
func (cc *CategoryController) CreateCategory(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)

	var req CategoryRequest
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

	keywordsJSON, _ := json.Marshal(req.Keywords)
	samplesJSON, _ := json.Marshal(req.Examples)

	category := models.Category{
		AccountID:       account.ID,
		Name:            req.Name,
		KeywordsJSON:    string(keywordsJSON),
		Description:     req.Description,
		RegexPattern:    req.Regex,
		SampleChatsJSON: string(samplesJSON),
	}
	if err := cc.DB.Create(&category).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	cc.Logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"category":   req.Name,
	}).Info("category created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": category.ID})
}

// UpdateCategory rewrites an existing rule, scoped to the owning account.
func (cc *CategoryController) UpdateCategory(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)
	categoryID := c.Params("id")

	var req CategoryRequest
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

	var category models.Category
	if err := cc.DB.Where("id = ? AND account_id = ?", categoryID, account.ID).First(&category).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Category not found",
		})
	}

	keywordsJSON, _ := json.Marshal(req.Keywords)
	samplesJSON, _ := json.Marshal(req.Examples)

	category.Name = req.Name
	category.KeywordsJSON = string(keywordsJSON)
	category.Description = req.Description
	category.RegexPattern = req.Regex
	category.SampleChatsJSON = string(samplesJSON)

	if err := cc.DB.Save(&category).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	return c.JSON(fiber.Map{"id": category.ID})
}

// DeleteCategory removes a rule. Existing customer_categories tags are left
// in place and become orphaned references by name.
func (cc *CategoryController) DeleteCategory(c *fiber.Ctx) error {
	account := c.Locals("account").(*models.Account)
	categoryID := c.Params("id")

	var category models.Category
	if err := cc.DB.Where("id = ? AND account_id = ?", categoryID, account.ID).First(&category).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Category not found",
		})
	}

	if err := cc.DB.Delete(&category).Error; err != nil {
		utils.ReportError(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "db error",
		})
	}

	return c.JSON(fiber.Map{"id": category.ID, "deleted": true})
}
