package controller

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"telereach/config"
	"telereach/models"
)

func newCategoryApp(t *testing.T, db *gorm.DB, account *models.Account) *fiber.App {
	t.Helper()
	cc := NewCategoryController(db, quietLogger())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("account", account)
		return c.Next()
	})
	app.Get("/categories", cc.GetCategories)
	app.Post("/categories", cc.CreateCategory)
	app.Put("/categories/:id", cc.UpdateCategory)
	app.Delete("/categories/:id", cc.DeleteCategory)
	return app
}

func TestCategoryCRUD(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"
	db := openTestDB(t)
	account := seedAccount(t, db, "a@example.com")
	app := newCategoryApp(t, db, account)

	resp := doJSON(t, app, http.MethodPost, "/categories", map[string]interface{}{
		"name":        "vip",
		"keywords":    []string{"premium", "upgrade"},
		"description": "high intent buyers",
		"examples":    []string{"I want the premium plan"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/categories", nil)
	body := decodeBody(t, resp)
	list := body["categories"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("categories = %v, want 1", list)
	}
	cat := list[0].(map[string]interface{})
	keywords := cat["keywords"].([]interface{})
	if len(keywords) != 2 || keywords[0] != "premium" {
		t.Fatalf("keywords = %v", keywords)
	}

	resp = doJSON(t, app, http.MethodPut, "/categories/1", map[string]interface{}{
		"name":     "vip",
		"keywords": []string{"premium"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	var stored models.Category
	db.First(&stored, 1)
	if got := stored.Keywords(); len(got) != 1 || got[0] != "premium" {
		t.Fatalf("stored keywords = %v", got)
	}

	resp = doJSON(t, app, http.MethodDelete, "/categories/1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count != 0 {
		t.Fatalf("categories remaining = %d, want 0", count)
	}
}

func TestCategoryScopedToAccount(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"
	db := openTestDB(t)
	owner := seedAccount(t, db, "a@example.com")
	intruder := seedAccount(t, db, "b@example.com")

	ownerApp := newCategoryApp(t, db, owner)
	resp := doJSON(t, ownerApp, http.MethodPost, "/categories", map[string]interface{}{
		"name":     "vip",
		"keywords": []string{"premium"},
	})
	resp.Body.Close()

	intruderApp := newCategoryApp(t, db, intruder)

	resp = doJSON(t, intruderApp, http.MethodGet, "/categories", nil)
	body := decodeBody(t, resp)
	if len(body["categories"].([]interface{})) != 0 {
		t.Fatal("foreign categories leaked")
	}

	resp = doJSON(t, intruderApp, http.MethodDelete, "/categories/1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign delete status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count != 1 {
		t.Fatalf("category deleted by foreign account")
	}
}

func TestCategoryDeleteKeepsExistingTags(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"
	db := openTestDB(t)
	account := seedAccount(t, db, "a@example.com")
	app := newCategoryApp(t, db, account)

	resp := doJSON(t, app, http.MethodPost, "/categories", map[string]interface{}{
		"name":     "vip",
		"keywords": []string{"premium"},
	})
	resp.Body.Close()

	db.Create(&models.CustomerCategory{
		AccountID:       account.ID,
		UserPhone:       "+15550000",
		Category:        "vip",
		ConfidenceScore: 0.8,
	})

	resp = doJSON(t, app, http.MethodDelete, "/categories/1", nil)
	resp.Body.Close()

	var count int64
	db.Model(&models.CustomerCategory{}).Count(&count)
	if count != 1 {
		t.Fatalf("tags = %d, want 1 surviving tag", count)
	}
}
