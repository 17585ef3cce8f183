package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"telereach/config"
	"telereach/models"
	"telereach/utils"
)

// openTestDB returns an isolated SQLite database in a temp directory with the
// full schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := config.MigrateDB(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeUpstream is a stand-in for the external sending service. Handlers are
// registered per path; unregistered paths return 404.
type fakeUpstream struct {
	srv      *httptest.Server
	mux      *http.ServeMux
	requests []string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{mux: http.NewServeMux()}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.URL.Path)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) handle(path string, status int, body interface{}) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			json.NewEncoder(w).Encode(body)
		}
	})
}

func testAPIClient(baseURL string) *utils.PythonAPIClient {
	client := utils.NewPythonAPIClient(quietLogger())
	client.BaseURL = baseURL
	return client
}

// newTestApp wires a fiber app with the campaign and analytics routes behind
// a stub auth middleware that injects the given account.
func newTestApp(t *testing.T, db *gorm.DB, api *utils.PythonAPIClient, account *models.Account) *fiber.App {
	t.Helper()

	store := utils.NewSessionStore(utils.NewMemoryKV())
	categorizer := utils.NewCategorizer(db, api, quietLogger(), false)
	campaignController := NewCampaignController(db, api, store, categorizer, quietLogger())
	analyticsController := NewAnalyticsController(db, quietLogger())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("account", account)
		c.Locals("accountID", account.ID)
		return c.Next()
	})

	app.Post("/campaigns", campaignController.CreateCampaign)
	app.Get("/campaigns", campaignController.GetCampaigns)
	app.Post("/campaigns/:id/start", campaignController.StartCampaign)
	app.Post("/campaigns/:id/stop", campaignController.StopCampaign)
	app.Post("/campaigns/:id/resume", campaignController.ResumeCampaign)
	app.Get("/campaigns/:id/status", campaignController.GetCampaignStatus)
	app.Get("/campaigns/:id/analytics", campaignController.GetCampaignAnalytics)
	app.Post("/campaigns/sent-logs", campaignController.IngestSentLogs)
	app.Get("/analytics/summary", analyticsController.GetSummary)
	app.Get("/track/click/:code", campaignController.HandleClickTracking)

	return app
}

func seedAccount(t *testing.T, db *gorm.DB, email string) *models.Account {
	t.Helper()
	account := models.Account{Email: email, PasswordHash: "x", PlanType: "basic", IsActive: true}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return &account
}

func seedSession(t *testing.T, db *gorm.DB, accountID uint, blob string) *models.TelegramSession {
	t.Helper()
	encrypted := ""
	if blob != "" {
		var err error
		encrypted, err = utils.Encrypt(blob)
		if err != nil {
			t.Fatalf("encrypt session blob: %v", err)
		}
	}
	session := models.TelegramSession{AccountID: accountID, Phone: "+15550000", EncryptedSessionData: encrypted}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return &session
}

func seedCampaign(t *testing.T, db *gorm.DB, accountID, sessionID uint, status string) *models.Campaign {
	t.Helper()
	campaign := models.Campaign{
		AccountID:         accountID,
		TelegramSessionID: sessionID,
		MessageText:       "hello there",
		Status:            status,
	}
	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return &campaign
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func campaignStatus(t *testing.T, db *gorm.DB, id uint) string {
	t.Helper()
	var campaign models.Campaign
	if err := db.First(&campaign, id).Error; err != nil {
		t.Fatalf("reload campaign: %v", err)
	}
	return campaign.Status
}
