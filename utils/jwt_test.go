package utils

import (
	"testing"

	"telereach/config"
	"telereach/models"
)

func testAccount() *models.Account {
	acct := &models.Account{Email: "a@example.com"}
	acct.ID = 42
	return acct
}

func TestJWTGenerateAndParse(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"

	access, refresh, err := GenerateJWTToken(testAccount())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if access == refresh {
		t.Fatal("access and refresh tokens are identical")
	}

	claims, err := ParseJWTToken(access)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != 42 {
		t.Fatalf("account id = %d, want 42", claims.AccountID)
	}
}

func TestJWTRejectsWrongKey(t *testing.T) {
	config.AppConfig.EncryptionKey = "first-key"
	access, _, err := GenerateJWTToken(testAccount())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	config.AppConfig.EncryptionKey = "second-key"
	if _, err := ParseJWTToken(access); err == nil {
		t.Fatal("token signed with another key accepted")
	}
}

func TestJWTRefreshIssuesNewPair(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"
	config.DB = openTestDB(t)
	acct := models.Account{Email: "a@example.com", PasswordHash: "x", IsActive: true}
	acct.ID = 42
	if err := config.DB.Create(&acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}

	_, refresh, err := GenerateJWTToken(testAccount())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	access2, refresh2, err := RefreshTokens(refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := ParseJWTToken(access2)
	if err != nil {
		t.Fatalf("parse refreshed access: %v", err)
	}
	if claims.AccountID != 42 {
		t.Fatalf("account id = %d, want 42", claims.AccountID)
	}
	if refresh2 == "" {
		t.Fatal("no new refresh token")
	}

	// An access token is not accepted as a refresh token
	if _, _, err := RefreshTokens(access2); err == nil {
		t.Fatal("access token accepted for refresh")
	}
}
