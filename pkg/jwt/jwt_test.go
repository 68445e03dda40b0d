package jwt

import (
	"testing"
	"time"

	"github.com/Novikova-EY/arm-gs/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		SecretKey:  "test-secret-key-for-unit-testing-2026",
		SessionTTL: 12 * time.Hour,
	})
}

func TestGenerateAndParseSessionToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateSessionToken(7, "operator", "admin")
	if err != nil {
		t.Fatalf("GenerateSessionToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != 7 {
		t.Errorf("期望 UserID=7，实际=%d", claims.UserID)
	}
	if claims.Username != "operator" {
		t.Errorf("期望 Username=operator，实际=%s", claims.Username)
	}
	if claims.Capability != "admin" {
		t.Errorf("期望 Capability=admin，实际=%s", claims.Capability)
	}
	if claims.Issuer != "arm-gs" {
		t.Errorf("期望 Issuer=arm-gs，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}

	ttl := claims.RemainingTTL()
	if ttl < 11*time.Hour || ttl > 13*time.Hour {
		t.Errorf("会话 TTL 期望约12h，实际=%v", ttl)
	}
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m := NewManager(&config.AuthConfig{SecretKey: "test-secret-key-for-unit-testing-2026"})
	if m.SessionTTL() != 12*time.Hour {
		t.Errorf("未配置 TTL 时期望默认 12h，实际=%v", m.SessionTTL())
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		SecretKey:  "different-secret-key-0123456789",
		SessionTTL: time.Hour,
	})

	token, _ := m1.GenerateSessionToken(1, "admin", "super-admin")
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		SecretKey:  "test-secret-key-for-unit-testing-2026",
		SessionTTL: time.Millisecond,
	})

	token, _ := m.GenerateSessionToken(1, "admin", "admin")
	time.Sleep(10 * time.Millisecond)

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
