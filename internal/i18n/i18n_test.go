package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leafline-next/internal/constants"

	"github.com/gin-gonic/gin"
)

func requestContext(t *testing.T, target string, header map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestResolveLocaleQueryOverridesHeader(t *testing.T) {
	c := requestContext(t, "/api/v1/public/config?lang=es-US", map[string]string{
		"Accept-Language": "en-US",
	})
	if got := ResolveLocale(c); got != constants.LocaleEsUS {
		t.Fatalf("query lang should win, got %s", got)
	}
}

func TestResolveLocaleAcceptLanguageBaseMatch(t *testing.T) {
	c := requestContext(t, "/api/v1/public/config", map[string]string{
		"Accept-Language": "fr-FR,es;q=0.8,en;q=0.5",
	})
	if got := ResolveLocale(c); got != constants.LocaleEsUS {
		t.Fatalf("base tag es should match es-US, got %s", got)
	}
}

func TestResolveLocaleFallsBackToEnglish(t *testing.T) {
	c := requestContext(t, "/api/v1/public/config?lang=de", map[string]string{
		"Accept-Language": "zh-CN",
	})
	if got := ResolveLocale(c); got != constants.LocaleEnUS {
		t.Fatalf("unsupported tags should fall back to en-US, got %s", got)
	}
	if got := ResolveLocale(nil); got != constants.LocaleEnUS {
		t.Fatalf("nil context should fall back to en-US, got %s", got)
	}
}

func TestTranslationFallback(t *testing.T) {
	if got := T(constants.LocaleEsUS, "error.order_not_found"); got != "pedido no encontrado" {
		t.Fatalf("unexpected spanish message: %s", got)
	}
	if got := T("zz-ZZ", "error.order_not_found"); got != "order not found" {
		t.Fatalf("unknown locale should fall back to english, got: %s", got)
	}
	if got := T(constants.LocaleEnUS, "error.nonexistent_key"); got != "error.nonexistent_key" {
		t.Fatalf("missing key should return the key, got: %s", got)
	}
}

func TestSprintfSubstitutesArgs(t *testing.T) {
	if got := Sprintf(constants.LocaleEnUS, "error.rate_limited", 30); got != "too many requests, retry in 30 seconds" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}
