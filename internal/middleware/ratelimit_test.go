package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chromapages/support-gateway/internal/auth"
	"github.com/chromapages/support-gateway/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRegistry(clock ratelimit.Clock) *ratelimit.Registry {
	return ratelimit.NewRegistry(clock, map[string]ratelimit.TierLimits{
		"free": {RequestsPerMinute: 3, RequestsPerHour: 100, TokensPerRequest: 1},
		"pro":  {RequestsPerMinute: 60, RequestsPerHour: 1000, TokensPerRequest: 1},
	}, 0)
}

func admissionRouter(registry *ratelimit.Registry, tokens *auth.TokenService) *gin.Engine {
	router := gin.New()
	if tokens != nil {
		router.Use(BearerToken(tokens))
	}
	router.Use(Admission(registry, "free"))
	router.POST("/chat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{}`))
	req.RemoteAddr = remoteAddr
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdmissionHeaders(t *testing.T) {
	clock := ratelimit.NewManualClock(time.Unix(0, 0))
	router := admissionRouter(testRegistry(clock), nil)

	w := doRequest(router, "10.0.0.1:1234", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// Headers reflect the post-consumption state.
	checks := map[string]string{
		"X-RateLimit-Limit-Minute":     "3",
		"X-RateLimit-Remaining-Minute": "2",
		"X-RateLimit-Limit-Hour":       "100",
		"X-RateLimit-Remaining-Hour":   "99",
	}
	for header, want := range checks {
		if got := w.Header().Get(header); got != want {
			t.Fatalf("header %s = %q, want %q", header, got, want)
		}
	}
}

func TestAdmissionRejection(t *testing.T) {
	clock := ratelimit.NewManualClock(time.Unix(0, 0))

	handlerCalls := 0
	router := gin.New()
	router.Use(Admission(testRegistry(clock), "free"))
	router.POST("/chat", func(c *gin.Context) {
		handlerCalls++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		if w := doRequest(router, "10.0.0.1:1234", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := doRequest(router, "10.0.0.1:1234", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if handlerCalls != 3 {
		t.Fatalf("rejected request must not reach the handler, saw %d calls", handlerCalls)
	}

	var body struct {
		Error   string                 `json:"error"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid rejection body: %v", err)
	}
	if body.Error != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %q", body.Error)
	}
	if !strings.Contains(body.Message, "minute") {
		t.Fatalf("expected message to name the minute window, got %q", body.Message)
	}
	if body.Details["period"] != "minute" || body.Details["tier"] != "free" {
		t.Fatalf("unexpected details: %v", body.Details)
	}
}

func TestAdmissionDistinctClients(t *testing.T) {
	clock := ratelimit.NewManualClock(time.Unix(0, 0))
	router := admissionRouter(testRegistry(clock), nil)

	for i := 0; i < 4; i++ {
		doRequest(router, "10.0.0.1:1234", nil)
	}

	// A different connection address is a different client.
	w := doRequest(router, "10.0.0.2:1234", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected second client to be admitted, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining-Minute"); got != "2" {
		t.Fatalf("expected second client at full quota minus one, got %s", got)
	}
}

func TestAdmissionAPIKeyHeaderIdentity(t *testing.T) {
	clock := ratelimit.NewManualClock(time.Unix(0, 0))
	router := admissionRouter(testRegistry(clock), nil)

	// The same address with distinct API key headers gets distinct buckets.
	for i := 0; i < 4; i++ {
		doRequest(router, "10.0.0.1:1234", map[string]string{"X-API-Key": "key-one"})
	}

	w := doRequest(router, "10.0.0.1:1234", map[string]string{"X-API-Key": "key-two"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected key-two to have its own quota, got %d", w.Code)
	}
}

func TestAdmissionVerifiedTokenRaisesTier(t *testing.T) {
	clock := ratelimit.NewManualClock(time.Unix(0, 0))
	directory := auth.NewStaticDirectory(map[string]auth.KeyInfo{
		"pro-key": {Tier: "pro", Scope: "agents:*"},
	})
	tokens := auth.NewTokenService(directory, "test-secret", "HS256", 30)
	router := admissionRouter(testRegistry(clock), tokens)

	token, err := tokens.Issue(context.Background(), "pro-key")
	if err != nil {
		t.Fatal(err)
	}

	w := doRequest(router, "10.0.0.1:1234", map[string]string{
		"Authorization": "Bearer " + token.AccessToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit-Minute"); got != "60" {
		t.Fatalf("expected pro tier minute limit 60, got %s", got)
	}
}

func TestAdmissionInvalidBearerRejected(t *testing.T) {
	clock := ratelimit.NewManualClock(time.Unix(0, 0))
	tokens := auth.NewTokenService(auth.DefaultStaticDirectory(), "test-secret", "HS256", 30)
	router := admissionRouter(testRegistry(clock), tokens)

	w := doRequest(router, "10.0.0.1:1234", map[string]string{
		"Authorization": "Bearer garbage",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an invalid bearer token, got %d", w.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "AUTHENTICATION_FAILED" {
		t.Fatalf("expected AUTHENTICATION_FAILED, got %q", body.Error)
	}
}

func TestAdmissionUnknownDefaultTier(t *testing.T) {
	clock := ratelimit.NewManualClock(time.Unix(0, 0))
	router := gin.New()
	router.Use(Admission(testRegistry(clock), "platinum"))
	router.POST("/chat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// A misconfigured default tier is a deployment error, not a client one.
	w := doRequest(router, "10.0.0.1:1234", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unknown tier, got %d", w.Code)
	}
}

func TestThrottle(t *testing.T) {
	router := gin.New()
	router.Use(Throttle(1, 1))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request through, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected burst of 1 to throttle the second request, got %d", second.Code)
	}
}
