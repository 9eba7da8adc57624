package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chromapages/support-gateway/internal/agent"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func chatRouter(scope string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if scope != "" {
			c.Set("scope", scope)
		}
		c.Next()
	})

	h := NewChatHandler(agent.NewStaticDispatcher())
	router.POST("/chat", h.Chat)
	return router
}

func postChat(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatDefaultsToGreeter(t *testing.T) {
	router := chatRouter("")

	w := postChat(router, `{"content": "hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp agent.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AgentType != agent.TypeGreeter {
		t.Fatalf("expected greeter, got %q", resp.AgentType)
	}
}

func TestChatScopeEnforcement(t *testing.T) {
	cases := []struct {
		name      string
		scope     string
		agentType string
		want      int
	}{
		{"read scope reaches greeter", "agents:read", agent.TypeGreeter, http.StatusOK},
		{"read scope blocked from product info", "agents:read", agent.TypeProductInfo, http.StatusForbidden},
		{"wildcard scope reaches product info", "agents:*", agent.TypeProductInfo, http.StatusOK},
		{"wildcard scope reaches email manager", "agents:*", agent.TypeEmail, http.StatusOK},
		{"no scope limited to greeter", "", agent.TypeContent, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := chatRouter(tc.scope)
			w := postChat(router, `{"content": "hello", "agent_type": "`+tc.agentType+`"}`)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestChatRejectsEmptyContent(t *testing.T) {
	router := chatRouter("agents:*")

	if w := postChat(router, `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing content, got %d", w.Code)
	}
}

func TestChatUnknownAgent(t *testing.T) {
	router := chatRouter("agents:*")

	w := postChat(router, `{"content": "hi", "agent_type": "astrologer"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown agent type, got %d", w.Code)
	}
}
