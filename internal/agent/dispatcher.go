package agent

import (
	"context"
	"fmt"
	"strings"
)

// Dispatcher routes a support message to a specialist agent and returns its
// reply. The LLM-backed implementation lives outside this repo; the gateway
// only depends on this contract.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (Response, error)
}

type Request struct {
	Content   string `json:"content" binding:"required,min=1,max=1000"`
	AgentType string `json:"agent_type"`
}

type Response struct {
	Response  string `json:"response"`
	AgentType string `json:"agent_type"`
}

// Known specialist agents.
const (
	TypeGreeter     = "greeter"
	TypeProductInfo = "product_info"
	TypeEmail       = "email_manager"
	TypeContent     = "content_manager"
)

// ErrUnknownAgent is returned for agent types outside the known set.
var ErrUnknownAgent = fmt.Errorf("unknown agent type")

// StaticDispatcher is a stand-in dispatcher used when no model backend is
// wired up. It answers with canned per-agent responses so the gateway can
// run end to end.
type StaticDispatcher struct {
	replies map[string]string
}

func NewStaticDispatcher() *StaticDispatcher {
	return &StaticDispatcher{
		replies: map[string]string{
			TypeGreeter:     "Hello! Welcome to ChromaPages support. How can I help you today?",
			TypeProductInfo: "ChromaPages helps you build and publish custom pages. What would you like to know?",
			TypeEmail:       "I can help you manage your email campaigns. What do you need?",
			TypeContent:     "I can help with content questions. What are you working on?",
		},
	}
}

func (d *StaticDispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	agentType := strings.TrimSpace(req.AgentType)
	if agentType == "" {
		agentType = TypeGreeter
	}

	reply, ok := d.replies[agentType]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownAgent, agentType)
	}

	return Response{Response: reply, AgentType: agentType}, nil
}
