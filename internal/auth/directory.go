package auth

import (
	"context"

	"github.com/chromapages/support-gateway/internal/apierror"
)

// KeyInfo is what the credential directory knows about an API key.
type KeyInfo struct {
	Tier  string
	Scope string
}

// KeyDirectory resolves an API key to its tier and scope. Implementations
// must return an authentication error for unknown keys, never a default.
type KeyDirectory interface {
	Lookup(ctx context.Context, apiKey string) (KeyInfo, error)
}

// StaticDirectory is an in-memory directory, used as the default when no
// database is configured and in tests.
type StaticDirectory struct {
	keys map[string]KeyInfo
}

func NewStaticDirectory(keys map[string]KeyInfo) *StaticDirectory {
	return &StaticDirectory{keys: keys}
}

// DefaultStaticDirectory holds the three documented example keys.
func DefaultStaticDirectory() *StaticDirectory {
	return NewStaticDirectory(map[string]KeyInfo{
		"test_free_key":       {Tier: "free", Scope: "agents:read"},
		"test_pro_key":        {Tier: "pro", Scope: "agents:*"},
		"test_enterprise_key": {Tier: "enterprise", Scope: "agents:*"},
	})
}

func (d *StaticDirectory) Lookup(ctx context.Context, apiKey string) (KeyInfo, error) {
	info, ok := d.keys[apiKey]
	if !ok {
		return KeyInfo{}, apierror.New(apierror.KindAuthentication, "Invalid API key")
	}
	return info, nil
}
