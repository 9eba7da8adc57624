package apierror

import (
	"errors"
	"net/http"
	"testing"
)

func TestToResponse(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "rate limit",
			err:        RateLimit("Rate limit exceeded: Too many requests per minute", 20, "minute", "free"),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMIT_EXCEEDED",
		},
		{
			name:       "authentication",
			err:        New(KindAuthentication, "Invalid API key"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTHENTICATION_FAILED",
		},
		{
			name:       "configuration",
			err:        New(KindConfiguration, "unknown tier"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "CONFIGURATION_ERROR",
		},
		{
			name:       "internal kind",
			err:        New(KindInternal, "something broke"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := ToResponse(tc.err)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", status, tc.wantStatus)
			}
			if body.Error != tc.wantCode {
				t.Fatalf("code = %q, want %q", body.Error, tc.wantCode)
			}
		})
	}
}

func TestRateLimitDetails(t *testing.T) {
	err := RateLimit("Rate limit exceeded: Too many requests per hour", 100, "hour", "free")

	_, body := ToResponse(err)
	if body.Details["limit"] != 100 || body.Details["period"] != "hour" || body.Details["tier"] != "free" {
		t.Fatalf("unexpected details: %v", body.Details)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := Wrap(KindAuthentication, "Invalid or expired token", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected Unwrap to expose the cause")
	}
	if err.Error() != "Invalid or expired token: signature mismatch" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
