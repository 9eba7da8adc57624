package auth

import "testing"

func TestClientID(t *testing.T) {
	cases := []struct {
		name         string
		apiKey       string
		forwardedFor string
		remoteAddr   string
		want         string
	}{
		{
			name:       "api key wins over everything",
			apiKey:     "test_pro_key",
			remoteAddr: "10.0.0.1:1234",
			want:       "test_pro_key",
		},
		{
			name:         "api key wins over forwarded chain",
			apiKey:       " test_free_key ",
			forwardedFor: "203.0.113.9, 10.0.0.1",
			remoteAddr:   "10.0.0.1:1234",
			want:         "test_free_key",
		},
		{
			name:         "first forwarded entry when no api key",
			forwardedFor: "203.0.113.9, 198.51.100.2",
			remoteAddr:   "10.0.0.1:1234",
			want:         "203.0.113.9",
		},
		{
			name:       "remote address host as last resort",
			remoteAddr: "10.0.0.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "remote address without port",
			remoteAddr: "10.0.0.1",
			want:       "10.0.0.1",
		},
		{
			name:         "blank forwarded header falls through",
			forwardedFor: "  ",
			remoteAddr:   "10.0.0.1:1234",
			want:         "10.0.0.1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClientID(tc.apiKey, tc.forwardedFor, tc.remoteAddr)
			if got != tc.want {
				t.Fatalf("ClientID(%q, %q, %q) = %q, want %q",
					tc.apiKey, tc.forwardedFor, tc.remoteAddr, got, tc.want)
			}
		})
	}
}
