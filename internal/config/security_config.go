package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetEnableRateLimiting() bool
	GetRateLimit() (perSecond int, burst int)
	GetTrustProxyHeaders() bool
}

type Security struct {
	src source
}

var _ SecurityConfig = Security{}

func (s Security) GetMaxSessionAge() time.Duration {
	return parseDuration(s.src.get("SESSION_MAX_AGE", ""), 12*time.Hour)
}

func (s Security) GetEnableRateLimiting() bool {
	enabled, _ := strconv.ParseBool(s.src.get("RATE_LIMIT", "false"))
	return enabled
}

// GetTrustProxyHeaders reports whether X-Forwarded-For names the client. Only
// enable it when a reverse proxy that overwrites the header fronts the server.
func (s Security) GetTrustProxyHeaders() bool {
	trusted, _ := strconv.ParseBool(s.src.get("TRUST_PROXY", "false"))
	return trusted
}

func (s Security) GetRateLimit() (int, int) {
	perSecond, err := strconv.Atoi(s.src.get("RATE_LIMIT_PER_SECOND", "5"))
	if err != nil || perSecond <= 0 {
		perSecond = 5
	}
	burst, err := strconv.Atoi(s.src.get("RATE_LIMIT_BURST", "10"))
	if err != nil || burst <= 0 {
		burst = 10
	}
	return perSecond, burst
}
