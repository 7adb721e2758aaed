package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// LoginRatePerMinute limits login attempts per client address.
	LoginRatePerMinute int `env:"HTTP_LOGIN_RATE_PER_MINUTE" envDefault:"30"`
	LoginBurst         int `env:"HTTP_LOGIN_BURST"           envDefault:"10"`

	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.LoginRatePerMinute < 0 {
		h.LoginRatePerMinute = 0
	}
	if h.LoginBurst < 1 {
		h.LoginBurst = 1
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}
