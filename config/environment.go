package config

import (
	"os"
	"strings"
)

type Environment struct {
	IsDevelopment  bool
	Domain         string
	CookieSecure   bool
	AllowedOrigins []string
}

var Env Environment

func init() {
	// Get domain from environment variable
	domain := os.Getenv("COOKIE_DOMAIN")

	// If no domain is set, we're in development
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	origins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	Env = Environment{
		IsDevelopment:  isDev,
		Domain:         domain,
		CookieSecure:   !isDev,
		AllowedOrigins: origins,
	}
}
