package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.Auth.JWTTTL != time.Hour {
		t.Fatalf("unexpected jwt ttl: %v", cfg.Auth.JWTTTL)
	}
	if cfg.Database.AuditStore != AuditStorePostgres {
		t.Fatalf("unexpected audit store: %s", cfg.Database.AuditStore)
	}
	if !cfg.Auth.InitAdminEnabled {
		t.Fatal("init-admin should default to enabled")
	}
	if cfg.CacheEnabled() {
		t.Fatal("cache should be disabled without REDIS_ADDR")
	}
	if cfg.Redis.ProfileTTL != 5*time.Minute {
		t.Fatalf("unexpected profile ttl: %v", cfg.Redis.ProfileTTL)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":               "9090",
		"AUDIT_STORE":        " Mongo ",
		"REDIS_ADDR":         "localhost:6379",
		"INIT_ADMIN_ENABLED": "false",
		"JWT_TTL":            "30m",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Port != "9090" || cfg.Database.AuditStore != AuditStoreMongo {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.CacheEnabled() || cfg.Auth.InitAdminEnabled {
		t.Fatalf("unexpected toggles: %+v", cfg)
	}
	if cfg.Auth.JWTTTL != 30*time.Minute {
		t.Fatalf("unexpected jwt ttl: %v", cfg.Auth.JWTTTL)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	tests := map[string]struct {
		env  map[string]string
		want string
	}{
		"unknown audit store": {map[string]string{"AUDIT_STORE": "sqlite"}, "AUDIT_STORE"},
		"production secrets":  {map[string]string{"ENV": "production"}, "JWT_SECRET must be set"},
		"zero rate limit":     {map[string]string{"AUTH_RATE_LIMIT": "0"}, "AUTH_RATE_LIMIT"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadWith(context.Background(), envconfig.MapLookuper(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
