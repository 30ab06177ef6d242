package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadWith(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "5000" || cfg.Host != "localhost" || cfg.Env != "development" {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.Mongo.ConnectTimeout != 5*time.Second || cfg.Mongo.SocketTimeout != 45*time.Second || cfg.Mongo.MaxPoolSize != 10 {
		t.Errorf("unexpected mongo defaults: %+v", cfg.Mongo)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis must be disabled by default")
	}
	if cfg.StorageStrategy() != domain.StorageDisk || cfg.Storage.MaxUploadBytes != 10<<20 {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Reminder.Schedule != "0 0 8 * * *" || cfg.Reminder.Window != 24*time.Hour {
		t.Errorf("unexpected reminder defaults: %+v", cfg.Reminder)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	if _, err := load(t, map[string]string{}); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown strategy":    {"STORAGE_STRATEGY": "s3"},
		"cloudinary no creds": {"STORAGE_STRATEGY": "cloudinary", "CLOUDINARY_CLOUD_NAME": "demo"},
		"zero upload limit":   {"MAX_UPLOAD_BYTES": "0"},
		"admin without pw":    {"ADMIN_EMAIL": "root@example.com"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			env["JWT_SECRET"] = "s"
			if _, err := load(t, env); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_StrategyNormalised(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s", "STORAGE_STRATEGY": " Memory "})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageStrategy() != domain.StorageMemory {
		t.Fatalf("got %q", cfg.StorageStrategy())
	}
}

func TestListenAddr(t *testing.T) {
	dev, _ := load(t, map[string]string{"JWT_SECRET": "s", "PORT": "8080"})
	if got := dev.ListenAddr(); got != "localhost:8080" {
		t.Errorf("dev ListenAddr = %q", got)
	}

	prod, _ := load(t, map[string]string{"JWT_SECRET": "s", "PORT": "8080", "ENV": "production", "HOST": "10.0.0.1"})
	if got := prod.ListenAddr(); got != ":8080" {
		t.Errorf("prod ListenAddr = %q", got)
	}
	if !prod.IsProduction() || dev.IsProduction() {
		t.Errorf("IsProduction mismatch")
	}

	if !strings.Contains(dev.Mongo.URI, "mongodb://") {
		t.Errorf("unexpected mongo uri %q", dev.Mongo.URI)
	}
}
