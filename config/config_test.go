package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "prod")

	cfg := LoadConfig()
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d", cfg.ServerPort)
	}
	if cfg.Store.Backend != StoreMongo {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if cfg.Events.Backend != EventsNone {
		t.Errorf("Events.Backend = %q", cfg.Events.Backend)
	}
	if cfg.Auth.JWTSecret != "" || cfg.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.CORS.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Store.MemoryTeachers != nil {
		t.Errorf("MemoryTeachers = %v", cfg.Store.MemoryTeachers)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("JWT_SECRET", "  s3cret  ")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://mergington.edu ,")
	t.Setenv("EVENTS_BACKEND", "RabbitMQ")
	t.Setenv("RABBITMQ_QUEUE_DURABLE", "false")
	t.Setenv("MEMORY_TEACHERS", "mrodriguez:art123, mchen:chess:456")

	cfg := LoadConfig()
	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d", cfg.ServerPort)
	}
	if cfg.Store.Backend != StorePostgres {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if !cfg.Database.UseSSL {
		t.Errorf("Database.UseSSL should be true")
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	want := []string{"http://localhost:3000", "https://mergington.edu"}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
	if cfg.Events.Backend != EventsRabbitMQ || cfg.RabbitMQ.QueueDurable {
		t.Errorf("events config = %+v %+v", cfg.Events, cfg.RabbitMQ)
	}
	wantTeachers := []string{"mrodriguez:art123", "mchen:chess:456"}
	if !reflect.DeepEqual(cfg.Store.MemoryTeachers, wantTeachers) {
		t.Errorf("MemoryTeachers = %v, want %v", cfg.Store.MemoryTeachers, wantTeachers)
	}
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("JWT_TTL", "-5m")
	t.Setenv("MINIO_USE_SSL", "maybe")

	cfg := LoadConfig()
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want default", cfg.ServerPort)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL = %v, want default", cfg.Auth.TokenTTL)
	}
	if cfg.Minio.UseSSL {
		t.Errorf("Minio.UseSSL should keep its default")
	}
}
