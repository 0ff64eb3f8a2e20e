package config

import (
	"testing"
	"time"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOCK_TIMEOUT", "250ms")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.LockTimeout != 250*time.Millisecond {
		t.Errorf("LockTimeout = %s, want 250ms", cfg.LockTimeout)
	}
}

func TestGetDuration_Invalid(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT", "not-a-duration")
	if got := getDuration("LOCK_TIMEOUT", 3*time.Second); got != 3*time.Second {
		t.Errorf("getDuration = %s, want default 3s", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid",
			config: Config{
				DatabaseURL: "postgres://localhost/divvy",
				JWTSecret:   "secret",
				LockTimeout: 3 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "missing database url",
			config: Config{
				JWTSecret:   "secret",
				LockTimeout: 3 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "missing jwt secret",
			config: Config{
				DatabaseURL: "postgres://localhost/divvy",
				LockTimeout: 3 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "non-positive lock timeout",
			config: Config{
				DatabaseURL: "postgres://localhost/divvy",
				JWTSecret:   "secret",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
