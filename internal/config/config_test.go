package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ClinicOpen != "09:00" || cfg.ClinicClose != "18:00" {
		t.Errorf("unexpected default hours %s-%s", cfg.ClinicOpen, cfg.ClinicClose)
	}
	if cfg.SlotMinutes != 30 {
		t.Errorf("expected 30-minute slots, got %d", cfg.SlotMinutes)
	}
	if cfg.ConflictScope != ScopeClinic {
		t.Errorf("expected clinic-wide conflict scope, got %s", cfg.ConflictScope)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected 10s request timeout, got %s", cfg.RequestTimeout)
	}
	if len(cfg.Doctors) == 0 {
		t.Error("expected a default doctor roster")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONFLICT_SCOPE", "doctor")
	t.Setenv("SLOT_MINUTES", "45")
	t.Setenv("CLINIC_DOCTORS", "Dr. A, Dr. B ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://crm.example.com")

	cfg := Load()

	if cfg.ConflictScope != ScopeDoctor {
		t.Errorf("expected doctor scope, got %s", cfg.ConflictScope)
	}
	if cfg.SlotMinutes != 45 {
		t.Errorf("expected 45-minute slots, got %d", cfg.SlotMinutes)
	}
	if len(cfg.Doctors) != 2 || cfg.Doctors[1] != "Dr. B" {
		t.Errorf("unexpected roster %v", cfg.Doctors)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}
