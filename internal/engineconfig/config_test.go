package engineconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wonny/aurora/engine/pkg/config"
)

func baseEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		LookbackDays:     365,
		MinBars:          200,
		RiskFreeRate:     0.04,
		StaleRunWindow:   time.Hour,
		MaxInstruments:   8,
		MinAllocationPct: 5,
	}
}

func TestLoad_RepoProfile(t *testing.T) {
	path := "../../config/engine.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Meta.ProfileID != "aurora_default" {
		t.Errorf("expected profile_id=aurora_default, got %s", p.Meta.ProfileID)
	}

	// 기본 프로필 = 기본 환경값
	got, err := p.Apply(baseEngineConfig())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != baseEngineConfig() {
		t.Errorf("default profile changed parameters: %+v", got)
	}
}

func TestParse_Overlay(t *testing.T) {
	yamlData := []byte(`
meta:
  profile_id: aggressive
allocation:
  max_instruments: 5
  min_allocation_pct: 10
`)
	p, err := Parse(yamlData)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got, err := p.Apply(baseEngineConfig())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got.MaxInstruments != 5 || got.MinAllocationPct != 10 {
		t.Errorf("overlay not applied: %+v", got)
	}
	if got.MinBars != 200 || got.LookbackDays != 365 {
		t.Errorf("unset fields must keep base values: %+v", got)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte(`
meta:
  profile_id: typo
scoring:
  min_barz: 100
`))
	if err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"missing id", "scoring:\n  min_bars: 100\n", "meta.profile_id"},
		{"min bars", "meta:\n  profile_id: x\nscoring:\n  min_bars: 1\n", "scoring.min_bars"},
		{"bars over lookback", "meta:\n  profile_id: x\nscoring:\n  min_bars: 300\n  lookback_days: 200\n", "scoring.min_bars"},
		{"risk free", "meta:\n  profile_id: x\nscoring:\n  risk_free_rate: 0.5\n", "scoring.risk_free_rate"},
		{"max instruments", "meta:\n  profile_id: x\nallocation:\n  max_instruments: 0\n", "allocation.max_instruments"},
		{"min pct", "meta:\n  profile_id: x\nallocation:\n  min_allocation_pct: 100\n", "allocation.min_allocation_pct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestApply_BadDuration(t *testing.T) {
	p, err := Parse([]byte("meta:\n  profile_id: x\nscoring:\n  stale_run_window: soon\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := p.Apply(baseEngineConfig()); err == nil {
		t.Error("expected duration error")
	}
}

func TestHash(t *testing.T) {
	base := baseEngineConfig()

	hash, err := Hash(base)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(base)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}

	changed := base
	changed.MinAllocationPct = 4
	hash3, _ := Hash(changed)
	if hash == hash3 {
		t.Error("different parameters must hash differently")
	}
}

func TestResolve(t *testing.T) {
	base := baseEngineConfig()

	got, hash, err := Resolve("", base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != base || hash == "" {
		t.Errorf("empty path must return base with a hash")
	}

	path := filepath.Join(t.TempDir(), "p.yaml")
	if err := os.WriteFile(path, []byte("meta:\n  profile_id: x\nallocation:\n  max_instruments: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, hash2, err := Resolve(path, base)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.MaxInstruments != 3 {
		t.Errorf("expected max_instruments=3, got %d", got.MaxInstruments)
	}
	if hash2 == hash {
		t.Error("overlay must change the hash")
	}

	if _, _, err := Resolve(filepath.Join(t.TempDir(), "missing.yaml"), base); err == nil {
		t.Error("expected error for missing file")
	}
}
