package contracts

import (
	"testing"
	"time"
)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		total float64
		want  Bucket
	}{
		{100, BucketA},
		{80, BucketA},
		{79.999, BucketB},
		{60, BucketB},
		{59.999, BucketC},
		{40, BucketC},
		{39.999, BucketD},
		{0, BucketD},
	}

	for _, tt := range tests {
		if got := BucketFor(tt.total); got != tt.want {
			t.Errorf("BucketFor(%v) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestSubScores_TotalClamps(t *testing.T) {
	s := SubScores{Performance: 30, Volatility: -5, Sharpe: 25, Drawdown: 10}

	c := s.Clamped()
	if c.Performance != 25 || c.Volatility != 0 {
		t.Errorf("Clamped() = %+v", c)
	}
	if got := s.Total(); got != 60 {
		t.Errorf("Total() = %d, want 60", got)
	}
}

func TestNewScoreRecord(t *testing.T) {
	inst := Instrument{ID: "i1", Ticker: "VWCE.DE", Name: "Vanguard FTSE All-World"}
	asOf := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	rec := NewScoreRecord("run_1", inst, SubScores{25, 20, 20, 15}, Metrics{Return1Y: 31}, asOf)

	if rec.Total != 80 {
		t.Errorf("Total = %d, want 80", rec.Total)
	}
	if rec.Bucket != BucketA {
		t.Errorf("Bucket = %s, want A", rec.Bucket)
	}
	if rec.RunID != "run_1" || rec.InstrumentID != "i1" || rec.Ticker != "VWCE.DE" {
		t.Errorf("identity fields not copied: %+v", rec)
	}
	if !rec.RunDate.Equal(asOf) {
		t.Errorf("RunDate = %v, want %v", rec.RunDate, asOf)
	}
}

func TestAverageVolume(t *testing.T) {
	bars := []PriceBar{{Volume: 100}, {Volume: 300}}
	if got := AverageVolume(bars); got != 200 {
		t.Errorf("AverageVolume() = %v, want 200", got)
	}
	if got := AverageVolume(nil); got != 0 {
		t.Errorf("AverageVolume(nil) = %v, want 0", got)
	}
}
