package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{45 * time.Second, "45s ago"},
		{125 * time.Second, "2m ago"},
		{3725 * time.Second, "1h 2m ago"},
		{72 * time.Hour, "3d ago"},
		{-time.Minute, "0s ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("FormatAge(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestFormatSigned(t *testing.T) {
	if got := FormatSigned(decimal.NewFromInt(120), "USD", i18n.English); got != "+$120.00" {
		t.Errorf("positive = %q", got)
	}
	if got := FormatSigned(decimal.NewFromInt(-5), "USD", i18n.English); got != "-$5.00" {
		t.Errorf("negative = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Hotel", 10, "Hotel"},
		{"Hotel booking", 6, "Hotel…"},
		{"فندق الرياض", 4, "فند…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestRenderTableAlignsWideCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows:    [][]string{{"طيران", "$1.00"}, {"Hotel", "$250.00"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "طيران") || !strings.Contains(out, "$250.00") {
		t.Errorf("table missing cells:\n%s", out)
	}
}

func TestRenderProgressBarClamps(t *testing.T) {
	if got := RenderProgressBar(1.7, 10); !strings.Contains(got, "100.0%") {
		t.Errorf("over-full bar = %q", got)
	}
	if got := RenderProgressBar(0.5, 0); got != "" {
		t.Errorf("zero width = %q", got)
	}
}

func TestRenderStatusUsesLocalizedLabel(t *testing.T) {
	if got := RenderStatus(model.StatusAdequate, i18n.English); !strings.Contains(got, "Adequate") {
		t.Errorf("RenderStatus = %q", got)
	}
}
