package quant

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.00000", "1"},
		{"0.00100", "0.001"},
		{"0.03", "0.03"},
		{"100", "100"},
		{"50500.000", "50500"},
		{"0", "0"},
	}

	for _, tt := range tests {
		got := FormatSize(decimal.RequireFromString(tt.input))
		if got != tt.expected {
			t.Errorf("FormatSize(%s) = %s; want %s", tt.input, got, tt.expected)
		}
	}
}

func TestTickSize(t *testing.T) {
	tests := []struct {
		szDecimals int32
		expected   string
	}{
		{0, "0.000001"},
		{3, "0.001"},
		{5, "0.1"},
		{6, "1"},
	}

	for _, tt := range tests {
		got := TickSize(tt.szDecimals)
		if !got.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("TickSize(%d) = %s; want %s", tt.szDecimals, got, tt.expected)
		}
	}
}

func TestSnapToTick(t *testing.T) {
	tests := []struct {
		px       string
		tick     string
		expected string
	}{
		{"50500", "0.001", "50500"},
		{"50500.0004", "0.001", "50500"},
		{"50500.0006", "0.001", "50500.001"},
		{"3030.15", "0.1", "3030.2"},
	}

	for _, tt := range tests {
		got := SnapToTick(decimal.RequireFromString(tt.px), decimal.RequireFromString(tt.tick))
		if !got.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("SnapToTick(%s, %s) = %s; want %s", tt.px, tt.tick, got, tt.expected)
		}
	}
}

func TestSignificantDigits(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"0", 0},
		{"50500", 5},
		{"123456", 6},
		{"0.00100", 1},
		{"0.001234", 4},
		{"1500.5", 5},
		{"1", 1},
	}

	for _, tt := range tests {
		got := SignificantDigits(decimal.RequireFromString(tt.input))
		if got != tt.expected {
			t.Errorf("SignificantDigits(%s) = %d; want %d", tt.input, got, tt.expected)
		}
	}
}

func TestRoundSigFigs(t *testing.T) {
	tests := []struct {
		input    string
		figs     int32
		expected string
	}{
		{"123456", 5, "123460"},
		{"123454", 5, "123450"},
		{"0.0012345678", 5, "0.0012346"},
		{"99999.9", 5, "100000"},
		{"50500", 5, "50500"},
		{"0", 5, "0"},
	}

	for _, tt := range tests {
		got := RoundSigFigs(decimal.RequireFromString(tt.input), tt.figs)
		if !got.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("RoundSigFigs(%s, %d) = %s; want %s", tt.input, tt.figs, got, tt.expected)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		px         string
		szDecimals int32
		expected   string
	}{
		{"50500", 3, "50500.000"},
		{"3030.2", 5, "3030.2"},
		{"0.081251", 0, "0.081251"},
	}

	for _, tt := range tests {
		got := FormatPrice(decimal.RequireFromString(tt.px), tt.szDecimals)
		if got != tt.expected {
			t.Errorf("FormatPrice(%s, %d) = %s; want %s", tt.px, tt.szDecimals, got, tt.expected)
		}
	}
}

func TestRoundSize_Idempotent(t *testing.T) {
	inputs := []string{"0.0301", "1.999999", "0.00049", "123.456789"}
	for _, in := range inputs {
		for szd := int32(0); szd <= 8; szd++ {
			once := RoundSize(decimal.RequireFromString(in), szd)
			twice := RoundSize(once, szd)
			if !once.Equal(twice) {
				t.Errorf("RoundSize(%s, %d) not idempotent: %s != %s", in, szd, once, twice)
			}
		}
	}
}
