package ui_test

import (
	"strings"
	"testing"

	"github.com/ptscope/ptscope/pkg/ui"
)

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name  string
		val   float64
		width int
	}{
		{"Zero", 0.0, 5},
		{"Full", 1.0, 5},
		{"Half", 0.5, 5},
		{"Small", 0.1, 5},
		{"AlmostFull", 0.99, 5},
		{"Overflow", 1.5, 5},
		{"Underflow", -0.5, 5},
		{"Width1", 0.5, 1},
		{"Width0", 0.5, 0}, // Edge case
		{"VerySmall", 0.01, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("RenderSparkline panicked: %v", r)
				}
			}()
			got := ui.RenderSparkline(tt.val, tt.width)
			if len([]rune(got)) != tt.width {
				if tt.width > 0 { // Allow 0 length for 0 width
					t.Errorf("RenderSparkline length mismatch. Want %d, got %d ('%s')", tt.width, len([]rune(got)), got)
				}
			}
			if strings.Count(got, "\n") > 0 {
				t.Errorf("RenderSparkline contains newlines")
			}
			// Verify visibility for non-zero small values
			if tt.name == "VerySmall" && tt.width > 0 {
				if strings.TrimSpace(got) == "" {
					t.Errorf("RenderSparkline should show visible bar for small values, got empty/spaces: '%s'", got)
				}
			}
		})
	}
}

func TestRenderSparkline_FullIsAllBlocks(t *testing.T) {
	got := ui.RenderSparkline(1.0, 8)
	if got != strings.Repeat("█", 8) {
		t.Errorf("full sparkline = %q, want all blocks", got)
	}
}

func TestRenderForceBar(t *testing.T) {
	tests := []struct {
		name  string
		val   float64
		max   float64
		width int
	}{
		{"Positive", 2.5, 5.0, 21},
		{"Negative", -2.5, 5.0, 21},
		{"Zero", 0, 5.0, 21},
		{"MaxPositive", 5.0, 5.0, 21},
		{"MaxNegative", -5.0, 5.0, 21},
		{"OverMax", 9.0, 5.0, 21},
		{"ZeroMax", 1.0, 0, 21},
		{"EvenWidth", 1.0, 2.0, 20},
		{"TinyWidth", 1.0, 2.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ui.RenderForceBar(tt.val, tt.max, tt.width)
			if strings.Count(got, "\n") > 0 {
				t.Errorf("RenderForceBar contains newlines")
			}
			if !strings.Contains(got, "│") {
				t.Errorf("RenderForceBar missing center axis: %q", got)
			}
			want := tt.width
			if want%2 == 0 {
				want--
			}
			if want >= 3 && len([]rune(got)) != want {
				t.Errorf("RenderForceBar length = %d, want %d (%q)", len([]rune(got)), want, got)
			}
		})
	}
}

func TestRenderForceBar_Direction(t *testing.T) {
	got := ui.RenderForceBar(3.0, 3.0, 21)
	axis := strings.IndexRune(got, '│')
	if axis < 0 {
		t.Fatalf("no axis in %q", got)
	}
	left, right := got[:axis], got[axis+len("│"):]
	if strings.Contains(left, "█") {
		t.Errorf("positive bar leaked left of axis: %q", got)
	}
	if !strings.Contains(right, "█") {
		t.Errorf("positive bar missing right of axis: %q", got)
	}

	got = ui.RenderForceBar(-3.0, 3.0, 21)
	axis = strings.IndexRune(got, '│')
	left, right = got[:axis], got[axis+len("│"):]
	if !strings.Contains(left, "█") {
		t.Errorf("negative bar missing left of axis: %q", got)
	}
	if strings.Contains(right, "█") {
		t.Errorf("negative bar leaked right of axis: %q", got)
	}
}

func TestRenderHistogramRow(t *testing.T) {
	row := ui.RenderHistogramRow("20-40", 7, 10, 10)
	if !strings.HasPrefix(row, "20-40") {
		t.Errorf("row should start with the label: %q", row)
	}
	if !strings.Contains(row, "7") {
		t.Errorf("row should contain the count: %q", row)
	}
	if strings.Count(row, "\n") > 0 {
		t.Errorf("row contains newlines: %q", row)
	}

	// Zero max must not divide by zero.
	empty := ui.RenderHistogramRow("0-20", 0, 0, 10)
	if !strings.Contains(empty, "0") {
		t.Errorf("zero row should render a zero count: %q", empty)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hell…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
		{"héllo wörld", 6, "héllo…"},
	}
	for _, tt := range tests {
		if got := ui.Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
