package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/bjtsim/internal/bjt"
)

func TestRenderSweep(t *testing.T) {
	sw, err := bjt.InputCharacteristics(5, "SL100")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderSweep(&buf, sw, Options{Width: 40, Height: 6}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Input characteristics (SL100, VCE=5V)", "VBE (V)", "IB (μA)", "3333.3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderSweepTable(t *testing.T) {
	sw := bjt.SweepResult{
		Kind: bjt.KindTransfer,
		Data: []bjt.Point{{X: 0, Y: 0}, {X: 10, Y: 2.5}},
	}
	var buf bytes.Buffer
	if err := RenderSweepTable(&buf, sw); err != nil {
		t.Fatalf("render table: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "IB (μA) IC (mA)" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "     10     2.5" {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestRenderParameters(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderParameters(&buf, bjt.Parameters{InputImpedance: 909.09, CurrentGain: 250}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"909.09 kΩ", "0.00 kΩ", "250.0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
