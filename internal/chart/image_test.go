package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/bjtsim/internal/bjt"
)

func TestWriteImagePNG(t *testing.T) {
	sw, err := bjt.OutputCharacteristics(50, "SL100")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteImage(&buf, "png", sw); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG signature")
	}
}

func TestSaveImageSVG(t *testing.T) {
	a, err := bjt.TransferCharacteristics(5, "BC107")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	b, err := bjt.TransferCharacteristics(10, "BC107")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	path := filepath.Join(t.TempDir(), "transfer.svg")
	if err := SaveImage(path, a, b); err != nil {
		t.Fatalf("save image: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Fatalf("expected svg output")
	}
}

func TestImageRejectsMixedKinds(t *testing.T) {
	in, _ := bjt.InputCharacteristics(5, "SL100")
	out, _ := bjt.OutputCharacteristics(50, "SL100")
	var buf bytes.Buffer
	if err := WriteImage(&buf, "png", in, out); err == nil {
		t.Fatalf("expected error for mixed kinds")
	}
	if err := WriteImage(&buf, "png"); err == nil {
		t.Fatalf("expected error for no sweeps")
	}
}
