package device

import (
	"errors"
	"testing"
)

func TestRegistryInvariants(t *testing.T) {
	all := All()
	if len(all) < 2 {
		t.Fatalf("expected at least 2 registered parts, got %d", len(all))
	}
	for _, p := range all {
		if p.IS <= 0 || p.VT <= 0 || p.VA <= 0 || p.Beta <= 0 {
			t.Fatalf("%s: IS, VT, VA and beta must be positive: %+v", p.Name, p)
		}
		if p.ICMax <= 0 {
			t.Fatalf("%s: IC max must be positive", p.Name)
		}
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup(" bc107 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.Name != "BC107" || p.Beta != 250 || p.Package != "TO-18" {
		t.Fatalf("unexpected params: %+v", p)
	}
	if got := p.ICMaxAmps(); got != 0.1 {
		t.Fatalf("expected 0.1 A, got %v", got)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("2N2222")
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected ErrUnknownDevice, got %v", err)
	}
}

func TestNext(t *testing.T) {
	if got := Next("BC107", 1); got != "SL100" {
		t.Fatalf("expected SL100, got %s", got)
	}
	if got := Next("BC107", -1); got != "SL100" {
		t.Fatalf("expected wrap to SL100, got %s", got)
	}
	if got := Next("SL100", 2); got != "SL100" {
		t.Fatalf("expected SL100, got %s", got)
	}
}

func TestPolarityString(t *testing.T) {
	if NPN.String() != "NPN" || PNP.String() != "PNP" {
		t.Fatalf("unexpected polarity strings")
	}
}
