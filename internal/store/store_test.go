package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/bjtsim/internal/bjt"
	"github.com/verte-zerg/bjtsim/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "bjtsim.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndLoadSweep(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sw, err := bjt.OutputCharacteristics(50, "SL100")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	id, err := st.InsertSweep(ctx, sw, time.Unix(100, 0))
	if err != nil {
		t.Fatalf("insert sweep: %v", err)
	}
	loaded, err := st.LoadSweep(ctx, id)
	if err != nil {
		t.Fatalf("load sweep: %v", err)
	}
	if loaded.Kind != bjt.KindOutput || loaded.Device != "SL100" || loaded.Fixed != sw.Fixed {
		t.Fatalf("unexpected sweep header: %+v", loaded)
	}
	if len(loaded.Data) != len(sw.Data) {
		t.Fatalf("expected %d points, got %d", len(sw.Data), len(loaded.Data))
	}
	for i := range sw.Data {
		if loaded.Data[i] != sw.Data[i] {
			t.Fatalf("point %d: expected %+v, got %+v", i, sw.Data[i], loaded.Data[i])
		}
	}
}

func TestLoadSweepNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.LoadSweep(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRunsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	var ids []int64
	base := time.Unix(0, 0)
	for i, name := range []string{"SL100", "BC107", "SL100", "SL100"} {
		sw, err := bjt.InputCharacteristics(float64(i+1), name)
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		id, err := st.InsertSweep(ctx, sw, base.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, id)
	}
	tr, err := bjt.TransferCharacteristics(5, "SL100")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if _, err := st.InsertSweep(ctx, tr, base.Add(10*time.Second)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	all, err := st.ListRuns(ctx, model.RunFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 runs, got %d", len(all))
	}
	if all[0].Points != 21 || all[0].UUID == "" {
		t.Fatalf("unexpected first run: %+v", all[0])
	}

	runs, err := st.ListRuns(ctx, model.RunFilter{Device: "sl100", Kind: "input", Last: 2})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[3] {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[1].FixedValue != 4 || runs[1].FixedName != "VCE" {
		t.Fatalf("unexpected fixed value: %+v", runs[1])
	}
}

func TestParameters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0)
	for i, gain := range []float64{150, 160, 170} {
		params := bjt.Parameters{InputImpedance: 1, OutputImpedance: 2, CurrentGain: gain}
		if _, err := st.InsertParameters(ctx, "SL100", params, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("insert params: %v", err)
		}
	}
	if _, err := st.InsertParameters(ctx, "BC107", bjt.Parameters{CurrentGain: 250}, base); err != nil {
		t.Fatalf("insert params: %v", err)
	}

	recs, err := st.ListParameters(ctx, "sl100", 2)
	if err != nil {
		t.Fatalf("list params: %v", err)
	}
	if len(recs) != 2 || recs[0].CurrentGain != 160 || recs[1].CurrentGain != 170 {
		t.Fatalf("unexpected records: %+v", recs)
	}
	all, err := st.ListParameters(ctx, "", 0)
	if err != nil {
		t.Fatalf("list params: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
}
