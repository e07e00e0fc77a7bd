package alignment

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/nsew-imaging/chipstitch/core/fileaccess"
)

func Example_sidecarPathForComposite() {
	fmt.Println(SidecarPathForComposite("scans/plate03_stitched.tif"))
	fmt.Println(SidecarPathForComposite("plate.png"))
	fmt.Println(SidecarPathForComposite("noext"))

	// Output:
	// scans/plate03_stitched.alignment.json
	// plate.alignment.json
	// noext.alignment.json
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	store := makeTestStore(fs)

	record := makeTestRecord()
	sidecarPath := SidecarPathForComposite(record.CompositeOutputPath)

	if err := store.Save("", sidecarPath, record); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	read, err := store.Load("", sidecarPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if diff := cmp.Diff(record, read); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%v", diff)
	}
}

func TestSaveStampsCreatedAt(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	store := makeTestStore(fs) // mock timestamper queued with 1714558200

	record := makeTestRecord()
	record.CreatedAt = ""

	if err := store.Save("", "r.alignment.json", record); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if record.CreatedAt != "2024-05-01T10:10:00Z" {
		t.Errorf("created_at not stamped from timestamper: %v", record.CreatedAt)
	}
}

func TestSaveRejectsIncompleteRecord(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	store := makeTestStore(fs)

	record := makeTestRecord()
	record.Regions[0].Translation = nil

	err := store.Save("", "r.alignment.json", record)
	var incomplete *IncompleteRecordError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteRecordError, got %v", err)
	}
	if incomplete.Stage != StageCompleteness {
		t.Errorf("expected completeness stage, got %v", incomplete.Stage)
	}

	// Nothing may have been written
	if exists, _ := fs.ObjectExists("", "r.alignment.json"); exists {
		t.Errorf("incomplete record was persisted anyway")
	}
}

func TestLoadCorruptAndIncomplete(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	store := makeTestStore(fs)

	fs.WriteObject("", "corrupt.alignment.json", []byte("{not json at all"))
	_, err := store.Load("", "corrupt.alignment.json")
	var corrupted *CorruptedRecordError
	if !errors.As(err, &corrupted) {
		t.Errorf("expected CorruptedRecordError, got %v", err)
	}

	// Valid JSON, wrong shape for translation
	fs.WriteObject("", "badshape.alignment.json", []byte(`{"schema_version":"1.0","regions":[{"region_id":"NE","translation":"not-an-array"}]}`))
	_, err = store.Load("", "badshape.alignment.json")
	var incomplete *IncompleteRecordError
	if !errors.As(err, &incomplete) {
		t.Errorf("expected IncompleteRecordError for wrong shape, got %v", err)
	}

	// Valid JSON, translation tuple with the wrong number of elements - must
	// surface as a format failure, never load as (5, 0)
	fs.WriteObject("", "badarity.alignment.json", []byte(`{"schema_version":"1.0","regions":[{"region_id":"NE","translation":[5]}]}`))
	_, err = store.Load("", "badarity.alignment.json")
	if !errors.As(err, &incomplete) {
		t.Errorf("expected IncompleteRecordError for 1-element translation, got %v", err)
	} else if incomplete.Stage != StageFormat {
		t.Errorf("wrong-arity tuple should fail the format stage, got %v", incomplete.Stage)
	}

	// Valid JSON, required top-level fields absent
	fs.WriteObject("", "empty.alignment.json", []byte(`{}`))
	_, err = store.Load("", "empty.alignment.json")
	if !errors.As(err, &incomplete) {
		t.Errorf("expected IncompleteRecordError for missing fields, got %v", err)
	}

	// Missing file is a persistence error, not corruption
	_, err = store.Load("", "nope.alignment.json")
	var persistence *PersistenceError
	if !errors.As(err, &persistence) {
		t.Errorf("expected PersistenceError for missing file, got %v", err)
	}
}

func TestFindLatestSidecar(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	store := makeTestStore(fs)

	older := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	fs.WriteObject("", "scans/a.alignment.json", []byte("{}"))
	fs.ModTimes["scans/a.alignment.json"] = older
	fs.WriteObject("", "scans/b.alignment.json", []byte("{}"))
	fs.ModTimes["scans/b.alignment.json"] = newer
	fs.WriteObject("", "scans/notasidecar.json", []byte("{}"))
	fs.ModTimes["scans/notasidecar.json"] = newer.Add(time.Hour)
	// Sidecars in subdirectories don't count
	fs.WriteObject("", "scans/archive/c.alignment.json", []byte("{}"))
	fs.ModTimes["scans/archive/c.alignment.json"] = newer.Add(time.Hour)

	got, err := store.FindLatestSidecar("", "scans")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got != "scans/b.alignment.json" {
		t.Errorf("expected newest sidecar, got %v", got)
	}
}

// Filesystems with coarse timestamps produce ties - the pick must still be
// deterministic: lexicographically greatest path wins
func TestFindLatestSidecarTieBreak(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	store := makeTestStore(fs)

	same := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, name := range []string{"scans/run_2.alignment.json", "scans/run_10.alignment.json", "scans/run_1.alignment.json"} {
		fs.WriteObject("", name, []byte("{}"))
		fs.ModTimes[name] = same
	}

	for i := 0; i < 3; i++ {
		got, err := store.FindLatestSidecar("", "scans")
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		if got != "scans/run_2.alignment.json" {
			t.Errorf("tie-break not deterministic: got %v", got)
		}
	}
}

func TestFindLatestSidecarNone(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()
	fs.WriteObject("", "scans/image.tif", []byte("x"))
	store := makeTestStore(fs)

	_, err := store.FindLatestSidecar("", "scans")
	if !errors.Is(err, ErrNoSidecarFound) {
		t.Errorf("expected ErrNoSidecarFound, got %v", err)
	}
}
