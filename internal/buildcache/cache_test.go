package buildcache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/janus-lang/janus-sub014/internal/cid"
)

func mustCID(b byte) cid.CID {
	var c cid.CID
	c[0] = b
	return c
}

func TestStoreThenLoadRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	id := mustCID(42)
	want := []byte("artifact bytes")

	if err := c.Store(id, "npu-O2", want); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := c.Load(id, "npu-O2")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Load = %q, want %q", got, want)
	}
	if !c.Exists(id, "npu-O2") {
		t.Errorf("Exists = false, want true after Store")
	}
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	c := New(t.TempDir())
	_, err := c.Load(mustCID(1), "npu-O2")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on missing artifact = %v, want ErrNotFound", err)
	}
}

func TestListFlavorsEmptyForUnknownCID(t *testing.T) {
	c := New(t.TempDir())
	flavors := c.ListFlavors(mustCID(9))
	if len(flavors) != 0 {
		t.Errorf("ListFlavors = %v, want empty for unknown CID", flavors)
	}
}

func TestListFlavorsEnumeratesStoredArtifacts(t *testing.T) {
	c := New(t.TempDir())
	id := mustCID(3)
	if err := c.Store(id, "npu-O2", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := c.Store(id, "npu-O0", []byte("b")); err != nil {
		t.Fatal(err)
	}
	flavors := c.ListFlavors(id)
	found := map[string]bool{}
	for _, f := range flavors {
		found[f] = true
	}
	if !found["npu-O2"] || !found["npu-O0"] {
		t.Errorf("ListFlavors = %v, want both npu-O2 and npu-O0", flavors)
	}
}

func TestArtifactAtSizeCapLoadsOneByteOverFails(t *testing.T) {
	c := New(t.TempDir())
	c.MaxArtifactBytes = 8
	id := mustCID(5)

	if err := c.Store(id, "exact", bytes.Repeat([]byte{1}, 8)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(id, "exact"); err != nil {
		t.Errorf("Load at exactly the cap failed: %v", err)
	}

	if err := c.Store(id, "over", bytes.Repeat([]byte{1}, 9)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(id, "over"); !errors.Is(err, ErrArtifactTooLarge) {
		t.Errorf("Load one byte over the cap = %v, want ErrArtifactTooLarge", err)
	}
}

func TestConcurrentStoreProducesOneByteEqualArtifact(t *testing.T) {
	c := New(t.TempDir())
	id := mustCID(7)
	want := []byte("concurrent payload")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Store(id, "npu-O2", want)
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("writer %d: Store returned error %v, want idempotent success", i, err)
		}
	}

	got, err := c.Load(id, "npu-O2")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Load = %q, want %q", got, want)
	}

	dir := c.objectDir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, e := range entries {
		if e.Name() == "artifact-npu-O2.bin" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("found %d artifact-npu-O2.bin entries, want exactly 1", count)
	}
}

func TestStoreRejectsFlavorWithPathSeparator(t *testing.T) {
	c := New(t.TempDir())
	if err := c.Store(mustCID(1), "bad/flavor", []byte("x")); err == nil {
		t.Errorf("Store with path separator in flavor = nil error, want rejection")
	}
}

func TestSweepRemovesOrphanedTempFiles(t *testing.T) {
	root := t.TempDir()
	c := New(root)
	id := mustCID(2)
	dir := c.objectDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	orphan := filepath.Join(dir, ".artifact-npu-O2.bin.tmp-deadbeef")
	if err := os.WriteFile(orphan, []byte("orphan"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Errorf("orphaned temp file still exists after Sweep")
	}
}

func TestStoreMetaAndStoreNamed(t *testing.T) {
	c := New(t.TempDir())
	id := mustCID(6)

	if err := c.StoreMeta(id, "npu-O2", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("StoreMeta: %v", err)
	}
	metaPath := filepath.Join(c.objectDir(id), "meta-npu-O2.json")
	if _, err := os.Stat(metaPath); err != nil {
		t.Errorf("meta sidecar missing: %v", err)
	}

	if err := c.StoreNamed(id, "notes.txt", []byte("hello")); err != nil {
		t.Fatalf("StoreNamed: %v", err)
	}
	namedPath := filepath.Join(c.objectDir(id), "notes.txt")
	data, err := os.ReadFile(namedPath)
	if err != nil {
		t.Fatalf("reading named file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("named file contents = %q, want hello", data)
	}
}
