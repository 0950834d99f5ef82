// Package buildcache implements the content-addressed build cache
// (spec.md §4.9): artifacts and metadata sidecars keyed by (CID, flavor)
// are written to a unique temp file and renamed atomically into place,
// so a reader never observes a partial write and two concurrent writers
// of the same (CID, flavor) converge on one winner.
package buildcache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/janus-lang/janus-sub014/internal/cid"
	"github.com/janus-lang/janus-sub014/internal/telemetry"
)

// DefaultMaxArtifactBytes is the load() size cap spec.md §4.9 specifies.
const DefaultMaxArtifactBytes = 64 << 20 // 64 MiB

// ErrArtifactTooLarge is returned by Load when an on-disk artifact
// exceeds MaxArtifactBytes.
var ErrArtifactTooLarge = errors.New("buildcache: artifact exceeds size cap")

// ErrNotFound is returned by Load when no artifact exists for (cid, flavor).
var ErrNotFound = errors.New("buildcache: artifact not found")

// Cache is a content-addressed store rooted at Root, laid out as
// `<Root>/objects/<hex32(cid)>/artifact-<flavor>.bin` and
// `.../meta-<flavor>.json`, per spec.md §6's on-disk format.
type Cache struct {
	Root             string
	MaxArtifactBytes int64
}

// New returns a Cache rooted at root, with the default size cap. Use the
// MaxArtifactBytes field directly to override it.
func New(root string) *Cache {
	return &Cache{Root: root, MaxArtifactBytes: DefaultMaxArtifactBytes}
}

func (c *Cache) objectDir(id cid.CID) string {
	return filepath.Join(c.Root, "objects", id.String())
}

func validateFlavor(flavor string) error {
	if flavor == "" {
		return fmt.Errorf("buildcache: flavor must not be empty")
	}
	if strings.ContainsAny(flavor, string(filepath.Separator)+"/") {
		return fmt.Errorf("buildcache: flavor %q must not contain path separators", flavor)
	}
	return nil
}

// Store writes bytes as the artifact for (id, flavor), per spec.md
// §4.9's store protocol: ensure the directory exists, write to a unique
// temp file with create-exclusive open, sync, then rename atomically
// into place. os.Rename replaces an existing destination, so when two
// writers race on the same (id, flavor) both renames succeed and the
// later writer's file is the one left in place; the earlier file is not
// kept. A rename that fails while the destination exists is treated as
// success.
func (c *Cache) Store(id cid.CID, flavor string, data []byte) error {
	if err := validateFlavor(flavor); err != nil {
		return err
	}
	return c.writeAtomic(id, fmt.Sprintf("artifact-%s.bin", flavor), data)
}

// StoreMeta writes jsonBytes as the metadata sidecar for (id, flavor),
// using the same write-temp-then-rename protocol as Store.
func (c *Cache) StoreMeta(id cid.CID, flavor string, jsonBytes []byte) error {
	if err := validateFlavor(flavor); err != nil {
		return err
	}
	return c.writeAtomic(id, fmt.Sprintf("meta-%s.json", flavor), jsonBytes)
}

// StoreNamed writes data under an arbitrary caller-chosen filename
// within the (id)'s object directory, using the same protocol.
func (c *Cache) StoreNamed(id cid.CID, filename string, data []byte) error {
	if filename == "" || strings.ContainsAny(filename, string(filepath.Separator)+"/") {
		return fmt.Errorf("buildcache: filename %q must be a bare name", filename)
	}
	return c.writeAtomic(id, filename, data)
}

// writeAtomic is the shared store protocol every Store* entry point
// uses: create the object directory, write to a nonce-suffixed temp
// file with O_EXCL, fsync, then rename into place. An existing
// destination does not make the rename fail: os.Rename replaces it. If
// the rename fails for another reason and the destination exists, that
// is success: the temp file is removed and nil is returned.
func (c *Cache) writeAtomic(id cid.CID, finalName string, data []byte) error {
	dir := c.objectDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("buildcache: creating object dir: %w", err)
	}

	finalPath := filepath.Join(dir, finalName)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", finalName, uuid.NewString()))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("buildcache: creating temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("buildcache: writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("buildcache: syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("buildcache: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		// Another writer may have already produced finalPath; if so this
		// is the idempotent-success case, not a failure. Clean up our
		// orphaned temp file either way.
		os.Remove(tmpPath)
		if _, statErr := os.Stat(finalPath); statErr == nil {
			return nil
		}
		return fmt.Errorf("buildcache: renaming into place: %w", err)
	}
	return nil
}

// Load reads the artifact for (id, flavor) byte-for-byte, enforcing
// MaxArtifactBytes. A missing artifact returns ErrNotFound; an artifact
// over the cap returns ErrArtifactTooLarge without reading its full
// contents into memory.
func (c *Cache) Load(id cid.CID, flavor string) ([]byte, error) {
	if err := validateFlavor(flavor); err != nil {
		return nil, err
	}
	path := filepath.Join(c.objectDir(id), fmt.Sprintf("artifact-%s.bin", flavor))

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buildcache: stat %s: %w", path, err)
	}
	cap := c.MaxArtifactBytes
	if cap <= 0 {
		cap = DefaultMaxArtifactBytes
	}
	if info.Size() > cap {
		return nil, ErrArtifactTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("buildcache: opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, cap+1))
	if err != nil {
		return nil, fmt.Errorf("buildcache: reading %s: %w", path, err)
	}
	if int64(len(data)) > cap {
		return nil, ErrArtifactTooLarge
	}
	return data, nil
}

// Exists is a pure filesystem check for (id, flavor)'s artifact.
func (c *Cache) Exists(id cid.CID, flavor string) bool {
	path := filepath.Join(c.objectDir(id), fmt.Sprintf("artifact-%s.bin", flavor))
	_, err := os.Stat(path)
	return err == nil
}

// ListFlavors enumerates the flavors stored for id. A CID with no object
// directory yet returns an empty slice, not an error, per spec.md §4.9.
func (c *Cache) ListFlavors(id cid.CID) []string {
	entries, err := os.ReadDir(c.objectDir(id))
	if err != nil {
		return nil
	}
	const prefix, suffix = "artifact-", ".bin"
	var flavors []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		flavors = append(flavors, strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
	}
	return flavors
}

// Sweep removes orphaned temp files left behind by a writer that lost a
// rename race (or crashed before renaming) — spec.md §4.9's "later
// writers' tmp is orphaned and must be cleaned up on a subsequent
// operation". Sweep does not coordinate with Store: if it removes a temp
// file before that file's writer renames it, the rename fails and that
// Store returns an error unless the destination file already exists.
func (c *Cache) Sweep() error {
	root := filepath.Join(c.Root, "objects")
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("buildcache: reading objects dir: %w", err)
	}
	for _, dirEnt := range entries {
		if !dirEnt.IsDir() {
			continue
		}
		dir := filepath.Join(root, dirEnt.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			telemetry.Error(nil, "buildcache: sweep could not read object directory", err)
			continue
		}
		for _, f := range files {
			if strings.Contains(f.Name(), ".tmp-") {
				if err := os.Remove(filepath.Join(dir, f.Name())); err != nil {
					telemetry.Error(nil, "buildcache: sweep could not remove orphaned temp file", err)
				}
			}
		}
	}
	return nil
}
