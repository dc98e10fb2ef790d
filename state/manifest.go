// Package state records what a build produced so later runs can tell which
// files were edited since.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/cpcf/strata/render"
	"github.com/cpcf/strata/write"
	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
)

const (
	ManifestName    = ".strata.manifest.json"
	ManifestVersion = "1"
	generator       = "strata"
)

type EntryKind string

const (
	KindFolder EntryKind = "folder"
	KindFile   EntryKind = "file"
)

type ManifestEntry struct {
	Path     string      `json:"path"`
	Kind     EntryKind   `json:"kind"`
	Mode     fs.FileMode `json:"mode"`
	Hash     string      `json:"hash,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Template string      `json:"template"`
}

type Manifest struct {
	Version   string                   `json:"version"`
	BuildID   string                   `json:"build_id"`
	Generated time.Time                `json:"generated"`
	Generator string                   `json:"generator"`
	Template  string                   `json:"template"`
	Data      map[string]string        `json:"data,omitempty"`
	Entries   map[string]ManifestEntry `json:"entries"`
}

// NewManifest starts a manifest for one build of template with data.
func NewManifest(template string, data map[string]string) *Manifest {
	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return &Manifest{
		Version:   ManifestVersion,
		BuildID:   uuid.NewString(),
		Generated: time.Now().UTC(),
		Generator: generator,
		Template:  template,
		Data:      copied,
		Entries:   make(map[string]ManifestEntry),
	}
}

// ManifestManager reads and writes the manifest at the root of a build
// filesystem.
type ManifestManager struct {
	fs   billy.Filesystem
	path string
}

func NewManifestManager(fsys billy.Filesystem) *ManifestManager {
	return &ManifestManager{fs: fsys, path: ManifestName}
}

// Load returns an empty manifest when none has been saved yet.
func (mm *ManifestManager) Load() (*Manifest, error) {
	file, err := mm.fs.Open(mm.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{
			Version:   ManifestVersion,
			Generator: generator,
			Entries:   make(map[string]ManifestEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	var manifest Manifest
	if err := json.NewDecoder(file).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if manifest.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %q", manifest.Version)
	}
	if manifest.Entries == nil {
		manifest.Entries = make(map[string]ManifestEntry)
	}
	return &manifest, nil
}

func (mm *ManifestManager) Save(manifest *Manifest) error {
	tmpPath := mm.path + ".tmp"
	file, err := mm.fs.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		file.Close()
		_ = mm.fs.Remove(tmpPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = mm.fs.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary manifest file: %w", err)
	}

	if err := mm.fs.Rename(tmpPath, mm.path); err != nil {
		_ = mm.fs.Remove(tmpPath)
		return fmt.Errorf("failed to move manifest file: %w", err)
	}
	return nil
}

// Record adds every entry of plan that the report does not mark as failed.
// File hashes are taken from disk, so they reflect post-processing.
func (mm *ManifestManager) Record(manifest *Manifest, plan *render.Plan, report *write.Report) error {
	failed := make(map[string]bool)
	for _, result := range report.Failures() {
		if result.Op == write.OpMkdir || result.Op == write.OpWrite {
			failed[result.Path] = true
		}
	}

	for _, entry := range plan.Entries {
		if failed[entry.Path] {
			continue
		}

		recorded := ManifestEntry{
			Path:     entry.Path,
			Kind:     KindFolder,
			Mode:     entry.Permission,
			Template: entry.Entry.String(),
		}
		if !entry.IsFolder {
			hash, size, err := mm.hashFile(entry.Path)
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", entry.Path, err)
			}
			recorded.Kind = KindFile
			recorded.Hash = hash
			recorded.Size = size
		}
		manifest.Entries[entry.Path] = recorded
	}

	manifest.Generated = time.Now().UTC()
	return nil
}

func (mm *ManifestManager) GetEntry(manifest *Manifest, path string) (ManifestEntry, bool) {
	entry, ok := manifest.Entries[path]
	return entry, ok
}

func (mm *ManifestManager) RemoveEntry(manifest *Manifest, path string) {
	delete(manifest.Entries, path)
}

// ListEntries returns the entries sorted by path.
func (mm *ManifestManager) ListEntries(manifest *Manifest) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(manifest.Entries))
	for _, entry := range manifest.Entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// HasChanged reports whether the file at path differs from what the
// manifest recorded. Untracked or missing paths count as changed; folders
// only need to exist.
func (mm *ManifestManager) HasChanged(manifest *Manifest, path string) (bool, error) {
	entry, ok := mm.GetEntry(manifest, path)
	if !ok {
		return true, nil
	}

	info, err := mm.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if entry.Kind == KindFolder {
		return !info.IsDir(), nil
	}
	if info.IsDir() || info.Size() != entry.Size {
		return true, nil
	}

	hash, _, err := mm.hashFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hash != entry.Hash, nil
}

// Changed lists every recorded path that has drifted, sorted.
func (mm *ManifestManager) Changed(manifest *Manifest) ([]string, error) {
	var changed []string
	for _, entry := range mm.ListEntries(manifest) {
		drifted, err := mm.HasChanged(manifest, entry.Path)
		if err != nil {
			return nil, err
		}
		if drifted {
			changed = append(changed, entry.Path)
		}
	}
	return changed, nil
}

func (mm *ManifestManager) hashFile(path string) (string, int64, error) {
	file, err := mm.fs.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	h := sha256.New()
	n, err := io.Copy(h, file)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
