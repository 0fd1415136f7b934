package workspace

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/atomicobject/codesearch/pkg/fsutil"
)

// JsonMarshalIndent is swappable in tests, mirroring the teacher's
// vault.JsonMarshal var.
var JsonMarshalIndent = func(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Entry is one workspace the service has ever indexed.
type Entry struct {
	Hash         string    `json:"hash"`
	OriginalPath string    `json:"original_path"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsed     time.Time `json:"last_used"`
}

// registryFile is the on-disk shape of the metadata file: hash -> Entry.
// Decoding is case-insensitive by virtue of encoding/json's default field
// matching, so a hand-edited file with different key casing still loads.
type registryFile struct {
	Workspaces map[string]Entry `json:"workspaces"`
}

// Registry is a small JSON-backed store mapping workspace hash to the
// original path, creation time, and last-used time. It backs the
// "workspaces" CLI command's fuzzy-finder list and the workspaces MCP tool.
type Registry struct {
	mu   sync.Mutex
	path string
}

// NewRegistry opens the registry backed by the resolver's metadata file
// path. The file is created lazily on first Touch.
func NewRegistry(resolver *Resolver) *Registry {
	return &Registry{path: resolver.MetadataFile()}
}

// Touch records (or updates) a workspace's entry: sets CreatedAt on first
// sight, always bumps LastUsed to now.
func (r *Registry) Touch(workspacePath string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return err
	}

	hash := Hash(workspacePath)
	entry, exists := reg.Workspaces[hash]
	if !exists {
		entry = Entry{
			Hash:         hash,
			OriginalPath: workspacePath,
			CreatedAt:    now,
		}
	}
	entry.OriginalPath = workspacePath
	entry.LastUsed = now
	reg.Workspaces[hash] = entry

	return r.save(reg)
}

// List returns every known workspace entry, most-recently-used first.
func (r *Registry) List() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(reg.Workspaces))
	for _, e := range reg.Workspaces {
		entries = append(entries, e)
	}
	sortEntriesByLastUsedDesc(entries)
	return entries, nil
}

// Remove deletes a workspace's entry from the registry (used after an index
// is explicitly deleted, so the fuzzy-finder list does not offer a
// workspace with no index behind it).
func (r *Registry) Remove(workspacePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return err
	}
	delete(reg.Workspaces, Hash(workspacePath))
	return r.save(reg)
}

func (r *Registry) load() (registryFile, error) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return registryFile{Workspaces: map[string]Entry{}}, nil
		}
		return registryFile{}, err
	}

	var reg registryFile
	if err := json.Unmarshal(content, &reg); err != nil {
		return registryFile{}, err
	}
	if reg.Workspaces == nil {
		reg.Workspaces = map[string]Entry{}
	}
	return reg, nil
}

func (r *Registry) save(reg registryFile) error {
	content, err := JsonMarshalIndent(reg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(r.path, content, 0o644)
}

func sortEntriesByLastUsedDesc(entries []Entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].LastUsed.After(entries[j-1].LastUsed); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
