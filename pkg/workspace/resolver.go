// Package workspace resolves a workspace path to the stable hash and on-disk
// layout the rest of the service uses to store its index, logs, and
// metadata (spec §4.1), and keeps the small registry of workspaces the
// service has ever seen (used by the CLI's fuzzy-finder workspace picker).
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/atomicobject/codesearch/pkg/config"
)

// HashLength is the number of hex characters of the SHA-256 digest used as
// the workspace hash (spec §3).
const HashLength = 8

// Resolver computes the canonical identity and on-disk layout for a
// workspace path. It is pure: resolving a path never creates a directory or
// touches the filesystem.
type Resolver struct {
	baseDir string
}

// NewResolver builds a Resolver rooted at baseDir, which has already had any
// leading "~/" expanded (see config.ExpandBasePath).
func NewResolver(baseDir string) *Resolver {
	return &Resolver{baseDir: baseDir}
}

// NewResolverFromConfig expands cfg.BasePath and returns a Resolver, or the
// expansion error if the home directory could not be determined.
func NewResolverFromConfig(cfg config.Config) (*Resolver, error) {
	base, err := config.ExpandBasePath(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return NewResolver(base), nil
}

// Canonical returns the workspace path's identity form: full path,
// OS-appropriate separators, lower-cased, trailing separators stripped.
func Canonical(workspacePath string) string {
	cleaned := filepath.Clean(workspacePath)
	cleaned = filepath.ToSlash(cleaned)
	cleaned = filepath.FromSlash(cleaned)
	cleaned = strings.TrimRight(cleaned, string(filepath.Separator))
	return strings.ToLower(cleaned)
}

// Hash returns the first HashLength hex characters of the SHA-256 digest of
// workspacePath's canonical form.
func Hash(workspacePath string) string {
	sum := sha256.Sum256([]byte(Canonical(workspacePath)))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// IndexDir returns the resolver's deterministic on-disk index directory for
// workspacePath: "<base>/indexes/<hash>". It does not create the directory.
func (r *Resolver) IndexDir(workspacePath string) string {
	return filepath.Join(r.baseDir, "indexes", Hash(workspacePath))
}

// IndexesRoot returns "<base>/indexes", the directory LockManager's sweep
// walks looking for one workspace-hash subdirectory per indexed workspace.
func (r *Resolver) IndexesRoot() string {
	return filepath.Join(r.baseDir, "indexes")
}

// BackupDir returns "<base>/backups/backup_<name>", the compatibility-
// critical on-disk layout spec §6 specifies for IndexStore repair backups.
func (r *Resolver) BackupDir(name string) string {
	return filepath.Join(r.baseDir, "backups", "backup_"+name)
}

// LogsDir returns the resolver's logs directory for workspacePath.
func (r *Resolver) LogsDir(workspacePath string) string {
	return filepath.Join(r.baseDir, "logs", Hash(workspacePath))
}

// MetadataFile returns the path to the workspace registry file, shared
// across every workspace the service has seen.
func (r *Resolver) MetadataFile() string {
	return filepath.Join(r.baseDir, "workspace.metadata.json")
}

// SafeIndexDir is the same as IndexDir but returns "" instead of panicking
// if workspacePath cannot be resolved at all (empty input). Kept distinct
// from IndexDir so callers that must not crash (health checks, logging) can
// use the safe form, per spec §4.1's "never throw from safe accessors" rule.
func (r *Resolver) SafeIndexDir(workspacePath string) string {
	if strings.TrimSpace(workspacePath) == "" {
		return ""
	}
	return r.IndexDir(workspacePath)
}
