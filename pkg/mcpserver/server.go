// Package mcpserver wires the service's components (PathResolver,
// LockManager, IndexStore, Indexer, ChangePipeline, search.Service) behind
// an MCP tool surface, grounded on the teacher's pkg/mcp package: a Config
// struct carrying the shared collaborators, a RegisterAll that adds every
// tool to a *server.MCPServer, and one handler function per tool built with
// mcp.NewTool/mcp.CallToolRequest.
package mcpserver

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/atomicobject/codesearch/pkg/config"
	"github.com/atomicobject/codesearch/pkg/index"
	"github.com/atomicobject/codesearch/pkg/indexer"
	"github.com/atomicobject/codesearch/pkg/lock"
	"github.com/atomicobject/codesearch/pkg/pipeline"
	"github.com/atomicobject/codesearch/pkg/search"
	"github.com/atomicobject/codesearch/pkg/workspace"
)

// Service is the Config the teacher's pkg/mcp.Config plays in this domain:
// one instance shared by every tool handler, holding the long-lived
// collaborators rather than re-opening them per call.
type Service struct {
	cfg      config.Config
	resolver *workspace.Resolver
	registry *workspace.Registry
	locks    *lock.Manager
	indexMgr *index.Manager
	buffer   *index.BatchBuffer
	searcher *search.Service

	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline

	stopSweep chan struct{}
}

// New builds a Service from cfg, expanding its base path. It creates no
// directories itself; a workspace's index directory is created when its
// index is first opened.
func New(cfg config.Config) (*Service, error) {
	resolver, err := workspace.NewResolverFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}

	registry := workspace.NewRegistry(resolver)
	locks := lock.NewManager(cfg.LockManager)

	indexMgr, err := index.NewManager(resolver, locks, index.DefaultMaxOpenHandles)
	if err != nil {
		return nil, fmt.Errorf("create index manager: %w", err)
	}

	buffer := index.NewBatchBuffer(indexMgr, cfg.BatchIndexing.BatchSize, cfg.BatchIndexing.MaxBatchAge())

	svc := &Service{
		cfg:       cfg,
		resolver:  resolver,
		registry:  registry,
		locks:     locks,
		indexMgr:  indexMgr,
		buffer:    buffer,
		searcher:  search.New(indexMgr),
		pipelines: make(map[string]*pipeline.Pipeline),
		stopSweep: make(chan struct{}),
	}

	// spec §2/§4.2: "On startup, LockManager sweeps stale locks." The result
	// is informational only — a failed sweep never blocks the service from
	// starting.
	if _, err := svc.Doctor(); err != nil {
		log.Printf("mcpserver: startup lock sweep failed: %v", err)
	}

	svc.startAgedBufferSweep(cfg.BatchIndexing.MaxBatchAge())

	return svc, nil
}

// startAgedBufferSweep runs BatchBuffer.SweepAged on a periodic timer so a
// workspace with too little traffic to ever hit the size threshold still
// gets flushed within maxAge (spec §4.6's age-triggered flush). The ticker
// fires at a quarter of maxAge so the oldest pending entry is never more
// than that far past its deadline.
func (s *Service) startAgedBufferSweep(maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = 30 * time.Second
	}
	interval := maxAge / 4
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.buffer.SweepAged(context.Background())
			case <-s.stopSweep:
				return
			}
		}
	}()
}

// Close stops every running ChangePipeline, the aged-buffer sweep timer,
// and flushes pending batches.
func (s *Service) Close(ctx context.Context) {
	close(s.stopSweep)

	s.mu.Lock()
	pipelines := make([]*pipeline.Pipeline, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		pipelines = append(pipelines, p)
	}
	s.pipelines = make(map[string]*pipeline.Pipeline)
	s.mu.Unlock()

	for _, p := range pipelines {
		p.Stop()
	}
	_ = s.buffer.CommitAll(ctx)
	s.indexMgr.CloseAll()
}

// IndexWorkspace runs a full Indexer pass over workspacePath, commits the
// result, and starts (or restarts) its ChangePipeline so future edits stay
// reflected in the index without another explicit index_workspace call.
// The walk and the watcher use workspacePath as given; the index itself is
// keyed by the workspace hash of its canonical form.
func (s *Service) IndexWorkspace(ctx context.Context, workspacePath string) (indexer.Result, error) {
	if _, err := s.indexMgr.OpenOrReuse(workspacePath); err != nil {
		return indexer.Result{}, err
	}
	if err := s.registry.Touch(workspacePath, time.Now()); err != nil {
		return indexer.Result{}, err
	}

	ix := indexer.New(s.cfg, s.buffer)
	result, err := ix.Run(ctx, workspacePath)
	if err != nil {
		return result, err
	}
	if err := s.buffer.Flush(ctx, workspacePath); err != nil {
		return result, err
	}

	if err := s.ensurePipeline(ctx, workspacePath, ix); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) ensurePipeline(ctx context.Context, root string, ix *indexer.Indexer) error {
	canonical := workspace.Canonical(root)
	s.mu.Lock()
	if _, running := s.pipelines[canonical]; running {
		s.mu.Unlock()
		return nil
	}
	p := pipeline.New(s.cfg, root, ix, s.indexMgr)
	s.pipelines[canonical] = p
	s.mu.Unlock()

	return p.Start(ctx)
}

// Search dispatches to one of the five query kinds spec §1 lists.
func (s *Service) Search(ctx context.Context, kind, workspacePath, query string, limit int) ([]search.Result, error) {
	canonical := workspace.Canonical(workspacePath)
	switch kind {
	case "text":
		return s.searcher.SearchText(ctx, canonical, query, limit)
	case "files":
		return s.searcher.SearchFiles(ctx, canonical, query, limit)
	case "directory":
		return s.searcher.SearchDirectory(ctx, canonical, query, limit)
	case "recency":
		return s.searcher.SearchRecency(ctx, canonical, query, limit)
	case "similarity":
		return s.searcher.SearchSimilarity(ctx, canonical, query, limit)
	default:
		return nil, fmt.Errorf("unknown query kind %q", kind)
	}
}

// Statistics returns the index health and document statistics for a
// workspace, per spec §4.3's `statistics`/`health` operations.
func (s *Service) Statistics(ctx context.Context, workspacePath string) (index.WorkspaceStats, index.HealthState, error) {
	canonical := workspace.Canonical(workspacePath)
	health := s.indexMgr.Health(canonical)
	stats, err := s.indexMgr.Statistics(ctx, canonical)
	return stats, health, err
}

// ExtractTypes returns the TypeExtractor result already recorded for path at
// index time, the on-demand-query half of spec §2's "TypeExtractor is
// invoked lazily during indexing ... and on demand for queries."
func (s *Service) ExtractTypes(ctx context.Context, workspacePath, path string) ([]index.ExtractedType, []index.ExtractedMethod, error) {
	canonical := workspace.Canonical(workspacePath)
	return s.indexMgr.Types(ctx, canonical, path)
}

// Repair runs IndexStore's explicit repair operation for a workspace.
func (s *Service) Repair(workspacePath string) (index.RepairReport, error) {
	canonical := workspace.Canonical(workspacePath)
	return s.indexMgr.Repair(canonical)
}

// Doctor sweeps stale writer locks under the configured base path, per
// spec §4.2's tiered LockManager sweep.
func (s *Service) Doctor() (lock.Report, error) {
	return s.locks.Sweep(s.resolver.IndexesRoot())
}

// Workspaces lists every workspace the registry has ever seen, most
// recently used first.
func (s *Service) Workspaces() ([]workspace.Entry, error) {
	return s.registry.List()
}

// RemoveWorkspace drops a workspace from the registry (spec §4.1); it does
// not touch the on-disk index, matching the teacher's non-destructive
// remove_vault semantics.
func (s *Service) RemoveWorkspace(workspacePath string) error {
	return s.registry.Remove(workspace.Canonical(workspacePath))
}
