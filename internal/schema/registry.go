// Package schema loads and caches declarative task definitions.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/survey-recon-api/internal/models"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
)

// Load outcome labels recorded per schema resolution attempt.
const (
	LoadOutcomeSuccess = "success"
	LoadOutcomeUnknown = "unknown"
	LoadOutcomeError   = "error"
)

type loadMetrics interface {
	RecordSchemaLoad(outcome string)
}

// DocumentLoader supplies the manifest and raw schema documents. Implementations
// may hit disk, an object store, or test fixtures; the registry does not care.
type DocumentLoader interface {
	LoadManifest(ctx context.Context) (models.Manifest, error)
	LoadDocument(ctx context.Context, fileKey string) ([]byte, error)
}

// Registry resolves task ids (case-insensitively, through aliases) to parsed
// TaskDefinitions. Definitions are loaded lazily on first reference and cached
// for the lifetime of the registry; concurrent requests for the same task share
// a single in-flight load. The registry is an explicit dependency, never a
// package-level singleton, so tests can supply isolated fixtures.
type Registry struct {
	loader      DocumentLoader
	logger      *zap.Logger
	loadTimeout time.Duration
	metrics     loadMetrics

	initOnce sync.Once

	mu       sync.RWMutex
	manifest models.Manifest
	index    map[string]string // lowercased task id or alias -> manifest file key
	cache    map[string]*models.TaskDefinition

	group singleflight.Group
}

// NewRegistry constructs a registry around the given loader.
func NewRegistry(loader DocumentLoader, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		loader: loader,
		logger: logger,
		index:  make(map[string]string),
		cache:  make(map[string]*models.TaskDefinition),
	}
}

// SetLoadTimeout bounds each manifest and document load. Zero leaves loads
// unbounded. Call before the first Get.
func (r *Registry) SetLoadTimeout(d time.Duration) {
	r.loadTimeout = d
}

// SetMetrics attaches an optional load-outcome recorder. Call before the
// first Get.
func (r *Registry) SetMetrics(m loadMetrics) {
	r.metrics = m
}

func (r *Registry) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordSchemaLoad(outcome)
	}
}

func (r *Registry) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.loadTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.loadTimeout)
}

// Init loads the manifest. A manifest load failure is non-fatal: the registry
// stays usable with an empty manifest and every Get returns ErrSchemaNotFound.
func (r *Registry) Init(ctx context.Context) {
	r.initOnce.Do(func() {
		loadCtx, cancel := r.loadContext(ctx)
		defer cancel()
		manifest, err := r.loader.LoadManifest(loadCtx)
		if err != nil {
			r.logger.Warn("manifest load failed, continuing with empty manifest", zap.Error(err))
			manifest = models.Manifest{}
		}
		index := make(map[string]string, len(manifest)*2)
		for fileKey, entry := range manifest {
			index[strings.ToLower(fileKey)] = fileKey
			if entry.CanonicalID != "" {
				index[strings.ToLower(entry.CanonicalID)] = fileKey
			}
			for _, alias := range entry.Aliases {
				index[strings.ToLower(alias)] = fileKey
			}
		}
		r.mu.Lock()
		r.manifest = manifest
		r.index = index
		r.mu.Unlock()
	})
}

// CanonicalID maps any known task id or alias to its canonical id.
func (r *Registry) CanonicalID(taskID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fileKey, ok := r.index[strings.ToLower(taskID)]
	if !ok {
		return "", false
	}
	entry := r.manifest[fileKey]
	if entry.CanonicalID != "" {
		return entry.CanonicalID, true
	}
	return fileKey, true
}

// Get returns the task definition for the given id, loading and caching it on
// first use. Unknown ids yield ErrSchemaNotFound; callers must treat that as
// "no validation possible", not as a fatal condition.
func (r *Registry) Get(ctx context.Context, taskID string) (*models.TaskDefinition, error) {
	r.Init(ctx)

	r.mu.RLock()
	fileKey, known := r.index[strings.ToLower(taskID)]
	if known {
		if def, ok := r.cache[fileKey]; ok {
			r.mu.RUnlock()
			return def, nil
		}
	}
	r.mu.RUnlock()

	if !known {
		r.record(LoadOutcomeUnknown)
		return nil, appErrors.Clone(appErrors.ErrSchemaNotFound, fmt.Sprintf("no schema for task %q", taskID))
	}

	// Cached entries are immutable once set; singleflight only guards the
	// populate race, never reads of already-cached definitions.
	v, err, _ := r.group.Do(fileKey, func() (interface{}, error) {
		r.mu.RLock()
		if def, ok := r.cache[fileKey]; ok {
			r.mu.RUnlock()
			return def, nil
		}
		r.mu.RUnlock()

		loadCtx, cancel := r.loadContext(ctx)
		defer cancel()
		raw, err := r.loader.LoadDocument(loadCtx, fileKey)
		if err != nil {
			r.record(LoadOutcomeError)
			return nil, appErrors.Wrap(err, appErrors.ErrSchemaNotFound.Code, appErrors.ErrSchemaNotFound.Status, fmt.Sprintf("failed to load schema %q", fileKey))
		}
		def := &models.TaskDefinition{}
		if err := json.Unmarshal(raw, def); err != nil {
			r.record(LoadOutcomeError)
			return nil, appErrors.Wrap(err, appErrors.ErrSchemaNotFound.Code, appErrors.ErrSchemaNotFound.Status, fmt.Sprintf("failed to parse schema %q", fileKey))
		}
		if def.ID == "" {
			def.ID = fileKey
		}
		r.mu.Lock()
		r.cache[fileKey] = def
		r.mu.Unlock()
		r.record(LoadOutcomeSuccess)
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.TaskDefinition), nil
}

// Tasks lists the canonical ids of every task in the manifest.
func (r *Registry) Tasks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.manifest))
	for fileKey, entry := range r.manifest {
		id := entry.CanonicalID
		if id == "" {
			id = fileKey
		}
		ids = append(ids, id)
	}
	return ids
}

// FileLoader reads the manifest and schema documents from local disk.
type FileLoader struct {
	ManifestPath string
	SchemaDir    string
}

// LoadManifest parses the manifest file.
func (l FileLoader) LoadManifest(ctx context.Context) (models.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(l.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest models.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return manifest, nil
}

// LoadDocument reads one schema document by file key.
func (l FileLoader) LoadDocument(ctx context.Context, fileKey string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(l.SchemaDir, fileKey+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", fileKey, err)
	}
	return raw, nil
}
