package possync

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// SchemaCandidate is one remote table layout the backend may be serving.
// Candidates are ordered: the first servable one wins.
type SchemaCandidate struct {
	Name       string `json:"name"`
	PathPrefix string `json:"path_prefix"`
}

// DefaultSchemaCandidates returns the current layout first, then the legacy
// one kept for stores whose backend has not been migrated yet.
//
// Env overrides (optional):
// - POS_SCHEMA_CURRENT_PREFIX (default /v2)
// - POS_SCHEMA_LEGACY_PREFIX (default /v1)
func DefaultSchemaCandidates() []SchemaCandidate {
	current := strings.TrimSpace(os.Getenv("POS_SCHEMA_CURRENT_PREFIX"))
	if current == "" {
		current = "/v2"
	}
	legacy := strings.TrimSpace(os.Getenv("POS_SCHEMA_LEGACY_PREFIX"))
	if legacy == "" {
		legacy = "/v1"
	}
	return []SchemaCandidate{
		{Name: "current", PathPrefix: current},
		{Name: "legacy", PathPrefix: legacy},
	}
}

type schemaProber interface {
	probe(ctx context.Context, pathPrefix string) error
}

// SchemaResolver decides once per session which candidate layout to talk to
// and memoizes the answer. When every candidate fails probing it still caches
// the highest-priority one, so real operations surface a concrete error
// instead of re-probing forever.
type SchemaResolver struct {
	mu         sync.Mutex
	candidates []SchemaCandidate
	prober     schemaProber
	logger     *logrus.Logger

	resolved   *SchemaCandidate
	unresolved bool
}

func NewSchemaResolver(candidates []SchemaCandidate, prober schemaProber, logger *logrus.Logger) *SchemaResolver {
	return &SchemaResolver{
		candidates: candidates,
		prober:     prober,
		logger:     logger,
	}
}

// Resolve probes the candidates in order on first call and returns the cached
// winner afterwards with no network cost.
func (r *SchemaResolver) Resolve(ctx context.Context) SchemaCandidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return *r.resolved
	}

	for i := range r.candidates {
		cand := r.candidates[i]
		if err := r.prober.probe(ctx, cand.PathPrefix); err != nil {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{
					"field":  "SchemaResolver",
					"schema": cand.Name,
					"prefix": cand.PathPrefix,
				}).Warn("schema probe failed: " + err.Error())
			}
			continue
		}
		r.resolved = &cand
		r.unresolved = false
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"field":  "SchemaResolver",
				"schema": cand.Name,
				"prefix": cand.PathPrefix,
			}).Info("backing schema resolved")
		}
		return cand
	}

	// All candidates failed. Default to the highest-priority one so later
	// operations fail with a concrete, actionable error.
	def := r.candidates[0]
	r.resolved = &def
	r.unresolved = true
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"field":  "SchemaResolver",
			"schema": def.Name,
		}).Error("all schema candidates failed probing; defaulting")
	}
	return def
}

// Unresolved reports whether the cached schema is a default picked after
// every candidate failed probing.
func (r *SchemaResolver) Unresolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unresolved
}

// Reset clears the memoized resolution (new session).
func (r *SchemaResolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = nil
	r.unresolved = false
}
