package possync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/sirupsen/logrus"
)

// Remote is the typed surface the coordinator, processor and loader write
// through. Implementations never retry internally: retry policy belongs to
// the queue processor.
type Remote interface {
	FetchAll(ctx context.Context, entityType models.EntityType, storeId string) ([]json.RawMessage, error)
	Upsert(ctx context.Context, entityType models.EntityType, entityId string, snapshot []byte) error
	Delete(ctx context.Context, entityType models.EntityType, entityId string) error
	Probe(ctx context.Context) error
}

// RemoteAdapter performs idempotent reads/writes against the resolved backing
// schema and feeds per-request outcomes back to the connectivity monitor.
type RemoteAdapter struct {
	client   *remoteClient
	resolver *SchemaResolver
	monitor  *Monitor
	logger   *logrus.Logger
}

func NewRemoteAdapter(monitor *Monitor, logger *logrus.Logger) (*RemoteAdapter, error) {
	client, err := newRemoteClient()
	if err != nil {
		return nil, err
	}
	resolver := NewSchemaResolver(DefaultSchemaCandidates(), client, logger)
	return &RemoteAdapter{
		client:   client,
		resolver: resolver,
		monitor:  monitor,
		logger:   logger,
	}, nil
}

func (a *RemoteAdapter) Resolver() *SchemaResolver {
	return a.resolver
}

func (a *RemoteAdapter) collectionPath(ctx context.Context, entityType models.EntityType) string {
	schema := a.resolver.Resolve(ctx)
	return schema.PathPrefix + "/" + string(entityType)
}

// wrapOpError tags the transport error with the engine taxonomy. When the
// resolver fell back to a default schema, the tag names that instead, since
// the root cause is the unresolved schema rather than this one request.
func (a *RemoteAdapter) wrapOpError(sentinel error, err error) error {
	if a.resolver.Unresolved() {
		return fmt.Errorf("%w: %v (%v)", utils.ErrSchemaUnresolved, err, sentinel)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func (a *RemoteAdapter) FetchAll(ctx context.Context, entityType models.EntityType, storeId string) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("store_id", storeId)

	resp, err := a.client.getList(ctx, a.collectionPath(ctx, entityType), params)
	if err != nil {
		a.monitor.ReportFailure()
		return nil, a.wrapOpError(utils.ErrRemoteReadFailed, err)
	}
	a.monitor.ReportSuccess()
	return resp.records(), nil
}

// Upsert replays the full snapshot with insert-or-replace semantics keyed by
// entityId. Applying the same snapshot twice leaves the remote state
// unchanged.
func (a *RemoteAdapter) Upsert(ctx context.Context, entityType models.EntityType, entityId string, snapshot []byte) error {
	path := a.collectionPath(ctx, entityType) + "/" + entityId
	if err := a.client.putJSON(ctx, path, snapshot); err != nil {
		a.monitor.ReportFailure()
		return a.wrapOpError(utils.ErrRemoteWriteFailed, err)
	}
	a.monitor.ReportSuccess()
	return nil
}

func (a *RemoteAdapter) Delete(ctx context.Context, entityType models.EntityType, entityId string) error {
	path := a.collectionPath(ctx, entityType) + "/" + entityId
	if err := a.client.deleteResource(ctx, path); err != nil {
		a.monitor.ReportFailure()
		return a.wrapOpError(utils.ErrRemoteWriteFailed, err)
	}
	a.monitor.ReportSuccess()
	return nil
}

// Probe is the cheap reachability check used before a drain pass.
func (a *RemoteAdapter) Probe(ctx context.Context) error {
	schema := a.resolver.Resolve(ctx)
	if err := a.client.probe(ctx, schema.PathPrefix); err != nil {
		a.monitor.ReportFailure()
		return a.wrapOpError(utils.ErrRemoteReadFailed, err)
	}
	a.monitor.ReportSuccess()
	return nil
}
