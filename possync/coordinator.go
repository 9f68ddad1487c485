package possync

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Mutation is one durable, eventually-consistent write: the full entity
// snapshot at mutation time. Priority overrides the per-type default queue
// band when set.
type Mutation struct {
	StoreId    string
	EntityType models.EntityType
	EntityId   string
	Entity     any
	Priority   *int
}

// Coordinator is the single entry point for durable writes. Apply updates the
// in-memory state immediately, derives same-transaction side effects, tries
// the remote fast path when online, and otherwise hands the snapshot to the
// durable queue. It never rolls the optimistic state back: a cashier must not
// watch a sale disappear because the network blipped. Reversal is an explicit
// compensating mutation (Reverse), not an exception path.
type Coordinator struct {
	State   *AppState
	Store   *models.LocalStore
	Remote  Remote
	Monitor *Monitor
	Logger  *logrus.Logger
}

func NewCoordinator(state *AppState, store *models.LocalStore, remote Remote, monitor *Monitor, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		State:   state,
		Store:   store,
		Remote:  remote,
		Monitor: monitor,
		Logger:  logger,
	}
}

// Apply performs the optimistic write contract. The returned error covers
// input validation only; remote and storage failures are absorbed into the
// queue and the status surfaces.
func (c *Coordinator) Apply(ctx context.Context, m Mutation) error {
	if err := c.validate(m); err != nil {
		return err
	}

	batch := append([]Mutation{m}, c.deriveSideEffects(ctx, m)...)

	// Step 1-2: optimistic apply, atomically with derived side effects.
	entries := make([]StateEntry, 0, len(batch))
	for _, mut := range batch {
		entries = append(entries, StateEntry{
			EntityType: mut.EntityType,
			EntityId:   mut.EntityId,
			Entity:     mut.Entity,
		})
	}
	c.State.PutAll(entries)

	// Step 3-4: fast path per mutation, queue on failure or while offline.
	for _, mut := range batch {
		c.persist(ctx, mut)
	}
	return nil
}

// Reverse applies a caller-built compensating snapshot (e.g. the sale marked
// VOID) through the same pipeline. Side-effect derivation reads the snapshot
// status, so a voided sale restores stock and books the drawer payout.
func (c *Coordinator) Reverse(ctx context.Context, m Mutation) error {
	if c.Logger != nil {
		c.Logger.WithFields(logrus.Fields{
			"field":       "Coordinator",
			"entity_type": m.EntityType,
			"entity_id":   m.EntityId,
		}).Info("applying compensating mutation")
	}
	return c.Apply(ctx, m)
}

func (c *Coordinator) validate(m Mutation) error {
	if !m.EntityType.Valid() {
		return fmt.Errorf("unknown entity type %q", m.EntityType)
	}
	if m.EntityId == "" {
		return fmt.Errorf("mutation entity id is empty")
	}
	if m.StoreId == "" {
		return fmt.Errorf("mutation store id is empty")
	}
	if m.Entity == nil {
		return fmt.Errorf("mutation entity is nil")
	}
	return nil
}

// persist runs the fast path for one snapshot. Every outcome leaves the local
// cache holding the snapshot; only the queue entry depends on the remote
// result.
func (c *Coordinator) persist(ctx context.Context, m Mutation) {
	encoded, err := utils.MarshalToJSON(m.Entity)
	if err != nil {
		config.LogError(c.Logger, "possync", "persist", "marshal snapshot", m.EntityId, err)
		return
	}
	snapshot := []byte(encoded)

	if c.Monitor.Online() {
		if err := c.Remote.Upsert(ctx, m.EntityType, m.EntityId, snapshot); err == nil {
			if perr := c.Store.Put(ctx, m.EntityType, m.Entity); perr != nil {
				config.LogError(c.Logger, "possync", "persist", "cache write after remote success", m.EntityId, perr)
			}
			return
		} else if c.Logger != nil {
			c.Logger.WithFields(logrus.Fields{
				"field":       "Coordinator",
				"entity_type": m.EntityType,
				"entity_id":   m.EntityId,
			}).Warn("fast-path write failed; queueing: " + err.Error())
		}
	}

	c.enqueue(ctx, m, snapshot)
}

func (c *Coordinator) enqueue(ctx context.Context, m Mutation, snapshot []byte) {
	priority := models.DefaultQueuePriority(m.EntityType)
	if m.Priority != nil {
		priority = *m.Priority
	}

	item := &models.SyncQueueItem{
		ID:          uuid.NewString(),
		StoreId:     m.StoreId,
		EntityType:  m.EntityType,
		EntityId:    m.EntityId,
		PayloadJSON: snapshot,
		Priority:    priority,
	}

	if err := c.Store.PutWithQueue(ctx, m.EntityType, m.Entity, item); err != nil {
		// Durability is lost for this session; the optimistic state stands.
		config.LogError(c.Logger, "possync", "enqueue", "durable enqueue failed", m.EntityId, err)
		return
	}

	if c.Logger != nil {
		c.Logger.WithFields(logrus.Fields{
			"field":         "Coordinator",
			"entity_type":   m.EntityType,
			"entity_id":     m.EntityId,
			"queue_item_id": item.ID,
			"priority":      priority,
		}).Info("mutation queued for sync")
	}
}

// deriveSideEffects computes the same-transaction consequences of a mutation.
// Completed sales decrement stock per line and book a drawer movement for
// cash payments; voided sales do the opposite.
func (c *Coordinator) deriveSideEffects(ctx context.Context, m Mutation) []Mutation {
	sale, ok := m.Entity.(*models.Sale)
	if m.EntityType != models.EntityTypeSale || !ok {
		return nil
	}

	voided := sale.CurrentStatus == models.SaleStatusVoid
	var out []Mutation

	for _, line := range sale.Items {
		if line.ProductId == "" {
			continue
		}
		product := c.lookupProduct(ctx, line.ProductId)
		if product == nil {
			if c.Logger != nil {
				c.Logger.WithFields(logrus.Fields{
					"field":      "Coordinator",
					"sale_id":    sale.ID,
					"product_id": line.ProductId,
				}).Warn("sale line references unknown product; stock not adjusted")
			}
			continue
		}
		updated := *product
		if voided {
			updated.StockOnHand = updated.StockOnHand.Add(line.Qty)
		} else {
			updated.StockOnHand = updated.StockOnHand.Sub(line.Qty)
		}
		out = append(out, Mutation{
			StoreId:    m.StoreId,
			EntityType: models.EntityTypeProduct,
			EntityId:   updated.ID,
			Entity:     &updated,
		})
	}

	if sale.PaymentMode == models.PaymentModeCash && sale.TotalAmount.GreaterThan(decimal.Zero) {
		direction := models.CashDirectionIn
		reason := "Sale " + sale.SaleNumber
		if voided {
			direction = models.CashDirectionOut
			reason = "Void sale " + sale.SaleNumber
		}
		movement := &models.CashMovement{
			ID:          uuid.NewString(),
			StoreId:     m.StoreId,
			Direction:   direction,
			Reason:      reason,
			ReferenceId: sale.ID,
			Amount:      sale.TotalAmount,
			MovedAt:     time.Now().UTC(),
		}
		out = append(out, Mutation{
			StoreId:    m.StoreId,
			EntityType: models.EntityTypeCashMovement,
			EntityId:   movement.ID,
			Entity:     movement,
		})
	}

	return out
}

func (c *Coordinator) lookupProduct(ctx context.Context, productId string) *models.Product {
	if v, ok := c.State.Get(models.EntityTypeProduct, productId); ok {
		if p, ok := v.(*models.Product); ok {
			return p
		}
	}
	v, err := c.Store.Get(ctx, models.EntityTypeProduct, productId)
	if err != nil {
		return nil
	}
	p, _ := v.(*models.Product)
	return p
}
