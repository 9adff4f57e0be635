package ledger_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria + TxRunner con snapshot/rollback.
// El mutex global del TxRunner reemplaza al SELECT FOR UPDATE: serializa las
// transacciones completas, que es un bloqueo más grueso pero con la misma
// garantía de aislamiento que esperan los casos de uso.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu          sync.Mutex
	balances    map[string]*entity.BalanceRecord
	movements   []*entity.MovementEntry
	transfers   []*entity.TransferRecord
	adjustments []*entity.AdjustmentRecord
	locations   map[string]*entity.Location

	// Inyección de fallos para probar atomicidad y reintentos.
	failMovementCreate   error // si no es nil, movements.Create falla
	failAdjustCreateLeft int   // primeras N inserciones de ajuste → ErrDuplicate
}

func newMemStore() *memStore {
	return &memStore{
		balances:  make(map[string]*entity.BalanceRecord),
		locations: make(map[string]*entity.Location),
	}
}

func (s *memStore) addLocation(tenantID, id string, allowsNegative bool) {
	s.locations[tenantID+"|"+id] = &entity.Location{
		ID:                  id,
		TenantID:            tenantID,
		Name:                "Bodega " + id,
		AllowsNegativeStock: allowsNegative,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
}

func balKey(tenantID string, item stock.ItemRef, locationID string) string {
	return tenantID + "|" + locationID + "|" + item.Key()
}

func itemOf(b *entity.BalanceRecord) stock.ItemRef {
	return stock.ItemRef{ProductID: b.ProductID, VariantID: b.VariantID}
}

type storeSnapshot struct {
	balances     map[string]*entity.BalanceRecord
	nMovements   int
	nTransfers   int
	nAdjustments int
}

func (s *memStore) snapshot() storeSnapshot {
	balances := make(map[string]*entity.BalanceRecord, len(s.balances))
	for k, v := range s.balances {
		cp := *v
		balances[k] = &cp
	}
	return storeSnapshot{
		balances:     balances,
		nMovements:   len(s.movements),
		nTransfers:   len(s.transfers),
		nAdjustments: len(s.adjustments),
	}
}

func (s *memStore) restore(snap storeSnapshot) {
	s.balances = snap.balances
	s.movements = s.movements[:snap.nMovements]
	s.transfers = s.transfers[:snap.nTransfers]
	s.adjustments = s.adjustments[:snap.nAdjustments]
}

type memTxRunner struct {
	store *memStore
}

var _ ledger.TxRunner = (*memTxRunner)(nil)

func (r *memTxRunner) Run(_ context.Context, fn func(
	balances repository.BalanceRepository,
	movements repository.MovementRepository,
	transfers repository.TransferRepository,
	adjustments repository.AdjustmentRepository,
) error) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	err := fn(
		&memBalanceRepo{s: s},
		&memMovementRepo{s: s},
		&memTransferRepo{s: s},
		&memAdjustmentRepo{s: s},
	)
	if err != nil {
		s.restore(snap)
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios fake. No toman el mutex: dentro de una tx ya lo sostiene el
// TxRunner, y los tests de lectura directa son secuenciales.
// ──────────────────────────────────────────────────────────────────────────────

type memBalanceRepo struct {
	s *memStore
}

var _ repository.BalanceRepository = (*memBalanceRepo)(nil)

func (r *memBalanceRepo) Get(_ context.Context, tenantID string, item stock.ItemRef, locationID string) (*entity.BalanceRecord, error) {
	b, ok := r.s.balances[balKey(tenantID, item, locationID)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBalanceRepo) GetForUpdate(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) (*entity.BalanceRecord, error) {
	return r.Get(ctx, tenantID, item, locationID)
}

func (r *memBalanceRepo) CreateIfAbsent(_ context.Context, tenantID string, item stock.ItemRef, locationID string) error {
	key := balKey(tenantID, item, locationID)
	if _, ok := r.s.balances[key]; ok {
		return nil
	}
	now := time.Now()
	r.s.balances[key] = &entity.BalanceRecord{
		TenantID:   tenantID,
		LocationID: locationID,
		ProductID:  item.ProductID,
		VariantID:  item.VariantID,
		Available:  decimal.Zero,
		Reserved:   decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

func (r *memBalanceRepo) UpdateQuantities(_ context.Context, balance *entity.BalanceRecord) error {
	key := balKey(balance.TenantID, itemOf(balance), balance.LocationID)
	stored, ok := r.s.balances[key]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Available = balance.Available
	stored.Reserved = balance.Reserved
	stored.UpdatedAt = balance.UpdatedAt
	return nil
}

func (r *memBalanceRepo) SetThresholds(_ context.Context, tenantID string, item stock.ItemRef, locationID string, minimum, maximum *decimal.Decimal) error {
	stored, ok := r.s.balances[balKey(tenantID, item, locationID)]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Minimum = minimum
	stored.Maximum = maximum
	return nil
}

func (r *memBalanceRepo) ListByItem(_ context.Context, tenantID string, item stock.ItemRef) ([]*entity.BalanceRecord, error) {
	var out []*entity.BalanceRecord
	for _, b := range r.s.balances {
		if b.TenantID == tenantID && itemOf(b) == item {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (r *memBalanceRepo) ListBelowMinimum(_ context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error) {
	var out []*entity.BalanceRecord
	for _, b := range r.s.balances {
		if b.TenantID != tenantID || b.Minimum == nil || !b.Minimum.GreaterThan(decimal.Zero) {
			continue
		}
		if b.ForSale().LessThan(*b.Minimum) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return page(out, limit, offset), nil
}

func (r *memBalanceRepo) ListOutOfStock(_ context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error) {
	var out []*entity.BalanceRecord
	for _, b := range r.s.balances {
		if b.TenantID == tenantID && b.Available.IsZero() {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return page(out, limit, offset), nil
}

func (r *memBalanceRepo) ListAboveMaximum(_ context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error) {
	var out []*entity.BalanceRecord
	for _, b := range r.s.balances {
		if b.TenantID == tenantID && b.Maximum != nil && b.Available.GreaterThan(*b.Maximum) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return page(out, limit, offset), nil
}

func page(rows []*entity.BalanceRecord, limit, offset int) []*entity.BalanceRecord {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

type memMovementRepo struct {
	s *memStore
}

var _ repository.MovementRepository = (*memMovementRepo)(nil)

func (r *memMovementRepo) Create(_ context.Context, movement *entity.MovementEntry) error {
	if r.s.failMovementCreate != nil {
		return r.s.failMovementCreate
	}
	cp := *movement
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovementRepo) LastByField(_ context.Context, tenantID string, item stock.ItemRef, locationID string, reservedSide bool) (*entity.MovementEntry, error) {
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.TenantID != tenantID || m.LocationID != locationID {
			continue
		}
		if (stock.ItemRef{ProductID: m.ProductID, VariantID: m.VariantID}) != item {
			continue
		}
		if entity.AffectsReserved(m.Type) != reservedSide {
			continue
		}
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *memMovementRepo) List(_ context.Context, tenantID string, filter repository.MovementFilter, limit, offset int) ([]*entity.MovementEntry, error) {
	var out []*entity.MovementEntry
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.TenantID != tenantID {
			continue
		}
		if filter.Item != nil && (stock.ItemRef{ProductID: m.ProductID, VariantID: m.VariantID}) != *filter.Item {
			continue
		}
		if filter.LocationID != "" && m.LocationID != filter.LocationID {
			continue
		}
		if filter.DocumentType != "" && m.DocumentType != filter.DocumentType {
			continue
		}
		if filter.DocumentID != "" && m.DocumentID != filter.DocumentID {
			continue
		}
		if filter.CreatedBy != "" && m.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.From != nil && m.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.CreatedAt.After(*filter.To) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type memTransferRepo struct {
	s *memStore
}

var _ repository.TransferRepository = (*memTransferRepo)(nil)

func (r *memTransferRepo) Create(_ context.Context, transfer *entity.TransferRecord) error {
	cp := *transfer
	r.s.transfers = append(r.s.transfers, &cp)
	return nil
}

func (r *memTransferRepo) GetByID(_ context.Context, tenantID, id string) (*entity.TransferRecord, error) {
	for _, t := range r.s.transfers {
		if t.TenantID == tenantID && t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTransferRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.TransferRecord, error) {
	var out []*entity.TransferRecord
	for i := len(r.s.transfers) - 1; i >= 0; i-- {
		if r.s.transfers[i].TenantID == tenantID {
			cp := *r.s.transfers[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAdjustmentRepo struct {
	s *memStore
}

var _ repository.AdjustmentRepository = (*memAdjustmentRepo)(nil)

func (r *memAdjustmentRepo) Create(_ context.Context, adjustment *entity.AdjustmentRecord) error {
	if r.s.failAdjustCreateLeft > 0 {
		r.s.failAdjustCreateLeft--
		return domain.ErrDuplicate
	}
	for _, a := range r.s.adjustments {
		if a.TenantID == adjustment.TenantID && a.Number == adjustment.Number {
			return domain.ErrDuplicate
		}
	}
	cp := *adjustment
	r.s.adjustments = append(r.s.adjustments, &cp)
	return nil
}

func (r *memAdjustmentRepo) GetByID(_ context.Context, tenantID, id string) (*entity.AdjustmentRecord, error) {
	for _, a := range r.s.adjustments {
		if a.TenantID == tenantID && a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memAdjustmentRepo) MaxNumberForPrefix(_ context.Context, tenantID, prefix string) (string, error) {
	max := ""
	for _, a := range r.s.adjustments {
		if a.TenantID == tenantID && strings.HasPrefix(a.Number, prefix) && a.Number > max {
			max = a.Number
		}
	}
	return max, nil
}

func (r *memAdjustmentRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.AdjustmentRecord, error) {
	var out []*entity.AdjustmentRecord
	for i := len(r.s.adjustments) - 1; i >= 0; i-- {
		if r.s.adjustments[i].TenantID == tenantID {
			cp := *r.s.adjustments[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memLocationRepo struct {
	s *memStore
}

var _ repository.LocationRepository = (*memLocationRepo)(nil)

func (r *memLocationRepo) Create(_ context.Context, location *entity.Location) error {
	cp := *location
	r.s.locations[location.TenantID+"|"+location.ID] = &cp
	return nil
}

func (r *memLocationRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Location, error) {
	l, ok := r.s.locations[tenantID+"|"+id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *memLocationRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.Location, error) {
	var out []*entity.Location
	for _, l := range r.s.locations {
		if l.TenantID == tenantID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Clock fijo y notificador grabador
// ──────────────────────────────────────────────────────────────────────────────

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

type recordingNotifier struct {
	mu     sync.Mutex
	events []ledger.BalanceChangedEvent
}

func (n *recordingNotifier) BalanceChanged(_ context.Context, event ledger.BalanceChangedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []ledger.BalanceChangedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ledger.BalanceChangedEvent, len(n.events))
	copy(out, n.events)
	return out
}
