// Package memory is an in-process implementation of the reference and plan
// repositories. It backs unit tests and local runs without PostgreSQL.
//
// Transactions are serialized and snapshot-based: the state is copied when
// the outermost transaction starts and restored if it fails. Writes made
// outside RunInTransaction are not isolated from that restore, so a failing
// transaction also undoes concurrent direct writes such as reference edits.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

type state struct {
	subdivisions map[int64]reference.Subdivision
	materials    map[int64]reference.Material
	regulations  map[int64]reference.Regulation
	cards        map[int64]reference.TechnologicalCard
	sources      map[int64]reference.SupplySource

	rows      map[plans.Kind]map[int64]plans.Row
	transfers map[int64]plans.TransferRow
	audit     []plans.AuditEntry

	nextID int64
}

func newState() *state {
	st := &state{
		subdivisions: make(map[int64]reference.Subdivision),
		materials:    make(map[int64]reference.Material),
		regulations:  make(map[int64]reference.Regulation),
		cards:        make(map[int64]reference.TechnologicalCard),
		sources:      make(map[int64]reference.SupplySource),
		rows:         make(map[plans.Kind]map[int64]plans.Row),
		transfers:    make(map[int64]plans.TransferRow),
	}
	for _, k := range plans.Kinds {
		st.rows[k] = make(map[int64]plans.Row)
	}
	return st
}

func (st *state) clone() *state {
	c := &state{
		subdivisions: maps.Clone(st.subdivisions),
		materials:    maps.Clone(st.materials),
		regulations:  maps.Clone(st.regulations),
		cards:        maps.Clone(st.cards),
		sources:      maps.Clone(st.sources),
		rows:         make(map[plans.Kind]map[int64]plans.Row, len(st.rows)),
		transfers:    maps.Clone(st.transfers),
		audit:        slices.Clone(st.audit),
		nextID:       st.nextID,
	}
	for k, m := range st.rows {
		c.rows[k] = maps.Clone(m)
	}
	return c
}

// Store holds all tables in memory.
type Store struct {
	mu   sync.RWMutex
	st   *state
	txMu sync.Mutex

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

// Repositories returns plan repositories backed by the store.
func (s *Store) Repositories() *plans.Repositories {
	return &plans.Repositories{
		Sales:      &planRepo{s: s, kind: plans.KindSales},
		Inventory:  &planRepo{s: s, kind: plans.KindInventory},
		Production: &planRepo{s: s, kind: plans.KindProduction},
		WriteOff:   &planRepo{s: s, kind: plans.KindWriteOff},
		Purchase:   &planRepo{s: s, kind: plans.KindPurchase},
		Transfers:  &transferRepo{s: s},
	}
}

// --- tx.Manager ---

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()

	err := fn(context.WithValue(ctx, txKey{}, true))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// LockKey implements tx.KeyLocker. Transactions are already serialized.
func (s *Store) LockKey(ctx context.Context, _ string, _ ...int64) error {
	return ctx.Err()
}

// --- plans.AuditJournal ---

// Record implements plans.AuditJournal.
func (s *Store) Record(_ context.Context, entry *plans.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.id()
	entry.CreatedAt = s.now().UTC()
	s.st.audit = append(s.st.audit, *entry)
	return nil
}

// History implements plans.AuditJournal, newest first.
func (s *Store) History(_ context.Context, kind plans.Kind, subdivisionID, materialID int64, year int) ([]plans.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []plans.AuditEntry
	for i := len(s.st.audit) - 1; i >= 0; i-- {
		e := s.st.audit[i]
		if e.Kind == kind && e.SubdivisionID == subdivisionID && e.MaterialID == materialID && e.Year == year {
			out = append(out, e)
		}
	}
	return out, nil
}
