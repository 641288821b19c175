package consumption_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de persistencia
// ──────────────────────────────────────────────────────────────────────────────

const (
	orgID     = "11111111-1111-1111-1111-111111111111"
	userID    = "22222222-2222-2222-2222-222222222222"
	sizeID    = "33333333-3333-3333-3333-333333333333"
	otherSize = "33333333-3333-3333-3333-333333333334"
	batchID   = "44444444-4444-4444-4444-444444444444"
	location  = "55555555-5555-5555-5555-555555555555"

	potID   = "aaaaaaaa-0000-0000-0000-000000000001"
	soilID  = "aaaaaaaa-0000-0000-0000-000000000002"
	labelID = "aaaaaaaa-0000-0000-0000-000000000003"
	feeID   = "aaaaaaaa-0000-0000-0000-000000000004"
)

var errBackend = errors.New("connection reset by peer")

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"se esperaba %s, se obtuvo %s", want, got.String()}, msgAndArgs...)...)
}

type fakeMaterialRepo struct {
	bySize  map[string][]*entity.Material
	listErr error
	calls   int
}

var _ repository.MaterialRepository = (*fakeMaterialRepo)(nil)

func (r *fakeMaterialRepo) ListBySize(_ context.Context, _, sizeID string) ([]*entity.Material, error) {
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.bySize[sizeID], nil
}

type fakeRuleRepo struct {
	rules      []*entity.ConsumptionRule
	listErr    error
	failCreate func(*entity.ConsumptionRule) error
	deletes    int
	creates    int
}

var _ repository.ConsumptionRuleRepository = (*fakeRuleRepo)(nil)

func (r *fakeRuleRepo) ListBySize(_ context.Context, orgID, sizeID string) ([]*entity.ConsumptionRule, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*entity.ConsumptionRule
	for _, rule := range r.rules {
		if rule.OrgID == orgID && rule.SizeID == sizeID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) DeleteByMaterialAndSize(_ context.Context, orgID, materialID, sizeID string) error {
	r.deletes++
	kept := r.rules[:0:0]
	for _, rule := range r.rules {
		if rule.OrgID == orgID && rule.MaterialID == materialID && rule.SizeID == sizeID {
			continue
		}
		kept = append(kept, rule)
	}
	r.rules = kept
	return nil
}

func (r *fakeRuleRepo) Create(_ context.Context, rule *entity.ConsumptionRule) error {
	r.creates++
	if r.failCreate != nil {
		if err := r.failCreate(rule); err != nil {
			return err
		}
	}
	r.rules = append(r.rules, rule)
	return nil
}

type fakeStockRepo struct {
	records        map[string]*entity.StockRecord
	getErr         error
	getCalls       int
	forUpdateCalls []string
}

var _ repository.StockRepository = (*fakeStockRepo)(nil)

func (r *fakeStockRepo) read(orgID, materialID string) (*entity.StockRecord, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if s, ok := r.records[materialID]; ok {
		cp := *s
		return &cp, nil
	}
	return &entity.StockRecord{OrgID: orgID, MaterialID: materialID}, nil
}

func (r *fakeStockRepo) Get(_ context.Context, orgID, materialID string) (*entity.StockRecord, error) {
	r.getCalls++
	return r.read(orgID, materialID)
}

func (r *fakeStockRepo) GetForUpdate(_ context.Context, orgID, materialID string) (*entity.StockRecord, error) {
	r.forUpdateCalls = append(r.forUpdateCalls, materialID)
	return r.read(orgID, materialID)
}

type fakeTxRepo struct {
	rows       []*entity.MaterialTransaction
	listErr    error
	failCreate func(*entity.MaterialTransaction) error
}

var _ repository.MaterialTransactionRepository = (*fakeTxRepo)(nil)

func (r *fakeTxRepo) Create(_ context.Context, tx *entity.MaterialTransaction) error {
	if r.failCreate != nil {
		if err := r.failCreate(tx); err != nil {
			return err
		}
	}
	r.rows = append(r.rows, tx)
	return nil
}

func (r *fakeTxRepo) ListByBatch(_ context.Context, orgID, batchID, txType string) ([]*entity.MaterialTransaction, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*entity.MaterialTransaction
	for _, tx := range r.rows {
		if tx.OrgID != orgID || tx.BatchID != batchID {
			continue
		}
		if txType != "" && tx.Type != txType {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

type fakeFailureRepo struct {
	rows    []*entity.ReversalFailure
	listErr error
}

var _ repository.ReversalFailureRepository = (*fakeFailureRepo)(nil)

func (r *fakeFailureRepo) Create(_ context.Context, f *entity.ReversalFailure) error {
	r.rows = append(r.rows, f)
	return nil
}

func (r *fakeFailureRepo) ListByBatch(_ context.Context, orgID, batchID string) ([]*entity.ReversalFailure, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*entity.ReversalFailure
	for _, f := range r.rows {
		if f.OrgID == orgID && f.BatchID == batchID {
			out = append(out, f)
		}
	}
	return out, nil
}

// fakeTxRunner simula la transacción: si fn falla se restauran reglas y ledger.
type fakeTxRunner struct {
	rules     *fakeRuleRepo
	materials *fakeMaterialRepo
	stock     *fakeStockRepo
	txs       *fakeTxRepo
	runs      int
}

func (f *fakeTxRunner) Run(_ context.Context, fn func(
	ruleRepo repository.ConsumptionRuleRepository,
	materialRepo repository.MaterialRepository,
	stockRepo repository.StockRepository,
	txRepo repository.MaterialTransactionRepository,
) error) error {
	f.runs++
	rulesSnap := append([]*entity.ConsumptionRule(nil), f.rules.rules...)
	txSnap := append([]*entity.MaterialTransaction(nil), f.txs.rows...)
	if err := fn(f.rules, f.materials, f.stock, f.txs); err != nil {
		f.rules.rules = rulesSnap
		f.txs.rows = txSnap
		return err
	}
	return nil
}

type fakeRecorder struct {
	outcomes   []string
	reversedOK int
	reversedKO int
}

func (r *fakeRecorder) ConsumptionAttempt(outcome string, _, _ int) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) ReversalRow(ok bool) {
	if ok {
		r.reversedOK++
		return
	}
	r.reversedKO++
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	materials *fakeMaterialRepo
	rules     *fakeRuleRepo
	stock     *fakeStockRepo
	txs       *fakeTxRepo
	failures  *fakeFailureRepo
	runner    *fakeTxRunner
	recorder  *fakeRecorder
}

func newFixture() *fixture {
	f := &fixture{
		materials: &fakeMaterialRepo{bySize: map[string][]*entity.Material{}},
		rules:     &fakeRuleRepo{},
		stock:     &fakeStockRepo{records: map[string]*entity.StockRecord{}},
		txs:       &fakeTxRepo{},
		failures:  &fakeFailureRepo{},
		recorder:  &fakeRecorder{},
	}
	f.runner = &fakeTxRunner{rules: f.rules, materials: f.materials, stock: f.stock, txs: f.txs}
	return f
}

// link vincula un material al tamaño con la fórmula de su categoría ("" = sin categoría).
func (f *fixture) link(size, id, name, uom string, ct entity.ConsumptionType) {
	m := &entity.Material{ID: id, OrgID: orgID, Name: name, PartNumber: "PN-" + name, BaseUOM: uom}
	if ct != "" {
		m.CategoryID = "cat-" + string(ct)
		m.Category = &entity.MaterialCategory{ID: m.CategoryID, OrgID: orgID, Code: string(ct), ConsumptionType: ct}
	}
	f.materials.bySize[size] = append(f.materials.bySize[size], m)
}

func (f *fixture) rule(size, materialID, qty, name string, ct entity.ConsumptionType) {
	f.rules.rules = append(f.rules.rules, &entity.ConsumptionRule{
		ID:              "rule-" + materialID,
		OrgID:           orgID,
		MaterialID:      materialID,
		SizeID:          size,
		QuantityPerUnit: d(qty),
		MaterialName:    name,
		MaterialUOM:     "u",
		ConsumptionType: ct,
	})
}

func (f *fixture) setStock(materialID, onHand, reserved string) {
	f.stock.records[materialID] = &entity.StockRecord{
		OrgID:            orgID,
		MaterialID:       materialID,
		QuantityOnHand:   d(onHand),
		QuantityReserved: d(reserved),
	}
}

// ruleAt agrega una regla con fecha de actualización explícita (filas duplicadas heredadas).
func (f *fixture) ruleAt(size, materialID, qty string, updated time.Time) {
	f.rules.rules = append(f.rules.rules, &entity.ConsumptionRule{
		ID:              fmt.Sprintf("rule-%s-%d", materialID, updated.Unix()),
		OrgID:           orgID,
		MaterialID:      materialID,
		SizeID:          size,
		QuantityPerUnit: d(qty),
		MaterialName:    "sustrato",
		MaterialUOM:     "l",
		ConsumptionType: entity.ConsumptionProportional,
		UpdatedAt:       updated,
	})
}
