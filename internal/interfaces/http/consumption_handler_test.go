package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/vivero-api/internal/application/consumption"
	"github.com/jhoicas/vivero-api/internal/application/dto"
	"github.com/jhoicas/vivero-api/internal/domain"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	apphttp "github.com/jhoicas/vivero-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/vivero-api/pkg/jwt"
)

const (
	testSizeID     = "00000000-0000-0000-0000-0000000000a1"
	testBatchID    = "00000000-0000-0000-0000-0000000000b1"
	testMaterialID = "00000000-0000-0000-0000-0000000000c1"
)

// ──────────────────────────────────────────────────────────────────────────────
// Stub del servicio de consumo
// ──────────────────────────────────────────────────────────────────────────────

type stubService struct {
	rules      []*entity.ConsumptionRule
	upserted   []consumption.RuleInput
	upsertOrg  string
	lines      []entity.ConsumptionLine
	previewQty int
	consumeIn  consumption.ConsumeInput
	consumeRes *consumption.ConsumptionResult
	reversal   *consumption.ReversalResult
	ledger     []*entity.MaterialTransaction
	failures   []*entity.ReversalFailure
	err        error
}

func (s *stubService) GetConsumptionRules(_ context.Context, _, _ string) ([]*entity.ConsumptionRule, error) {
	return s.rules, s.err
}

func (s *stubService) UpsertConsumptionRules(_ context.Context, orgID, _ string, rules []consumption.RuleInput) error {
	s.upsertOrg = orgID
	s.upserted = rules
	return s.err
}

func (s *stubService) PreviewConsumption(_ context.Context, _, _ string, qty int) ([]entity.ConsumptionLine, error) {
	s.previewQty = qty
	return s.lines, s.err
}

func (s *stubService) ConsumeMaterialsForBatch(_ context.Context, in consumption.ConsumeInput) (*consumption.ConsumptionResult, error) {
	s.consumeIn = in
	return s.consumeRes, s.err
}

func (s *stubService) ReverseConsumption(_ context.Context, _, _, _, _ string) (*consumption.ReversalResult, error) {
	return s.reversal, s.err
}

func (s *stubService) ListReversalFailures(_ context.Context, _, _ string) ([]*entity.ReversalFailure, error) {
	return s.failures, s.err
}

func (s *stubService) ListBatchTransactions(_ context.Context, _, _ string) ([]*entity.MaterialTransaction, error) {
	return s.ledger, s.err
}

func buildConsumptionApp(s *stubService) *fiber.App {
	app := fiber.New()
	h := apphttp.NewConsumptionHandler(s, s, s, s, s, nil)
	apphttp.Register(app, h, testJWTSecret)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Reglas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetRules_DevuelveReglasDelTamano(t *testing.T) {
	s := &stubService{rules: []*entity.ConsumptionRule{{
		ID: "r1", MaterialID: testMaterialID, SizeID: testSizeID,
		MaterialName: "Maceta 10cm", ConsumptionType: entity.ConsumptionPerUnit,
		QuantityPerUnit: decimal.NewFromInt(1),
	}}}
	resp := call(t, buildConsumptionApp(s), http.MethodGet, "/api/sizes/"+testSizeID+"/consumption-rules", pkgjwt.RoleConsulta, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	rules := decode[[]dto.ConsumptionRuleDTO](t, resp)
	require.Len(t, rules, 1)
	assert.Equal(t, "Maceta 10cm", rules[0].MaterialName)
	assert.True(t, decimal.NewFromInt(1).Equal(rules[0].QuantityPerUnit))
}

func TestUpsertRules_OperarioBloqueado(t *testing.T) {
	s := &stubService{}
	resp := call(t, buildConsumptionApp(s), http.MethodPut, "/api/sizes/"+testSizeID+"/consumption-rules", pkgjwt.RoleOperario,
		`{"rules":[{"material_id":"`+testMaterialID+`","quantity_per_unit":"2"}]}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, s.upserted)
}

func TestUpsertRules_AdminUsaTamanoDeLaRuta(t *testing.T) {
	s := &stubService{}
	resp := call(t, buildConsumptionApp(s), http.MethodPut, "/api/sizes/"+testSizeID+"/consumption-rules", pkgjwt.RoleAdmin,
		`{"rules":[{"material_id":"`+testMaterialID+`","quantity_per_unit":"2.5"}]}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, s.upserted, 1)
	assert.Equal(t, testOrgID, s.upsertOrg)
	assert.Equal(t, testSizeID, s.upserted[0].SizeID)
	assert.Equal(t, testMaterialID, s.upserted[0].MaterialID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(s.upserted[0].QuantityPerUnit))
}

func TestUpsertRules_CuerpoInvalido(t *testing.T) {
	resp := call(t, buildConsumptionApp(&stubService{}), http.MethodPut, "/api/sizes/"+testSizeID+"/consumption-rules", pkgjwt.RoleAdmin, `{"rules":`)
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", body.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vista previa
// ──────────────────────────────────────────────────────────────────────────────

func TestPreview_SinCantidad_Retorna400(t *testing.T) {
	s := &stubService{}
	resp := call(t, buildConsumptionApp(s), http.MethodGet, "/api/sizes/"+testSizeID+"/consumption-preview", pkgjwt.RoleConsulta, "")
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Zero(t, s.previewQty)
}

func TestPreview_MarcaFaltante(t *testing.T) {
	s := &stubService{lines: []entity.ConsumptionLine{
		{MaterialID: testMaterialID, QuantityRequired: decimal.NewFromInt(100), QuantityAvailable: decimal.NewFromInt(40), IsShortage: true},
	}}
	resp := call(t, buildConsumptionApp(s), http.MethodGet, "/api/sizes/"+testSizeID+"/consumption-preview?quantity=100", pkgjwt.RoleConsulta, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.ConsumptionPreviewResponse](t, resp)
	assert.Equal(t, 100, s.previewQty)
	assert.True(t, body.HasShortage)
	require.Len(t, body.Lines, 1)
	assert.True(t, decimal.NewFromInt(40).Equal(body.Lines[0].QuantityAvailable))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo
// ──────────────────────────────────────────────────────────────────────────────

const consumeBody = `{"size_id":"` + testSizeID + `","batch_number":"B-001","produced_quantity":10}`

func TestConsume_Exitoso_Retorna201(t *testing.T) {
	s := &stubService{consumeRes: &consumption.ConsumptionResult{
		Success: true,
		Transactions: []*entity.MaterialTransaction{
			{ID: "t1", MaterialID: testMaterialID, Quantity: decimal.NewFromInt(-10), Type: entity.TransactionTypeConsume, BatchID: testBatchID},
		},
	}}
	resp := call(t, buildConsumptionApp(s), http.MethodPost, "/api/batches/"+testBatchID+"/consumption", pkgjwt.RoleOperario, consumeBody)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[dto.ConsumeBatchResponse](t, resp)
	assert.True(t, body.Success)
	require.Len(t, body.Transactions, 1)
	assert.True(t, decimal.NewFromInt(-10).Equal(body.Transactions[0].Quantity))

	assert.Equal(t, testBatchID, s.consumeIn.BatchID)
	assert.Equal(t, testUserID, s.consumeIn.UserID)
	assert.Equal(t, "B-001", s.consumeIn.BatchNumber)
	assert.Equal(t, 10, s.consumeIn.ProducedQty)
	assert.False(t, s.consumeIn.AllowPartial)
}

func TestConsume_FaltanteEstricto_Retorna409(t *testing.T) {
	s := &stubService{consumeRes: &consumption.ConsumptionResult{
		Success:      false,
		Transactions: []*entity.MaterialTransaction{},
		Shortages: []entity.Shortage{
			{MaterialID: testMaterialID, MaterialName: "Sustrato", Required: decimal.NewFromInt(10), Available: decimal.NewFromInt(3)},
		},
	}}
	resp := call(t, buildConsumptionApp(s), http.MethodPost, "/api/batches/"+testBatchID+"/consumption", pkgjwt.RoleAdmin, consumeBody)

	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[dto.ShortageErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	require.Len(t, body.Shortages, 1)
	assert.Equal(t, "Sustrato", body.Shortages[0].MaterialName)
}

func TestConsume_RolConsultaBloqueado(t *testing.T) {
	resp := call(t, buildConsumptionApp(&stubService{}), http.MethodPost, "/api/batches/"+testBatchID+"/consumption", pkgjwt.RoleConsulta, consumeBody)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestConsume_ErrorDeAlmacenamiento_Retorna500ConMensaje(t *testing.T) {
	s := &stubService{err: domain.NewStorageError("insertConsumeTransaction", errors.New("connection reset by peer"))}
	resp := call(t, buildConsumptionApp(s), http.MethodPost, "/api/batches/"+testBatchID+"/consumption", pkgjwt.RoleAdmin, consumeBody)
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "STORAGE", body.Code)
	assert.Equal(t, "connection reset by peer", body.Message)
}

func TestConsume_EntradaInvalida_Retorna400(t *testing.T) {
	s := &stubService{err: domain.ErrInvalidInput}
	resp := call(t, buildConsumptionApp(s), http.MethodPost, "/api/batches/not-a-uuid/consumption", pkgjwt.RoleAdmin, consumeBody)
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reversión y ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestReverse_ParcialReportaFallidos(t *testing.T) {
	orig := &entity.MaterialTransaction{ID: "c2", MaterialID: testMaterialID, Quantity: decimal.NewFromInt(-4)}
	s := &stubService{reversal: &consumption.ReversalResult{
		Reversed: []*entity.MaterialTransaction{{ID: "r1", Quantity: decimal.NewFromInt(6), Type: entity.TransactionTypeReturn}},
		Failed:   []consumption.FailedReversal{{Consumption: orig, Err: errors.New("deadlock detected")}},
	}}
	resp := call(t, buildConsumptionApp(s), http.MethodPost, "/api/batches/"+testBatchID+"/consumption/reversal", pkgjwt.RoleAdmin, `{"reason":"lote descartado"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.ReversalResponse](t, resp)
	assert.False(t, body.Complete)
	assert.Len(t, body.Reversed, 1)
	require.Len(t, body.Failed, 1)
	assert.Equal(t, "c2", body.Failed[0].ConsumptionID)
	assert.True(t, body.Failed[0].Quantity.Equal(decimal.NewFromInt(4)), "la cantidad fallida se informa positiva, got %s", body.Failed[0].Quantity)
	assert.Equal(t, "deadlock detected", body.Failed[0].Error)
}

func TestReverse_InformaConsumosYaRevertidos(t *testing.T) {
	s := &stubService{reversal: &consumption.ReversalResult{
		Reversed:        []*entity.MaterialTransaction{},
		AlreadyReversed: []*entity.MaterialTransaction{{ID: "c1", Quantity: decimal.NewFromInt(-10), Type: entity.TransactionTypeConsume}},
		Failed:          []consumption.FailedReversal{},
	}}
	resp := call(t, buildConsumptionApp(s), http.MethodPost, "/api/batches/"+testBatchID+"/consumption/reversal", pkgjwt.RoleAdmin, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.ReversalResponse](t, resp)
	assert.True(t, body.Complete)
	assert.Empty(t, body.Reversed)
	require.Len(t, body.AlreadyReversed, 1)
	assert.Equal(t, "c1", body.AlreadyReversed[0].ID)
}

func TestListReversalFailures_DevuelveFallasDelLote(t *testing.T) {
	s := &stubService{failures: []*entity.ReversalFailure{{
		ID:            "f1",
		ConsumptionID: "c2",
		MaterialID:    testMaterialID,
		Quantity:      decimal.NewFromInt(4),
		Reason:        "lote descartado",
		Error:         "deadlock detected",
	}}}
	resp := call(t, buildConsumptionApp(s), http.MethodGet, "/api/batches/"+testBatchID+"/consumption/reversal-failures", pkgjwt.RoleAdmin, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]dto.ReversalFailureDTO](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "c2", list[0].ConsumptionID)
	assert.Equal(t, "deadlock detected", list[0].Error)
	assert.True(t, list[0].Quantity.Equal(decimal.NewFromInt(4)))
}

func TestListReversalFailures_OperarioBloqueado(t *testing.T) {
	resp := call(t, buildConsumptionApp(&stubService{}), http.MethodGet, "/api/batches/"+testBatchID+"/consumption/reversal-failures", pkgjwt.RoleOperario, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReverse_SinCuerpo(t *testing.T) {
	s := &stubService{reversal: &consumption.ReversalResult{
		Reversed: []*entity.MaterialTransaction{},
		Failed:   []consumption.FailedReversal{},
	}}
	resp := call(t, buildConsumptionApp(s), http.MethodPost, "/api/batches/"+testBatchID+"/consumption/reversal", pkgjwt.RoleAdmin, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.ReversalResponse](t, resp)
	assert.True(t, body.Complete)
	assert.Empty(t, body.Reversed)
}

func TestReverse_OperarioBloqueado(t *testing.T) {
	resp := call(t, buildConsumptionApp(&stubService{}), http.MethodPost, "/api/batches/"+testBatchID+"/consumption/reversal", pkgjwt.RoleOperario, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListTransactions(t *testing.T) {
	s := &stubService{ledger: []*entity.MaterialTransaction{
		{ID: "t1", Quantity: decimal.NewFromInt(-10), Type: entity.TransactionTypeConsume},
		{ID: "t2", Quantity: decimal.NewFromInt(10), Type: entity.TransactionTypeReturn},
	}}
	resp := call(t, buildConsumptionApp(s), http.MethodGet, "/api/batches/"+testBatchID+"/transactions", pkgjwt.RoleConsulta, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]dto.MaterialTransactionDTO](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, entity.TransactionTypeReturn, list[1].Type)
}
