package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/vivero-api/internal/application/consumption"
	"github.com/jhoicas/vivero-api/internal/application/dto"
	"github.com/jhoicas/vivero-api/internal/domain"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/pkg/logger"
)

// Contratos mínimos que usa el handler; los implementan los casos de uso de application/consumption.
type (
	ruleService interface {
		GetConsumptionRules(ctx context.Context, orgID, sizeID string) ([]*entity.ConsumptionRule, error)
		UpsertConsumptionRules(ctx context.Context, orgID, userID string, rules []consumption.RuleInput) error
	}
	previewService interface {
		PreviewConsumption(ctx context.Context, orgID, sizeID string, producedQty int) ([]entity.ConsumptionLine, error)
	}
	consumeService interface {
		ConsumeMaterialsForBatch(ctx context.Context, in consumption.ConsumeInput) (*consumption.ConsumptionResult, error)
	}
	reversalService interface {
		ReverseConsumption(ctx context.Context, orgID, userID, batchID, reason string) (*consumption.ReversalResult, error)
		ListReversalFailures(ctx context.Context, orgID, batchID string) ([]*entity.ReversalFailure, error)
	}
	ledgerService interface {
		ListBatchTransactions(ctx context.Context, orgID, batchID string) ([]*entity.MaterialTransaction, error)
	}
)

// ConsumptionHandler reglas, vista previa, consumo y reversión de materiales por lote (protegido).
type ConsumptionHandler struct {
	rules    ruleService
	preview  previewService
	consume  consumeService
	reversal reversalService
	ledger   ledgerService
	log      *logger.Logger
}

// NewConsumptionHandler construye el handler. log puede ser nil.
func NewConsumptionHandler(
	rules ruleService,
	preview previewService,
	consume consumeService,
	reversal reversalService,
	ledger ledgerService,
	log *logger.Logger,
) *ConsumptionHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ConsumptionHandler{rules: rules, preview: preview, consume: consume, reversal: reversal, ledger: ledger, log: log}
}

// GetRules godoc
// @Summary      Reglas de consumo de un tamaño
// @Tags         consumption
// @Security     Bearer
// @Produce      json
// @Param        sizeId  path  string  true  "Tamaño de planta (UUID)"
// @Success      200  {array}   dto.ConsumptionRuleDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/sizes/{sizeId}/consumption-rules [get]
func (h *ConsumptionHandler) GetRules(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	rules, err := h.rules.GetConsumptionRules(c.Context(), orgID, c.Params("sizeId"))
	if err != nil {
		return h.fail(c, "GetRules", err)
	}
	return c.JSON(dto.ToConsumptionRuleDTOs(rules))
}

// UpsertRules godoc
// @Summary      Reemplazar reglas de consumo
// @Description  Para cada material enviado borra la regla previa del tamaño y crea la nueva, todo en una transacción.
// @Tags         consumption
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sizeId  path  string                              true  "Tamaño de planta (UUID)"
// @Param        body    body  dto.UpsertConsumptionRulesRequest   true  "material_id y quantity_per_unit por regla"
// @Success      200  {array}   dto.ConsumptionRuleDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/sizes/{sizeId}/consumption-rules [put]
func (h *ConsumptionHandler) UpsertRules(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	userID := GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.UpsertConsumptionRulesRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sizeID := c.Params("sizeId")
	rules := make([]consumption.RuleInput, 0, len(in.Rules))
	for _, r := range in.Rules {
		rules = append(rules, consumption.RuleInput{
			MaterialID:      r.MaterialID,
			SizeID:          sizeID,
			QuantityPerUnit: r.QuantityPerUnit,
		})
	}
	if err := h.rules.UpsertConsumptionRules(c.Context(), orgID, userID, rules); err != nil {
		return h.fail(c, "UpsertRules", err)
	}
	saved, err := h.rules.GetConsumptionRules(c.Context(), orgID, sizeID)
	if err != nil {
		return h.fail(c, "UpsertRules", err)
	}
	return c.JSON(dto.ToConsumptionRuleDTOs(saved))
}

// Preview godoc
// @Summary      Vista previa de consumo
// @Description  Calcula lo que consumiría un lote del tamaño sin escribir nada.
// @Tags         consumption
// @Security     Bearer
// @Produce      json
// @Param        sizeId    path   string  true  "Tamaño de planta (UUID)"
// @Param        quantity  query  int     true  "Unidades producidas (> 0)"
// @Success      200  {object}  dto.ConsumptionPreviewResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/sizes/{sizeId}/consumption-preview [get]
func (h *ConsumptionHandler) Preview(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	qty := c.QueryInt("quantity", 0)
	if qty <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity debe ser un entero positivo"})
	}
	sizeID := c.Params("sizeId")
	lines, err := h.preview.PreviewConsumption(c.Context(), orgID, sizeID, qty)
	if err != nil {
		return h.fail(c, "Preview", err)
	}
	resp := dto.ConsumptionPreviewResponse{
		SizeID:   sizeID,
		Quantity: qty,
		Lines:    dto.ToConsumptionLineDTOs(lines),
	}
	for _, l := range lines {
		if l.IsShortage {
			resp.HasShortage = true
			break
		}
	}
	return c.JSON(resp)
}

// Consume godoc
// @Summary      Consumir materiales de un lote
// @Description  Registra una transacción consume por material. Sin allow_partial, cualquier faltante aborta sin escribir (409).
// @Tags         consumption
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        batchId  path  string                   true  "Lote de producción (UUID)"
// @Param        body     body  dto.ConsumeBatchRequest  true  "size_id, batch_number, produced_quantity, location_id, allow_partial"
// @Success      201  {object}  dto.ConsumeBatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ShortageErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batches/{batchId}/consumption [post]
func (h *ConsumptionHandler) Consume(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	userID := GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ConsumeBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.consume.ConsumeMaterialsForBatch(c.Context(), consumption.ConsumeInput{
		OrgID:        orgID,
		UserID:       userID,
		BatchID:      c.Params("batchId"),
		BatchNumber:  in.BatchNumber,
		SizeID:       in.SizeID,
		ProducedQty:  in.ProducedQuantity,
		LocationID:   in.LocationID,
		AllowPartial: in.AllowPartial,
	})
	if err != nil {
		return h.fail(c, "Consume", err)
	}
	if !res.Success {
		return c.Status(fiber.StatusConflict).JSON(dto.ShortageErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   "stock insuficiente para el lote",
			Shortages: dto.ToShortageDTOs(res.Shortages),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ConsumeBatchResponse{
		Success:      true,
		Transactions: dto.ToMaterialTransactionDTOs(res.Transactions),
		Shortages:    dto.ToShortageDTOs(res.Shortages),
	})
}

// Reverse godoc
// @Summary      Revertir consumo de un lote
// @Description  Escribe una devolución por cada consumo del lote aún no revertido. Las filas que fallan se reportan en failed; reintentar solo procesa esas.
// @Tags         consumption
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        batchId  path  string                          true   "Lote de producción (UUID)"
// @Param        body     body  dto.ReverseConsumptionRequest   false  "reason"
// @Success      200  {object}  dto.ReversalResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batches/{batchId}/consumption/reversal [post]
func (h *ConsumptionHandler) Reverse(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	userID := GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReverseConsumptionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	res, err := h.reversal.ReverseConsumption(c.Context(), orgID, userID, c.Params("batchId"), in.Reason)
	if err != nil {
		return h.fail(c, "Reverse", err)
	}
	failed := make([]dto.FailedReversalDTO, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, dto.FailedReversalDTO{
			ConsumptionID: f.Consumption.ID,
			MaterialID:    f.Consumption.MaterialID,
			Quantity:      f.Consumption.Quantity.Abs(),
			Error:         f.Err.Error(),
		})
	}
	return c.JSON(dto.ReversalResponse{
		Complete:        res.Complete(),
		Reversed:        dto.ToMaterialTransactionDTOs(res.Reversed),
		AlreadyReversed: dto.ToMaterialTransactionDTOs(res.AlreadyReversed),
		Failed:          failed,
	})
}

// ListReversalFailures godoc
// @Summary      Devoluciones fallidas de un lote
// @Description  Filas de reversión que no pudieron escribirse, pendientes de conciliación.
// @Tags         consumption
// @Security     Bearer
// @Produce      json
// @Param        batchId  path  string  true  "Lote de producción (UUID)"
// @Success      200  {array}   dto.ReversalFailureDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batches/{batchId}/consumption/reversal-failures [get]
func (h *ConsumptionHandler) ListReversalFailures(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	list, err := h.reversal.ListReversalFailures(c.Context(), orgID, c.Params("batchId"))
	if err != nil {
		return h.fail(c, "ListReversalFailures", err)
	}
	return c.JSON(dto.ToReversalFailureDTOs(list))
}

// ListTransactions godoc
// @Summary      Transacciones de materiales de un lote
// @Tags         consumption
// @Security     Bearer
// @Produce      json
// @Param        batchId  path  string  true  "Lote de producción (UUID)"
// @Success      200  {array}   dto.MaterialTransactionDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batches/{batchId}/transactions [get]
func (h *ConsumptionHandler) ListTransactions(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	list, err := h.ledger.ListBatchTransactions(c.Context(), orgID, c.Params("batchId"))
	if err != nil {
		return h.fail(c, "ListTransactions", err)
	}
	return c.JSON(dto.ToMaterialTransactionDTOs(list))
}

func (h *ConsumptionHandler) fail(c *fiber.Ctx, op string, err error) error {
	if !errors.Is(err, domain.ErrInvalidInput) {
		h.log.Error().Err(err).Str("op", op).Str("org_id", GetOrgID(c)).Msg("consumo de materiales")
	}
	return writeError(c, err)
}
