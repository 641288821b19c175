package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/vivero-api/internal/application/consumption"
	"github.com/jhoicas/vivero-api/pkg/jwt"
	"github.com/jhoicas/vivero-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RuleUC        *consumption.RuleUseCase
	Calculator    *consumption.Calculator
	ConsumptionUC *consumption.ConsumptionUseCase
	ReversalUC    *consumption.ReversalUseCase
	LedgerUC      *consumption.LedgerUseCase
	Logger        *logger.Logger
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	h := NewConsumptionHandler(deps.RuleUC, deps.Calculator, deps.ConsumptionUC, deps.ReversalUC, deps.LedgerUC, deps.Logger)
	Register(app, h, deps.JWTSecret)
}

// Register monta las rutas protegidas del handler de consumo bajo /api.
func Register(app *fiber.App, h *ConsumptionHandler, jwtSecret string) {
	protected := app.Group("/api", AuthMiddleware(jwtSecret))

	sizes := protected.Group("/sizes/:sizeId")
	sizes.Get("/consumption-rules", h.GetRules)
	sizes.Put("/consumption-rules", RequireRole(jwt.RoleAdmin), h.UpsertRules)
	sizes.Get("/consumption-preview", h.Preview)

	batches := protected.Group("/batches/:batchId")
	batches.Post("/consumption", RequireRole(jwt.RoleAdmin, jwt.RoleOperario), h.Consume)
	batches.Post("/consumption/reversal", RequireRole(jwt.RoleAdmin), h.Reverse)
	batches.Get("/consumption/reversal-failures", RequireRole(jwt.RoleAdmin), h.ListReversalFailures)
	batches.Get("/transactions", h.ListTransactions)
}
