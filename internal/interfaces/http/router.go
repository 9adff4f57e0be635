package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger     *ledger.StockLedgerUseCase
	Transfers  *ledger.TransferStockUseCase
	Adjuster   *ledger.AdjustStockUseCase
	Queries    *ledger.StockQueryUseCase
	LocationUC *usecase.LocationUseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Todo salvo /health (registrado en main)
// exige Bearer Token con tenant.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Bodegas / sucursales
	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)

	// Ledger de stock
	stockGroup := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger)
	stockGroup.Post("/receive", stockHandler.Receive)
	stockGroup.Post("/issue", stockHandler.Issue)
	stockGroup.Post("/reserve", stockHandler.Reserve)
	stockGroup.Post("/release", stockHandler.Release)
	stockGroup.Post("/fulfill", stockHandler.Fulfill)
	stockGroup.Put("/thresholds", stockHandler.SetThresholds)

	// Traslados y ajustes
	transferHandler := NewTransferHandler(deps.Transfers)
	stockGroup.Post("/transfers", transferHandler.Create)
	adjustmentHandler := NewAdjustmentHandler(deps.Adjuster)
	stockGroup.Post("/adjustments", adjustmentHandler.Create)

	// Consultas
	queryHandler := NewQueryHandler(deps.Queries)
	stockGroup.Get("/balances", queryHandler.Balances)
	stockGroup.Get("/publishable", queryHandler.Publishable)
	stockGroup.Get("/alerts/low-stock", queryHandler.LowStock)
	stockGroup.Get("/alerts/out-of-stock", queryHandler.OutOfStock)
	stockGroup.Get("/alerts/above-maximum", queryHandler.AboveMaximum)
	stockGroup.Get("/movements", queryHandler.Movements)
	stockGroup.Get("/consistency", queryHandler.Consistency)
}
