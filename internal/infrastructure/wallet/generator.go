// Package wallet integra con el módulo financiero que materializa los
// movimientos de billetera de un traslado completado.
package wallet

import (
	"context"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

// Generator registra la solicitud de generación de transacciones. El módulo
// financiero consume estos eventos de forma asíncrona; aquí solo se emite el
// evento estructurado.
type Generator struct {
	log *logger.Logger
}

// NewGenerator construye el generador.
func NewGenerator(log *logger.Logger) *Generator {
	return &Generator{log: log}
}

// GenerateForMove emite el evento de generación para un traslado completado.
func (g *Generator) GenerateForMove(_ context.Context, move *entity.Move) error {
	g.log.Info().
		Str("move_id", move.ID).
		Str("human_id", move.HumanID).
		Str("total_selling_price", move.TotalSellingPrice.String()).
		Str("total_purchase_price", move.TotalPurchasePrice.String()).
		Msg("wallet: transacciones solicitadas para traslado completado")
	return nil
}
