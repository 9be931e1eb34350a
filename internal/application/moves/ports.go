package moves

import (
	"context"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// Notifier puerta de salida hacia los managers (push, websocket, etc.).
// Sus fallos se loguean y nunca abortan la operación principal.
type Notifier interface {
	NotifyManagers(ctx context.Context, title, body, deepLink string) error
}

// WalletTransactions genera los movimientos de cartera del contratista cuando
// se recalcula un envío ya completado. Efecto secundario fire-and-forget.
type WalletTransactions interface {
	GenerateForMove(ctx context.Context, move *entity.Move) error
}
