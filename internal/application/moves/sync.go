package moves

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

// Synchronizer espeja las líneas de un envío en su recepción emparejada.
// El puente entre ubicaciones es la convención de títulos
// "<NombreUbicación>#<resto>": la línea se espeja sobre el producto homónimo
// de la ubicación destino.
type Synchronizer struct {
	moves     repository.MoveRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	store     *ledger.Store
	metrics   *Recalculator
	log       *logger.Logger
}

// NewSynchronizer construye el sincronizador.
func NewSynchronizer(
	moves repository.MoveRepository,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	store *ledger.Store,
	metrics *Recalculator,
	log *logger.Logger,
) *Synchronizer {
	return &Synchronizer{moves: moves, products: products, locations: locations, store: store, metrics: metrics, log: log}
}

// SyncSendingToReceiving espeja las líneas del envío en la recepción
// emparejada. No-op si no hay recepción emparejada. Las líneas cuyo producto
// no sigue la convención de prefijo se saltan por completo; los productos
// destino que no resuelven se loguean y se saltan sin abortar el resto.
func (s *Synchronizer) SyncSendingToReceiving(ctx context.Context, sendingMoveID string) error {
	sending, err := s.moves.GetByID(sendingMoveID)
	if err != nil {
		return fmt.Errorf("cargar envío: %w", err)
	}
	if sending == nil || !sending.IsSending() {
		return nil
	}
	receiving, err := s.moves.FindReceivingByCounterpart(sendingMoveID)
	if err != nil {
		return fmt.Errorf("buscar recepción emparejada: %w", err)
	}
	if receiving == nil {
		return nil
	}

	originName, err := s.locationName(sending.OriginLocationID)
	if err != nil {
		return err
	}
	destName, err := s.locationName(receiving.DestinationLocationID)
	if err != nil {
		return err
	}
	if originName == "" || destName == "" {
		return nil
	}

	snapshot, err := s.store.Snapshot(ctx, sendingMoveID)
	if err != nil {
		return fmt.Errorf("snapshot del envío: %w", err)
	}

	prefix := originName + entity.TitleDelimiter
	for _, line := range snapshot {
		if line.Product == nil || !strings.HasPrefix(line.Product.Title, prefix) {
			continue
		}
		destTitle := destName + entity.TitleDelimiter + strings.TrimPrefix(line.Product.Title, prefix)
		destProduct, err := s.products.FindByTitle(destTitle)
		if err != nil {
			s.log.Warn().Err(err).Str("title", destTitle).Msg("sync: búsqueda de producto destino falló")
			continue
		}
		if destProduct == nil {
			s.log.Warn().Str("title", destTitle).Str("move_id", receiving.ID).Msg("sync: producto destino no existe, línea saltada")
			continue
		}
		if err := s.mirrorLine(ctx, receiving.ID, destProduct.ID, line); err != nil {
			s.log.Warn().Err(err).Str("product_id", destProduct.ID).Msg("sync: espejo de línea falló")
		}
	}

	if err := s.metrics.RecalculateReceiving(ctx, receiving.ID); err != nil {
		return fmt.Errorf("recalcular recepción: %w", err)
	}
	return nil
}

// mirrorLine crea o actualiza la línea espejo en la recepción con la misma
// cantidad y el precio de compra copiado.
func (s *Synchronizer) mirrorLine(ctx context.Context, receivingID, productID string, line ledger.SnapshotLine) error {
	_, err := s.store.Link(ctx, ledger.LinkInput{
		ProductID:        productID,
		MoveID:           receivingID,
		Kind:             entity.KindMoveItem,
		Status:           entity.EntryStatusIncomeInv,
		Quantity:         line.Entry.EffectiveQuantity().Abs(),
		PurchasePrice:    line.Entry.PurchasePrice,
		PurchasePriceNet: line.Entry.PurchasePriceNet,
	})
	return err
}

func (s *Synchronizer) locationName(id *string) (string, error) {
	if id == nil {
		return "", nil
	}
	loc, err := s.locations.GetByID(*id)
	if err != nil {
		return "", fmt.Errorf("cargar ubicación %s: %w", *id, err)
	}
	if loc == nil {
		return "", nil
	}
	return loc.DisplayName, nil
}
