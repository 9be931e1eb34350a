package moves

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/pkg/logger"
	"github.com/jhoicas/Traslados-api/pkg/validator"
)

// UseCase es el motor de estados de traslados: posee los registros Move, sus
// transiciones y las operaciones de líneas, delegando la escritura de
// cantidades al libro mayor y el recálculo a los componentes inyectados.
//
// Ningún flujo multi-paso corre dentro de una transacción: cada paso es su
// propia lectura/escritura, y los efectos secundarios (notificaciones,
// sincronización, promedios) se loguean y nunca abortan la operación
// principal.
type UseCase struct {
	moves    repository.MoveRepository
	users    repository.UserRepository
	store    *ledger.Store
	metrics  *Recalculator
	syncer   *Synchronizer
	avgPrice *AveragePriceRecalculator
	notifier Notifier // opcional
	log      *logger.Logger
}

// NewUseCase construye el motor con sus colaboradores. notifier puede ser nil.
func NewUseCase(
	moves repository.MoveRepository,
	users repository.UserRepository,
	store *ledger.Store,
	metrics *Recalculator,
	syncer *Synchronizer,
	avgPrice *AveragePriceRecalculator,
	notifier Notifier,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		moves:    moves,
		users:    users,
		store:    store,
		metrics:  metrics,
		syncer:   syncer,
		avgPrice: avgPrice,
		notifier: notifier,
		log:      log,
	}
}

// newHumanID genera el código corto visible (ej. TR-4F8A2C).
func newHumanID() string {
	id := uuid.New()
	return fmt.Sprintf("TR-%X", id[0:3])
}

func newBaseMove(title string, subtype entity.MoveSubtype, transportPrice decimal.Decimal) *entity.Move {
	now := time.Now()
	return &entity.Move{
		ID:             uuid.New().String(),
		HumanID:        newHumanID(),
		Title:          title,
		Status:         entity.MoveStatusInProgress,
		Subtype:        subtype,
		TransportPrice: transportPrice,
		Lines:          json.RawMessage("[]"),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CreateReceiving crea una recepción IN_PROGRESS con lista de líneas vacía.
// CounterpartMoveID, si viene, referencia al envío que esta recepción espeja.
func (uc *UseCase) CreateReceiving(ctx context.Context, in dto.CreateMoveRequest) (*entity.Move, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, domain.ErrInvalidInput
	}
	move := newBaseMove(in.Title, entity.MoveSubtypeReceiving, in.TransportPrice)
	move.DestinationLocationID = &in.LocationID
	if in.CounterpartMoveID != "" {
		counterpart := in.CounterpartMoveID
		move.CounterpartMoveID = &counterpart
	}
	if err := uc.moves.Create(move); err != nil {
		return nil, fmt.Errorf("crear recepción: %w", err)
	}
	return move, nil
}

// CreateSending crea un envío IN_PROGRESS con lista de líneas vacía.
func (uc *UseCase) CreateSending(ctx context.Context, in dto.CreateMoveRequest) (*entity.Move, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, domain.ErrInvalidInput
	}
	move := newBaseMove(in.Title, entity.MoveSubtypeSending, in.TransportPrice)
	move.OriginLocationID = &in.LocationID
	if err := uc.moves.Create(move); err != nil {
		return nil, fmt.Errorf("crear envío: %w", err)
	}
	return move, nil
}

// CreateOrUseInventoryMove es idempotente: reutiliza el conteo INVENTORY
// abierto sobre la ubicación si existe; si no, crea uno nuevo COMPLETED desde
// el inicio (los conteos son inmediatos, no pasan por aprobación).
func (uc *UseCase) CreateOrUseInventoryMove(ctx context.Context, locationID string) (*entity.Move, error) {
	if locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	open, err := uc.moves.FindInProgressByDestination(locationID)
	if err != nil {
		return nil, fmt.Errorf("buscar conteos abiertos: %w", err)
	}
	for _, m := range open {
		if m.InferSubtype() == entity.MoveSubtypeInventory {
			return m, nil
		}
	}
	move := newBaseMove("Conteo de inventario", entity.MoveSubtypeInventory, decimal.Zero)
	move.Status = entity.MoveStatusCompleted
	move.DestinationLocationID = &locationID
	if err := uc.moves.Create(move); err != nil {
		return nil, fmt.Errorf("crear conteo: %w", err)
	}
	return move, nil
}

// GetMove carga un traslado. (nil, nil) si no existe o está borrado.
func (uc *UseCase) GetMove(ctx context.Context, moveID string) (*entity.Move, error) {
	return uc.moves.GetByID(moveID)
}

// Snapshot expone la vista canónica de líneas del traslado (para documentos).
func (uc *UseCase) Snapshot(ctx context.Context, moveID string) ([]ledger.SnapshotLine, error) {
	return uc.store.Snapshot(ctx, moveID)
}

// isManager consulta el directorio de usuarios. Un fallo del directorio se
// loguea y cuenta como "no manager".
func (uc *UseCase) isManager(actorID string) bool {
	if actorID == "" {
		return false
	}
	user, err := uc.users.GetByID(actorID)
	if err != nil {
		uc.log.Warn().Err(err).Str("actor_id", actorID).Msg("consulta de rol falló")
		return false
	}
	return user != nil && user.IsManager()
}

// mutationGate: las líneas y campos de un traslado solo se tocan mientras
// está IN_PROGRESS, salvo que el actor sea manager.
func (uc *UseCase) mutationGate(move *entity.Move, actorID string) error {
	if move.Status == entity.MoveStatusInProgress {
		return nil
	}
	if uc.isManager(actorID) {
		return nil
	}
	return domain.ErrInvalidState
}

// afterLineMutation recalcula métricas según el subtipo y re-ejecuta el
// sincronizador para envíos.
func (uc *UseCase) afterLineMutation(ctx context.Context, move *entity.Move) error {
	switch move.InferSubtype() {
	case entity.MoveSubtypeReceiving:
		return uc.metrics.RecalculateReceiving(ctx, move.ID)
	case entity.MoveSubtypeSending:
		if err := uc.metrics.RecalculateSending(ctx, move.ID); err != nil {
			return err
		}
		return uc.syncer.SyncSendingToReceiving(ctx, move.ID)
	}
	return nil
}

// AddLineItem agrega (o upserta) una línea al traslado.
func (uc *UseCase) AddLineItem(ctx context.Context, actorID, moveID string, in dto.AddLineItemRequest) (*entity.LedgerEntry, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, domain.ErrInvalidInput
	}
	status := entity.EntryStatus(in.Status)
	if !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	move, err := uc.moves.GetByID(moveID)
	if err != nil {
		return nil, fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.mutationGate(move, actorID); err != nil {
		return nil, err
	}

	kind := entity.KindMoveItem
	if move.IsInventory() {
		kind = entity.KindInventoryItem
	}
	entry, err := uc.store.Link(ctx, ledger.LinkInput{
		ProductID:         in.ProductID,
		MoveID:            moveID,
		Kind:              kind,
		Status:            status,
		Quantity:          in.Quantity,
		ConfirmedQuantity: in.ConfirmedQuantity,
		PurchasePrice:     in.PurchasePrice,
		PurchasePriceNet:  in.PurchasePriceNet,
		SellingPrice:      in.SellingPrice,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.afterLineMutation(ctx, move); err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveLineItem quita una línea del traslado (soft-delete) y recalcula.
func (uc *UseCase) RemoveLineItem(ctx context.Context, actorID, moveID, entryID string) error {
	move, err := uc.moves.GetByID(moveID)
	if err != nil {
		return fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil {
		return domain.ErrNotFound
	}
	if err := uc.mutationGate(move, actorID); err != nil {
		return err
	}
	if err := uc.store.Unlink(ctx, entryID); err != nil {
		return err
	}
	return uc.afterLineMutation(ctx, move)
}

// UpdateReceivingByMoveID actualiza campos editables de una recepción y
// recalcula sus métricas.
func (uc *UseCase) UpdateReceivingByMoveID(ctx context.Context, actorID, moveID string, in dto.UpdateMoveRequest) (*entity.Move, error) {
	return uc.updateByMoveID(ctx, actorID, moveID, in, entity.MoveSubtypeReceiving)
}

// UpdateSendingByMoveID actualiza campos editables de un envío y recalcula.
func (uc *UseCase) UpdateSendingByMoveID(ctx context.Context, actorID, moveID string, in dto.UpdateMoveRequest) (*entity.Move, error) {
	return uc.updateByMoveID(ctx, actorID, moveID, in, entity.MoveSubtypeSending)
}

func (uc *UseCase) updateByMoveID(ctx context.Context, actorID, moveID string, in dto.UpdateMoveRequest, subtype entity.MoveSubtype) (*entity.Move, error) {
	move, err := uc.moves.GetByID(moveID)
	if err != nil {
		return nil, fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil {
		return nil, domain.ErrNotFound
	}
	if move.InferSubtype() != subtype {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.mutationGate(move, actorID); err != nil {
		return nil, err
	}
	if in.Title != nil {
		move.Title = *in.Title
	}
	if in.TransportPrice != nil {
		move.TransportPrice = *in.TransportPrice
	}
	move.UpdatedAt = time.Now()
	if err := uc.moves.Update(move); err != nil {
		return nil, fmt.Errorf("guardar traslado: %w", err)
	}
	if err := uc.afterLineMutation(ctx, move); err != nil {
		return nil, err
	}
	return uc.moves.GetByID(moveID)
}

// SendForApproval pasa un traslado IN_PROGRESS a ON_APPROVAL. Si es un
// envío, antes consolida sus líneas (provisional → confirmada). Devuelve
// (nil, nil) si el traslado no existe o no está IN_PROGRESS.
func (uc *UseCase) SendForApproval(ctx context.Context, moveID string) (*entity.Move, error) {
	move, err := uc.moves.GetByID(moveID)
	if err != nil {
		return nil, fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil || move.Status != entity.MoveStatusInProgress {
		return nil, nil
	}
	if move.IsSending() {
		if err := uc.store.ConfirmQuantities(ctx, moveID); err != nil {
			return nil, fmt.Errorf("consolidar líneas: %w", err)
		}
	}
	move.Status = entity.MoveStatusOnApproval
	move.UpdatedAt = time.Now()
	if err := uc.moves.Update(move); err != nil {
		return nil, fmt.Errorf("guardar estado: %w", err)
	}

	uc.notifyManagers(ctx, move)
	return move, nil
}

// notifyManagers avisa a los managers con deep link al traslado.
// Fire-and-forget: el fallo se loguea y no afecta la transición.
func (uc *UseCase) notifyManagers(ctx context.Context, move *entity.Move) {
	if uc.notifier == nil {
		return
	}
	title := "Traslado por aprobar"
	body := fmt.Sprintf("%s (%s) espera aprobación", move.Title, move.HumanID)
	deepLink := "/moves/" + move.ID
	if err := uc.notifier.NotifyManagers(ctx, title, body, deepLink); err != nil {
		uc.log.Warn().Err(err).Str("move_id", move.ID).Msg("notificación a managers falló")
	}
}

// ConfirmReceiving finaliza una recepción. Solo managers.
func (uc *UseCase) ConfirmReceiving(ctx context.Context, moveID, actorID string) (*entity.Move, error) {
	return uc.confirm(ctx, moveID, actorID, entity.MoveSubtypeReceiving)
}

// ConfirmSending finaliza un envío. Solo managers.
func (uc *UseCase) ConfirmSending(ctx context.Context, moveID, actorID string) (*entity.Move, error) {
	return uc.confirm(ctx, moveID, actorID, entity.MoveSubtypeSending)
}

// confirm: rol manager, estado ON_APPROVAL o IN_PROGRESS; recalcula
// métricas, confirma cantidades, pasa a COMPLETED y dispara el recálculo de
// promedios (aislado por producto).
func (uc *UseCase) confirm(ctx context.Context, moveID, actorID string, subtype entity.MoveSubtype) (*entity.Move, error) {
	if !uc.isManager(actorID) {
		return nil, domain.ErrForbidden
	}
	move, err := uc.moves.GetByID(moveID)
	if err != nil {
		return nil, fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil {
		return nil, domain.ErrNotFound
	}
	if move.Status != entity.MoveStatusOnApproval && move.Status != entity.MoveStatusInProgress {
		return nil, domain.ErrInvalidState
	}

	switch subtype {
	case entity.MoveSubtypeReceiving:
		err = uc.metrics.RecalculateReceiving(ctx, moveID)
	case entity.MoveSubtypeSending:
		err = uc.metrics.RecalculateSending(ctx, moveID)
	}
	if err != nil {
		return nil, fmt.Errorf("recalcular métricas: %w", err)
	}
	if err := uc.store.ConfirmQuantities(ctx, moveID); err != nil {
		return nil, fmt.Errorf("confirmar cantidades: %w", err)
	}

	// Releer: el recalculador acaba de escribir métricas sobre el registro.
	move, err = uc.moves.GetByID(moveID)
	if err != nil || move == nil {
		return nil, fmt.Errorf("releer traslado: %w", err)
	}
	move.Status = entity.MoveStatusCompleted
	move.UpdatedAt = time.Now()
	if err := uc.moves.Update(move); err != nil {
		return nil, fmt.Errorf("guardar estado: %w", err)
	}

	if err := uc.avgPrice.RecalculateForMove(ctx, moveID); err != nil {
		uc.log.Error().Err(err).Str("move_id", moveID).Msg("recálculo de promedios falló")
	}
	return move, nil
}

// UpdateStatus es el setter genérico de estado. Propaga el mismo estado al
// traslado emparejado; al pasar a ON_APPROVAL consolida las líneas del lado
// envío; al terminar en COMPLETED dispara el recálculo de promedios.
func (uc *UseCase) UpdateStatus(ctx context.Context, moveID string, newStatus entity.MoveStatus) (*entity.Move, error) {
	if !newStatus.Valid() {
		return nil, domain.ErrInvalidInput
	}
	move, err := uc.moves.GetByID(moveID)
	if err != nil {
		return nil, fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil {
		return nil, domain.ErrNotFound
	}
	if move.Status.Terminal() {
		return nil, domain.ErrInvalidState
	}

	pair, err := uc.findPair(move)
	if err != nil {
		uc.log.Warn().Err(err).Str("move_id", moveID).Msg("búsqueda de traslado emparejado falló")
	}

	if newStatus == entity.MoveStatusOnApproval {
		for _, m := range []*entity.Move{move, pair} {
			if m != nil && m.IsSending() {
				if err := uc.store.ConfirmQuantities(ctx, m.ID); err != nil {
					return nil, fmt.Errorf("consolidar líneas: %w", err)
				}
			}
		}
	}

	move.Status = newStatus
	move.UpdatedAt = time.Now()
	if err := uc.moves.Update(move); err != nil {
		return nil, fmt.Errorf("guardar estado: %w", err)
	}
	if pair != nil && !pair.Status.Terminal() {
		pair.Status = newStatus
		pair.UpdatedAt = time.Now()
		if err := uc.moves.Update(pair); err != nil {
			uc.log.Warn().Err(err).Str("move_id", pair.ID).Msg("propagación de estado al par falló")
		}
	}

	if newStatus == entity.MoveStatusCompleted {
		if err := uc.avgPrice.RecalculateForMove(ctx, move.ID); err != nil {
			uc.log.Error().Err(err).Str("move_id", move.ID).Msg("recálculo de promedios falló")
		}
		if pair != nil {
			if err := uc.avgPrice.RecalculateForMove(ctx, pair.ID); err != nil {
				uc.log.Error().Err(err).Str("move_id", pair.ID).Msg("recálculo de promedios falló")
			}
		}
	}
	return move, nil
}

// findPair resuelve el traslado emparejado: la recepción que back-referencia
// a un envío, o el envío apuntado por la back-reference de una recepción.
func (uc *UseCase) findPair(move *entity.Move) (*entity.Move, error) {
	if move.IsSending() {
		return uc.moves.FindReceivingByCounterpart(move.ID)
	}
	if move.CounterpartMoveID != nil {
		return uc.moves.GetByID(*move.CounterpartMoveID)
	}
	return nil, nil
}

// SoftDelete borra en cascada: las líneas del traslado, y si es un envío,
// también su recepción emparejada con sus líneas. Cada paso de la cascada es
// independiente: un fallo se loguea y no impide los pasos restantes.
func (uc *UseCase) SoftDelete(ctx context.Context, moveID string) error {
	move, err := uc.moves.GetByID(moveID)
	if err != nil {
		return fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil {
		return domain.ErrNotFound
	}

	if err := uc.store.UnlinkAll(ctx, moveID); err != nil {
		uc.log.Warn().Err(err).Str("move_id", moveID).Msg("cascada: borrado de líneas falló")
	}

	if move.IsSending() {
		receiving, err := uc.moves.FindReceivingByCounterpart(moveID)
		if err != nil {
			uc.log.Warn().Err(err).Str("move_id", moveID).Msg("cascada: búsqueda de recepción falló")
		} else if receiving != nil {
			if err := uc.store.UnlinkAll(ctx, receiving.ID); err != nil {
				uc.log.Warn().Err(err).Str("move_id", receiving.ID).Msg("cascada: borrado de líneas de la recepción falló")
			}
			if err := uc.moves.SoftDelete(receiving.ID); err != nil {
				uc.log.Warn().Err(err).Str("move_id", receiving.ID).Msg("cascada: borrado de la recepción falló")
			}
		}
	}

	if err := uc.moves.SoftDelete(moveID); err != nil {
		return fmt.Errorf("borrar traslado: %w", err)
	}
	return nil
}
