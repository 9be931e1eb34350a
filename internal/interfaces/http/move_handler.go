package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	appmoves "github.com/jhoicas/Traslados-api/internal/application/moves"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/internal/infrastructure/pdf"
)

// MoveHandler maneja las peticiones HTTP para traslados (protegido).
type MoveHandler struct {
	uc        *appmoves.UseCase
	locations repository.LocationRepository
	pdfGen    *pdf.DeliveryNoteGenerator
}

// NewMoveHandler construye el handler.
func NewMoveHandler(uc *appmoves.UseCase, locations repository.LocationRepository, pdfGen *pdf.DeliveryNoteGenerator) *MoveHandler {
	return &MoveHandler{uc: uc, locations: locations, pdfGen: pdfGen}
}

// CreateReceiving crea una recepción.
func (h *MoveHandler) CreateReceiving(c *fiber.Ctx) error {
	var in dto.CreateMoveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	move, err := h.uc.CreateReceiving(c.Context(), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMoveResponse(move))
}

// CreateSending crea un envío.
func (h *MoveHandler) CreateSending(c *fiber.Ctx) error {
	var in dto.CreateMoveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	move, err := h.uc.CreateSending(c.Context(), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMoveResponse(move))
}

// CreateOrUseInventory devuelve el conteo abierto de la ubicación o crea uno.
func (h *MoveHandler) CreateOrUseInventory(c *fiber.Ctx) error {
	locationID := c.Params("locationId")
	move, err := h.uc.CreateOrUseInventoryMove(c.Context(), locationID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// GetByID obtiene un traslado.
func (h *MoveHandler) GetByID(c *fiber.Ctx) error {
	move, err := h.uc.GetMove(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	if move == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "traslado no encontrado"})
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// AddLineItem agrega una línea al traslado.
func (h *MoveHandler) AddLineItem(c *fiber.Ctx) error {
	var in dto.AddLineItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.uc.AddLineItem(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// RemoveLineItem quita una línea del traslado.
func (h *MoveHandler) RemoveLineItem(c *fiber.Ctx) error {
	if err := h.uc.RemoveLineItem(c.Context(), GetUserID(c), c.Params("id"), c.Params("entryId")); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateReceiving actualiza campos editables de una recepción.
func (h *MoveHandler) UpdateReceiving(c *fiber.Ctx) error {
	var in dto.UpdateMoveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	move, err := h.uc.UpdateReceivingByMoveID(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// UpdateSending actualiza campos editables de un envío.
func (h *MoveHandler) UpdateSending(c *fiber.Ctx) error {
	var in dto.UpdateMoveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	move, err := h.uc.UpdateSendingByMoveID(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// SendForApproval pasa el traslado a ON_APPROVAL. Idempotente: si el
// traslado no está IN_PROGRESS responde 204 sin cuerpo.
func (h *MoveHandler) SendForApproval(c *fiber.Ctx) error {
	move, err := h.uc.SendForApproval(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	if move == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// ConfirmReceiving finaliza una recepción (solo managers).
func (h *MoveHandler) ConfirmReceiving(c *fiber.Ctx) error {
	move, err := h.uc.ConfirmReceiving(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// ConfirmSending finaliza un envío (solo managers).
func (h *MoveHandler) ConfirmSending(c *fiber.Ctx) error {
	move, err := h.uc.ConfirmSending(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// UpdateStatus setter genérico de estado (con propagación al par).
func (h *MoveHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	move, err := h.uc.UpdateStatus(c.Context(), c.Params("id"), entity.MoveStatus(in.Status))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToMoveResponse(move))
}

// Delete borra el traslado en cascada (soft delete).
func (h *MoveHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.SoftDelete(c.Context(), c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeliveryNote genera el PDF de remisión del traslado.
func (h *MoveHandler) DeliveryNote(c *fiber.Ctx) error {
	move, err := h.uc.GetMove(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	if move == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "traslado no encontrado"})
	}
	lines, err := h.uc.Snapshot(c.Context(), move.ID)
	if err != nil {
		return mapDomainError(c, err)
	}
	var origin, destination *entity.Location
	if move.OriginLocationID != nil {
		origin, _ = h.locations.GetByID(*move.OriginLocationID)
	}
	if move.DestinationLocationID != nil {
		destination, _ = h.locations.GetByID(*move.DestinationLocationID)
	}
	doc, err := h.pdfGen.Generate(c.Context(), move, lines, origin, destination)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF", Message: err.Error()})
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="remision-`+move.HumanID+`.pdf"`)
	return c.Send(doc)
}
