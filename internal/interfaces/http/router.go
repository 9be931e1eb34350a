package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Traslados-api/internal/application/auth"
	appmoves "github.com/jhoicas/Traslados-api/internal/application/moves"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Traslados-api/internal/interfaces/ws"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovesUC   *appmoves.UseCase
	AuthUC    *auth.UseCase
	Locations repository.LocationRepository
	Users     repository.UserRepository
	PDFGen    *pdf.DeliveryNoteGenerator
	Hub       *ws.Hub
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	userHandler := NewUserHandler(deps.Users)
	protected.Get("/users/approvers", userHandler.ListApprovers)

	moves := protected.Group("/moves")
	moveHandler := NewMoveHandler(deps.MovesUC, deps.Locations, deps.PDFGen)

	moves.Post("/receiving", moveHandler.CreateReceiving)
	moves.Post("/sending", moveHandler.CreateSending)
	moves.Post("/inventory/:locationId", moveHandler.CreateOrUseInventory)

	moves.Get("/:id", moveHandler.GetByID)
	moves.Get("/:id/delivery-note", moveHandler.DeliveryNote)
	moves.Delete("/:id", moveHandler.Delete)

	moves.Post("/:id/items", moveHandler.AddLineItem)
	moves.Delete("/:id/items/:entryId", moveHandler.RemoveLineItem)

	moves.Put("/receiving/:id", moveHandler.UpdateReceiving)
	moves.Put("/sending/:id", moveHandler.UpdateSending)

	moves.Post("/:id/send-for-approval", moveHandler.SendForApproval)
	moves.Put("/:id/status", moveHandler.UpdateStatus)

	// Confirmaciones (solo managers; el caso de uso re-verifica contra la DB)
	moves.Post("/receiving/:id/confirm", RequireRole(entity.RoleManager), moveHandler.ConfirmReceiving)
	moves.Post("/sending/:id/confirm", RequireRole(entity.RoleManager), moveHandler.ConfirmSending)

	// WebSocket de notificaciones (token por query, validado en el upgrade)
	if deps.Hub != nil {
		app.Use("/ws", AuthMiddleware(deps.JWTSecret), func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				c.Locals("ws_role", GetRole(c))
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
			role, _ := conn.Locals("ws_role").(string)
			deps.Hub.Register <- ws.Registration{Conn: conn, Role: role}
			defer func() { deps.Hub.Unregister <- conn }()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
	}
}
