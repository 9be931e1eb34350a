package ws

import (
	"context"
	"encoding/json"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// Notification payload que recibe la app.
type Notification struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	DeepLink string `json:"deep_link"`
}

// ManagerNotifier empuja notificaciones a los managers conectados vía el hub.
type ManagerNotifier struct {
	hub *Hub
}

// NewManagerNotifier construye el notificador sobre un hub en ejecución.
func NewManagerNotifier(hub *Hub) *ManagerNotifier {
	return &ManagerNotifier{hub: hub}
}

// NotifyManagers difunde la notificación a las conexiones con rol manager.
func (n *ManagerNotifier) NotifyManagers(_ context.Context, title, body, deepLink string) error {
	payload, err := json.Marshal(Notification{Title: title, Body: body, DeepLink: deepLink})
	if err != nil {
		return err
	}
	n.hub.BroadcastToRole(entity.RoleManager, payload)
	return nil
}
