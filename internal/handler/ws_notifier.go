package handler

import (
	"log"

	"stride-sync-server/internal/domain"
	"stride-sync-server/internal/websocket"
)

// WebSocketNotifier bridges conflict lifecycle events onto the websocket
// manager. Sends are fire-and-forget; a full client buffer drops the client,
// not the resolution.
type WebSocketNotifier struct {
	manager *websocket.Manager
}

func NewWebSocketNotifier(manager *websocket.Manager) *WebSocketNotifier {
	return &WebSocketNotifier{manager: manager}
}

func (n *WebSocketNotifier) ConflictDetected(record *domain.ConflictRecord) {
	msg, err := websocket.NewMessage(websocket.TypeConflictDetected, &websocket.ConflictDetectedPayload{
		ConflictID:    record.ID,
		EntityType:    record.EntityType,
		EntityID:      record.EntityID,
		ConflictType:  record.Type,
		LocalVersion:  record.LocalVersion,
		ServerVersion: record.ServerVersion,
		DetectedAt:    record.DetectedAt,
	})
	if err != nil {
		log.Printf("failed to build conflict_detected message: %v", err)
		return
	}

	if err := n.manager.Broadcast(msg, ""); err != nil {
		log.Printf("failed to broadcast conflict_detected: %v", err)
	}
}

func (n *WebSocketNotifier) ConflictResolved(record *domain.ConflictRecord) {
	payload := &websocket.ConflictResolvedPayload{
		ConflictID:      record.ID,
		EntityType:      record.EntityType,
		EntityID:        record.EntityID,
		Strategy:        record.ResolutionStrategy,
		ResolvedVersion: record.ResolvedVersion,
	}
	if record.ResolvedAt != nil {
		payload.ResolvedAt = *record.ResolvedAt
	}

	msg, err := websocket.NewMessage(websocket.TypeConflictResolved, payload)
	if err != nil {
		log.Printf("failed to build conflict_resolved message: %v", err)
		return
	}

	if err := n.manager.Broadcast(msg, ""); err != nil {
		log.Printf("failed to broadcast conflict_resolved: %v", err)
	}
}
