package interfaces

import "toronet-wallet/internal/models"

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	EmitEvent(event models.TransactionEvent) error
}
