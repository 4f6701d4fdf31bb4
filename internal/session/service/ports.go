package service

import (
	"context"

	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/vendor"
	"f2f-cri/pkg/platform/audit"
)

// VendorClient is the document-check vendor. Implemented by vendor.Client.
type VendorClient interface {
	CreateSession(ctx context.Context, req vendor.SessionRequest) (*vendor.CreatedSession, error)
	GetConfiguration(ctx context.Context, sessionID string) (*vendor.Configuration, error)
	PutInstructions(ctx context.Context, sessionID string, instructions *vendor.Instructions) error
	GetInstructionsPDF(ctx context.Context, sessionID string) ([]byte, error)
	GetCompletedSession(ctx context.Context, sessionID string) (*vendor.CompletedSession, error)
	GetMediaContent(ctx context.Context, sessionID, mediaID string) (*evmodels.DocumentFields, error)
}

// AuditEmitter never fails the caller. Implemented by audit.Emitter.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// InstructionsArchive keeps a copy of the branch-visit letter.
type InstructionsArchive interface {
	Store(ctx context.Context, sessionID string, pdf []byte) error
}

// NotificationPublisher sends messages to the relying party's queue.
type NotificationPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}
