// Package chatstate holds per-session conversation state: confirmed filter
// locks and outstanding disambiguation questions. All state carries the
// session TTL; an idle session simply evaporates and the next message starts
// from a fresh context.
package chatstate

import (
	"context"

	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

// Store is the session state backend. GetContext never fails on a missing
// session; it returns a fresh empty context, which is exactly the post-expiry
// behavior the conversation flow wants. GetPending returns nil when no pick
// is outstanding.
type Store interface {
	GetContext(ctx context.Context, sessionID string) (*models.ChatContext, error)
	SetContext(ctx context.Context, sessionID string, chatCtx *models.ChatContext) error
	GetPending(ctx context.Context, sessionID string) (*models.PendingPick, error)
	SetPending(ctx context.Context, sessionID string, pick *models.PendingPick) error
	ClearPending(ctx context.Context, sessionID string) error
}

const (
	contextKeyPrefix = "chatctx:"
	pendingKeyPrefix = "chatpick:"
)
