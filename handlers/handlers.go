package handlers

import (
	"sync"
	"time"

	"vidfetch-go/models"
	"vidfetch-go/services"
)

var (
	session      *services.Session
	orchestrator *services.Orchestrator
	board        = &taskBoard{items: make(map[models.FormatKey]models.TaskSnapshot)}
)

// Setup wires the shared session and orchestrator used by the handlers.
// Must be called once before registering routes.
func Setup() {
	session = services.NewSession(services.NewMetadataFetcher())
	orchestrator = services.NewOrchestrator()
	orchestrator.SetUpdateCallback(board.apply)
}

// taskBoard keeps the latest observable snapshot per identity key. The
// reset to Idle keeps the previous outcome fields so a settled task stays
// inspectable after its registry state has come back to rest.
type taskBoard struct {
	mu    sync.Mutex
	items map[models.FormatKey]models.TaskSnapshot
}

func (b *taskBoard) apply(u services.TaskUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := b.items[u.Key]
	snap.AttemptID = u.AttemptID
	snap.FormatID = u.Variant.FormatID
	snap.Type = string(u.Variant.Type)
	snap.Ext = u.Variant.Ext
	snap.State = u.State.String()
	snap.UpdatedAt = time.Now().UnixMilli()

	if u.State.IsSettled() || u.State.IsActive() {
		snap.Filename = u.Filename
		snap.Error = ""
		if u.Err != nil {
			snap.Error = u.Err.Error()
		}
	}

	b.items[u.Key] = snap
}

func (b *taskBoard) snapshots() []models.TaskSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.TaskSnapshot, 0, len(b.items))
	for _, snap := range b.items {
		out = append(out, snap)
	}
	return out
}
