package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

const MilestoneToolName = "milestone_notification"

// MilestoneTool records achievement notifications in the tool log. Nothing
// is delivered outside the service.
type MilestoneTool struct {
	store domain.ToolLogStore
	now   func() time.Time
}

func NewMilestoneTool(store domain.ToolLogStore) *MilestoneTool {
	return &MilestoneTool{
		store: store,
		now:   time.Now,
	}
}

func (t *MilestoneTool) Name() string {
	return MilestoneToolName
}

// Call expects an input with this shape:
//
//	{
//	  "distinction": "Dean_List",
//	  "previous": 48.2,
//	  "updated": 50.3
//	}
//
// StudentID and SessionID come in ToolContext.
func (t *MilestoneTool) Call(
	ctx context.Context,
	tctx ToolContext,
	input map[string]any,
) (map[string]any, error) {
	if tctx.StudentID == "" {
		return nil, fmt.Errorf("%s: missing StudentID in ToolContext", MilestoneToolName)
	}

	start := t.now()
	distinction := getString(input, "distinction")
	if distinction == "" {
		return nil, fmt.Errorf("%s: %w: distinction is required", MilestoneToolName, domain.ErrInvalidInput)
	}

	message := fmt.Sprintf("Milestone reached: your %s probability is now %.1f%%",
		distinction, getFloat(input, "updated"))

	entry := &domain.ToolLog{
		ID:        uuid.NewString(),
		StudentID: domain.StudentID(tctx.StudentID),
		ToolName:  MilestoneToolName,
		Action:    "notify",
		Payload:   input,
		Response: map[string]any{
			"status":     "logged",
			"message":    message,
			"session_id": tctx.SessionID,
		},
		Success:         true,
		ExecutionTimeMs: t.now().Sub(start).Milliseconds(),
		CreatedAt:       start,
	}

	if err := t.store.AppendToolLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("%s: append failed: %w", MilestoneToolName, err)
	}

	observability.LoggerFromContext(ctx).Info("milestone notification logged",
		"student_id", tctx.StudentID,
		"distinction", distinction)

	return map[string]any{
		"status":  "logged",
		"log_id":  entry.ID,
		"message": message,
	}, nil
}

// --- internal helpers --- //

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
