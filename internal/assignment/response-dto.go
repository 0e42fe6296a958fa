package assignment

import (
	"tablebook/internal/floorplan"

	"github.com/google/uuid"
)

// Modes of an assign-table call.
const (
	ModeDryRun = "dry_run"
	ModeCommit = "commit"
)

type AssignTableResponse struct {
	Mode         string          `json:"mode"`
	Kind         Kind            `json:"kind"`
	TableID      *uuid.UUID      `json:"table_id,omitempty"`
	TableGroupID *uuid.UUID      `json:"table_group_id,omitempty"`
	Unit         *floorplan.Unit `json:"unit,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Attempts     int             `json:"attempts,omitempty"`
}

func newAssignTableResponse(mode string, o Outcome) *AssignTableResponse {
	return &AssignTableResponse{
		Mode:         mode,
		Kind:         o.Kind,
		TableID:      o.TableID(),
		TableGroupID: o.TableGroupID(),
		Unit:         o.Unit,
		Reason:       o.Reason,
		Attempts:     o.Attempts,
	}
}
