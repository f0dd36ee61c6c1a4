package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// TransitionReason explains which rule authorized a transition.
type TransitionReason string

const (
	ReasonPositiveIntent TransitionReason = "positive_intent"
	ReasonOpenBurst      TransitionReason = "open_burst"
	ReasonScoreHighWater TransitionReason = "score_high_water"
	ReasonManualOverride TransitionReason = "manual_override"
	ReasonReconciliation TransitionReason = "reconciliation"
)

// TransitionDecision is the value returned by the decision engine. It never
// mutates state itself; the executor commits it. AuthorizingVersion pins the
// aggregate snapshot the decision was derived from, which doubles as the
// idempotency key for execution.
type TransitionDecision struct {
	LeadID             uuid.UUID        `json:"leadId"`
	From               Platform         `json:"from"`
	Target             Platform         `json:"target"`
	Reason             TransitionReason `json:"reason"`
	TriggerEventType   EventType        `json:"triggerEventType"`
	Score              float64          `json:"score"`
	ScoreVersion       string           `json:"scoreVersion"` // scoring model that produced Score
	Level              Level            `json:"level"`
	AuthorizingVersion int64            `json:"authorizingVersion"`
	ManualOverride     bool             `json:"manualOverride"`
	RequestedBy        *uuid.UUID       `json:"requestedBy,omitempty"`
}

// Key returns the stable decision identity used for idempotent execution
// and command outbox dedup.
func (d TransitionDecision) Key() string {
	return fmt.Sprintf("%s:%s:%d", d.LeadID, d.Target, d.AuthorizingVersion)
}

// CommandType names an outbound directive for the platform-adapter layer.
// The engine records and emits these; it never calls a vendor API itself.
type CommandType string

const (
	CommandEnrollInCRM        CommandType = "EnrollInCRM"
	CommandRemoveFromOutreach CommandType = "RemoveFromOutreach"
	CommandMarkHybrid         CommandType = "MarkHybrid"
	CommandEnrollInOutreach   CommandType = "EnrollInOutreach"
)

// Command is one outbound directive produced by a committed transition.
type Command struct {
	Type   CommandType `json:"type"`
	LeadID uuid.UUID   `json:"leadId"`
}

// CommandsFor maps a committed transition to the directives the adapter
// layer must execute. Moving to crm from an outreach-managed platform also
// removes the lead from the outreach sequence.
func CommandsFor(d TransitionDecision) []Command {
	switch d.Target {
	case PlatformCRM:
		cmds := []Command{{Type: CommandEnrollInCRM, LeadID: d.LeadID}}
		if d.From == PlatformOutreach || d.From == PlatformHybrid {
			cmds = append(cmds, Command{Type: CommandRemoveFromOutreach, LeadID: d.LeadID})
		}
		return cmds
	case PlatformHybrid:
		return []Command{{Type: CommandMarkHybrid, LeadID: d.LeadID}}
	case PlatformOutreach:
		return []Command{{Type: CommandEnrollInOutreach, LeadID: d.LeadID}}
	default:
		return nil
	}
}
