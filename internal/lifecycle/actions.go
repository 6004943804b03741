package lifecycle

import "supplyChainTracking/models"

// Action names a transition capability flag on a segment.
type Action string

const (
	ActionAccept   Action = "canAccept"
	ActionTakeover Action = "canTakeover"
	ActionHandover Action = "canHandover"
	ActionDeliver  Action = "canDeliver"
)

// IsActionAllowed reports whether the given transition action is permitted
// for the segment. Missing permission metadata means "not restricted": when
// the actions object is absent, or the specific flag is unset, the answer is
// true. Older backend payloads have no actions field at all and must not
// lock users out. Default-deny here would be a behavior change; see
// DESIGN.md before tightening.
func IsActionAllowed(v models.SegmentView, action Action) bool {
	switch action {
	case ActionAccept, ActionTakeover, ActionHandover, ActionDeliver:
	default:
		return false
	}
	if v.Actions == nil {
		return true
	}
	var flag *bool
	switch action {
	case ActionAccept:
		flag = v.Actions.CanAccept
	case ActionTakeover:
		flag = v.Actions.CanTakeover
	case ActionHandover:
		flag = v.Actions.CanHandover
	case ActionDeliver:
		flag = v.Actions.CanDeliver
	}
	if flag == nil {
		return true
	}
	return *flag
}
