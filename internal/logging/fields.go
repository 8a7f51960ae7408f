package logging

// Standard attribute keys. Components must use these rather than ad-hoc
// strings so log lines stay filterable across the daemon.
const (
	FieldComponent  = "component"
	FieldEventType  = "event_type"
	FieldActionKind = "action_kind"
	FieldActionID   = "action_id"
	FieldJob        = "job"
	FieldBehavior   = "behavior"
	FieldCycle      = "cycle"
	FieldErrorHint  = "error_hint"
	FieldImpact     = "impact"
)
