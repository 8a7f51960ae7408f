package agent

// Kind is the closed set of action kinds the daemon transports. Dispatch is
// table-driven off this enum; strings arriving from configuration or the API
// must pass ParseKind before they become actions.
type Kind string

const (
	KindNoop            Kind = "noop"
	KindUserInteraction Kind = "user_interaction"
	KindStatusReport    Kind = "status_report"
	KindCodeAnalysis    Kind = "code_analysis"
	KindBenchmark       Kind = "benchmark"
	KindRecordThoughts  Kind = "record_thoughts"
	KindFileChange      Kind = "file_change"
	KindRepoChange      Kind = "repo_change"
)

var knownKinds = map[Kind]struct{}{
	KindNoop:            {},
	KindUserInteraction: {},
	KindStatusReport:    {},
	KindCodeAnalysis:    {},
	KindBenchmark:       {},
	KindRecordThoughts:  {},
	KindFileChange:      {},
	KindRepoChange:      {},
}

// ParseKind maps a raw string to a known action kind.
func ParseKind(value string) (Kind, bool) {
	kind := Kind(value)
	_, ok := knownKinds[kind]
	return kind, ok
}

func (k Kind) String() string {
	return string(k)
}
