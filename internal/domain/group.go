package domain

// GroupKind is the selection behaviour of a proxy group.
type GroupKind string

const (
	GroupURLTest GroupKind = "url-test"
	GroupSelect  GroupKind = "select"
)

// Group is a named, ordered list of proxy or group names.
type Group struct {
	Name    string
	Kind    GroupKind
	Members []string

	// Health check settings, only meaningful for url-test groups. Zero means
	// unset.
	TestURL  string
	Timeout  int
	Interval int
}
