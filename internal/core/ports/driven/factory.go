package driven

// AdapterFactory builds feed adapters by source name from the process
// configuration. The driver resolves adapters through it so that
// configuration errors surface per source instead of at startup.
type AdapterFactory interface {
	// Registered returns the names of the auto-registered adapters, sorted.
	Registered() []string

	// Create builds a registered adapter.
	// Returns domain.ErrNotFound for an unknown name and
	// domain.ErrMissingCredential when required configuration is absent.
	Create(name string) (FeedAdapter, error)

	// IncrementalSources returns the configured incremental source names, sorted.
	IncrementalSources() []string

	// CreateIncremental builds the incremental adapter for a configured source.
	// Returns domain.ErrNotFound if no such source is configured.
	CreateIncremental(name string) (IncrementalAdapter, error)
}
