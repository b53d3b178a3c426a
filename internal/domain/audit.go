package domain

// AuditKind classifies an audit entry.
type AuditKind string

const (
	// AuditImputed records a missing raw value replaced during normalization.
	AuditImputed AuditKind = "imputed"
	// AuditDegenerate records an indicator whose cohort values were all equal.
	AuditDegenerate AuditKind = "degenerate"
	// AuditExcluded records a city dropped because no signal resolved.
	AuditExcluded AuditKind = "excluded"
	// AuditLookupFailed records a failed per-city lookup converted to missing.
	AuditLookupFailed AuditKind = "lookup_failed"
)

// AuditEntry is one machine-readable record of a data-quality intervention.
type AuditEntry struct {
	Kind      AuditKind `json:"kind"`
	City      string    `json:"city,omitempty"`
	Indicator string    `json:"indicator,omitempty"`
	Signal    string    `json:"signal,omitempty"`
	Value     *float64  `json:"value,omitempty"`
	Reason    string    `json:"reason"`
}
