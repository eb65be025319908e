package pagescmd

// FeatureGates exposes the runtime toggles page command handlers read.
// Callers supply closures over the runtime config so handlers observe
// configuration changes without holding the config themselves.
type FeatureGates struct {
	// SchemaValidation runs the JSON schema check on save payloads.
	SchemaValidation func() bool
	// PruneOrphans is the default for commands that leave PruneOrphans unset.
	PruneOrphans func() bool
}

func (g FeatureGates) schemaValidation() bool {
	if g.SchemaValidation == nil {
		return false
	}
	return g.SchemaValidation()
}

func (g FeatureGates) pruneOrphans(explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	if g.PruneOrphans == nil {
		return false
	}
	return g.PruneOrphans()
}
