package diff

// FileDiff represents all changes to a single file.
type FileDiff struct {
	// OldName is the path of the original file (with a/ prefix stripped).
	OldName string

	// NewName is the path of the new file (with b/ prefix stripped).
	NewName string

	// Hunks contains all hunks in this file diff.
	Hunks []*Hunk

	// IsBinary is true if this is a binary file.
	IsBinary bool

	// IsNew is true if this is a new file.
	IsNew bool

	// IsDeleted is true if this file is being deleted.
	IsDeleted bool

	// IsRenamed is true if this file was renamed.
	IsRenamed bool

	// ModeChanged is true when git reported an old and a new file mode.
	ModeChanged bool
}

// Path returns the canonical file path: the old name for deletions, the new
// name otherwise.
func (f *FileDiff) Path() string {
	if f.IsDeleted {
		return f.OldName
	}

	return f.NewName
}

// Paths returns every path the change touches, once each.
func (f *FileDiff) Paths() []string {
	if f.IsRenamed && f.OldName != f.NewName {
		return []string{f.OldName, f.NewName}
	}

	return []string{f.Path()}
}

// Stats returns total addition and deletion counts across all hunks.
func (f *FileDiff) Stats() (added, deleted int) {
	for _, hunk := range f.Hunks {
		a, d := hunk.Stats()
		added += a
		deleted += d
	}

	return added, deleted
}

// Patchable reports whether the file's hunks can be staged one at a time.
// Creations, deletions, renames, mode changes and binary changes only make
// sense as a whole.
func (f *FileDiff) Patchable() bool {
	switch {
	case f.IsBinary, f.IsNew, f.IsDeleted, f.IsRenamed, f.ModeChanged:
		return false
	}

	return len(f.Hunks) > 0
}
