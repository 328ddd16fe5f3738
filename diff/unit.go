package diff

// Unit is one piece of a diff that can be staged on its own: a single hunk
// of a patchable file, or a whole file otherwise.
type Unit struct {
	File *FileDiff

	// Hunk is nil when the whole file is the unit. HunkIndex is its
	// position in File.Hunks.
	Hunk      *Hunk
	HunkIndex int
}

// Units splits the diff into stageable units in diff order.
func (d *ParsedDiff) Units() []Unit {
	var units []Unit
	for _, f := range d.files {
		if !f.Patchable() {
			units = append(units, Unit{File: f})
			continue
		}

		for i, h := range f.Hunks {
			units = append(units, Unit{File: f, Hunk: h, HunkIndex: i})
		}
	}

	return units
}

// Paths returns the paths the diff touches, in diff order.
func (d *ParsedDiff) Paths() []string {
	var paths []string
	for _, f := range d.files {
		paths = append(paths, f.Paths()...)
	}

	return paths
}
