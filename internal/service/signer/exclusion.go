package signer

// ExclusionSet holds file names that are never signed. Lookups use the exact base name.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from the provided names.
func NewExclusionSet(names ...string) ExclusionSet {
	set := make(ExclusionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// Contains reports whether name is excluded.
func (s ExclusionSet) Contains(name string) bool {
	_, ok := s[name]

	return ok
}
