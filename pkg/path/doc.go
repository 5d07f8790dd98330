// Package path provides typed path values for the object-graph store core:
// path components, relative paths, and absolute paths. All three are thin
// wrappers around strings with byte-exact comparisons and hashing, matching
// the behavior the rest of the core (journal, cache, tree entries) relies on.
// Both '/' and '\\' are accepted as separators when parsing; the canonical
// rendered form always uses '/'.
package path
