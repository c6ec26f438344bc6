// Package pkgname implements the package-name algebra: parsing and
// ordering of pkgbase/pkgversion/pkgname identifiers, pkgpath values,
// and the pkgpattern matcher sum type.
package pkgname

// Pkgbase is the name portion of a package identifier, the part
// before the final "-<version>". Equality and ordering are
// lexicographic.
type Pkgbase string

// Compare returns -1, 0, or 1 according to whether b sorts before,
// equal to, or after other.
func (b Pkgbase) Compare(other Pkgbase) int {
	switch {
	case b < other:
		return -1
	case b > other:
		return 1
	default:
		return 0
	}
}
