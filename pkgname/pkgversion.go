package pkgname

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// preReleaseKind ranks the four recognized pre-release tags. Lower
// ranks sort before higher ones; a version with no pre-release tag
// at all sorts after every pre-release of the same base.
type preReleaseKind int

const (
	preAlpha preReleaseKind = iota
	preBeta
	prePre
	preRC
)

var preReleaseNames = map[string]preReleaseKind{
	"alpha": preAlpha,
	"beta":  preBeta,
	"pre":   prePre,
	"rc":    preRC,
}

var preReleaseSuffix = regexp.MustCompile(`(alpha|beta|pre|rc)([0-9]*)$`)
var revisionSuffix = regexp.MustCompile(`nb([0-9]+)$`)

// preRelease describes a trailing rc<N>/pre<N>/alpha<N>/beta<N> marker.
type preRelease struct {
	kind preReleaseKind
	num  int64
}

// component is one maximal run of digits or letters within the
// dotted/dashed version string, e.g. "3", "11", "4" in "3.11.4".
// Missing components when comparing unequal-length sequences are
// treated as the zero value of a numeric component.
type component struct {
	numeric bool
	num     int64
	str     string
}

// Pkgversion is a structured, comparable representation of a pkgsrc
// version string such as "3.11.4nb2" or "1.0rc1". All fields are
// comparable, so Pkgversion (and Pkgname) can be used as a map key.
type Pkgversion struct {
	body     string     // version with nb and pre-release suffixes removed; split into components by Compare
	pre      preRelease // valid only when hasPre is set
	hasPre   bool       // false if this is not a pre-release version
	revision int64      // the "nb<N>" package revision, 0 if absent
	raw      string     // original string, for round-tripping String()
}

// String returns the canonical serialization of the version, which is
// exactly the string it was parsed from.
func (v Pkgversion) String() string {
	return v.raw
}

// ParsePkgversion decomposes a version string into numeric/alphabetic
// component runs plus optional "nb<N>" revision and
// rc/pre/alpha/beta pre-release suffixes.
func ParsePkgversion(s string) (Pkgversion, error) {
	if s == "" {
		return Pkgversion{}, fmt.Errorf("pkgname: empty version string")
	}

	v := Pkgversion{raw: s}
	rest := s

	if m := revisionSuffix.FindStringSubmatchIndex(rest); m != nil {
		n, err := strconv.ParseInt(rest[m[2]:m[3]], 10, 64)
		if err != nil {
			return Pkgversion{}, fmt.Errorf("pkgname: bad nb suffix in %q: %w", s, err)
		}
		v.revision = n
		rest = rest[:m[0]]
	}

	if m := preReleaseSuffix.FindStringSubmatchIndex(rest); m != nil {
		kind := preReleaseNames[rest[m[2]:m[3]]]
		numStr := rest[m[4]:m[5]]
		var num int64
		if numStr != "" {
			n, err := strconv.ParseInt(numStr, 10, 64)
			if err != nil {
				return Pkgversion{}, fmt.Errorf("pkgname: bad pre-release suffix in %q: %w", s, err)
			}
			num = n
		}
		v.pre = preRelease{kind: kind, num: num}
		v.hasPre = true
		rest = rest[:m[0]]
	}

	v.body = rest
	return v, nil
}

func parseComponents(s string) []component {
	var comps []component
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case isDigit(c):
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			n, _ := strconv.ParseInt(s[i:j], 10, 64)
			comps = append(comps, component{numeric: true, num: n})
			i = j
		case isAlpha(c):
			j := i
			for j < len(s) && isAlpha(s[j]) {
				j++
			}
			comps = append(comps, component{str: s[i:j]})
			i = j
		default:
			// Separator such as '.', '_', '-': skip.
			i++
		}
	}
	return comps
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// Compare returns -1, 0, or 1 according to whether v sorts before,
// equal to, or after other.
//
// Ordering, most to least significant:
//  1. component-by-component comparison, numeric runs compared
//     numerically and alphabetic runs compared lexicographically;
//     a missing component is treated as the numeric value 0; a
//     numeric component sorts before an alphabetic one at the same
//     position.
//  2. pre-release marker: a version carrying no marker sorts after
//     any pre-release of an otherwise-equal base version; two
//     pre-release markers are compared by tag rank
//     (alpha < beta < pre < rc) and then by their trailing number.
//  3. the "nb<N>" package revision, compared numerically, last.
func (v Pkgversion) Compare(other Pkgversion) int {
	if c := compareComponents(parseComponents(v.body), parseComponents(other.body)); c != 0 {
		return c
	}

	switch {
	case !v.hasPre && !other.hasPre:
		// equal
	case !v.hasPre:
		return 1
	case !other.hasPre:
		return -1
	default:
		if v.pre.kind != other.pre.kind {
			if v.pre.kind < other.pre.kind {
				return -1
			}
			return 1
		}
		if v.pre.num != other.pre.num {
			if v.pre.num < other.pre.num {
				return -1
			}
			return 1
		}
	}

	if v.revision != other.revision {
		if v.revision < other.revision {
			return -1
		}
		return 1
	}
	return 0
}

func compareComponents(a, b []component) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca := zeroIfMissing(a, i)
		cb := zeroIfMissing(b, i)
		if c := compareComponent(ca, cb); c != 0 {
			return c
		}
	}
	return 0
}

func zeroIfMissing(c []component, i int) component {
	if i < len(c) {
		return c[i]
	}
	return component{numeric: true, num: 0}
}

func compareComponent(a, b component) int {
	if a.numeric != b.numeric {
		// Numeric sorts before alphabetic at the same position.
		if a.numeric {
			return -1
		}
		return 1
	}
	if a.numeric {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.str, b.str)
}
