// Package tagexpr implements the PKGCHK_CONF grammar: a line per
// pkgpath, optionally followed by a comma-separated list of tags that
// gate whether -a pulls that pkgpath in.
//
// A line with no tags is always selected. A line with tags is
// selected only if the caller's included-tags set intersects them; a
// tag written as "!tag" instead excludes the line whenever the
// caller's excluded-tags set contains it, regardless of whether it
// would otherwise have matched.
//
// Grounded on original pkg_chk's config::apply_tags
// (original_source referenced from check.cxx's add_missing path),
// reusing this module's own strutil word iteration for line
// tokenizing the way the original uses string_algo's word_iterator.
package tagexpr

import (
	"bufio"
	"io"
	"strings"

	"pkgchk/pkgname"
	"pkgchk/strutil"
)

// Entry is one parsed line of a config file.
type Entry struct {
	Path        pkgname.Pkgpath
	IncludeTags []pkgname.Tag
	ExcludeTags []pkgname.Tag
}

// Config is a parsed PKGCHK_CONF file.
type Config struct {
	Entries []Entry
}

// Parse reads a config file's lines. Blank lines and lines whose
// first non-space byte is "#" are ignored.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strutil.All(line)
		if len(fields) == 0 {
			continue
		}

		path, err := pkgname.ParsePkgpath(fields[0])
		if err != nil {
			continue
		}

		entry := Entry{Path: path}
		if len(fields) > 1 {
			for _, tok := range strings.Split(fields[1], ",") {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				if strings.HasPrefix(tok, "!") {
					entry.ExcludeTags = append(entry.ExcludeTags, pkgname.Tag(tok[1:]))
				} else {
					entry.IncludeTags = append(entry.IncludeTags, pkgname.Tag(tok))
				}
			}
		}
		cfg.Entries = append(cfg.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyTags returns the pkgpaths selected by included/excluded: an
// entry with no IncludeTags always passes; one with IncludeTags
// passes only if it shares at least one tag with included; any entry
// whose "!"-negated ExcludeTags share a tag with excluded is dropped
// regardless. An entry's IncludeTags are not checked against excluded.
func (c *Config) ApplyTags(included, excluded pkgname.Tagset) []pkgname.Pkgpath {
	var out []pkgname.Pkgpath
	for _, e := range c.Entries {
		if anyTagIn(e.ExcludeTags, excluded) {
			continue
		}
		if len(e.IncludeTags) > 0 && !anyTagIn(e.IncludeTags, included) {
			continue
		}
		out = append(out, e.Path)
	}
	return out
}

func anyTagIn(tags []pkgname.Tag, set pkgname.Tagset) bool {
	for _, t := range tags {
		if set.Has(t) {
			return true
		}
	}
	return false
}
