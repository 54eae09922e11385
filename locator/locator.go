// Package locator parses distribution locators into canonical identity.
// A locator is the URI a distribution archive was fetched from, e.g.
// http://www.cpan.org/authors/id/J/KE/DAGOLDEN/Sub-Uplevel-0.2800.tar.gz
package locator

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ReservedAuthor is the sentinel identity CPAN tooling assigns to local,
// non-distributed installs. Locators resolving to it never produce a report.
const ReservedAuthor = "LOCAL"

// Parse failures. All of them are per-event: callers skip the offending
// locator and keep going.
var (
	ErrUnsupportedScheme = errors.New("unsupported locator scheme")
	ErrAuthorNotFound    = errors.New("author resolution failed")
	ErrReservedAuthor    = errors.New("reserved author")
)

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"cpan":  true,
	"file":  true,
}

// Ident is the canonical identity derived from a locator.
// It is a plain value; Parse never mutates state across calls.
type Ident struct {
	Scheme  string
	Name    string // distribution name, e.g. "Sub-Uplevel"
	Version string // distribution version, e.g. "0.2800"
	Author  string // uppercase author handle, "" for file scheme
	File    string // locator suffix starting at the author directory
}

// Dist returns the canonical name-version form, e.g. "Sub-Uplevel-0.2800".
func (id Ident) Dist() string {
	if id.Version == "" {
		return id.Name
	}
	return id.Name + "-" + id.Version
}

// AuthorResolver maps a locator path to an author handle.
type AuthorResolver interface {
	Resolve(path string) (string, error)
}

// Parse derives an Ident from a raw locator string. A nil resolver falls
// back to DirResolver. Local file locators carry no author: Author stays
// empty and File is the whole locator.
func Parse(raw string, resolver AuthorResolver) (Ident, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Ident{}, fmt.Errorf("%w: %v", ErrUnsupportedScheme, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return Ident{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	name, version := SplitArchiveName(path.Base(u.Path))
	id := Ident{Scheme: scheme, Name: name, Version: version}

	if scheme == "file" {
		id.File = raw
		return id, nil
	}

	if resolver == nil {
		resolver = DirResolver{}
	}
	author, err := resolver.Resolve(u.Path)
	if err != nil {
		return Ident{}, err
	}
	if author == "" {
		return Ident{}, fmt.Errorf("%w: %s", ErrAuthorNotFound, raw)
	}
	if author == ReservedAuthor {
		return Ident{}, fmt.Errorf("%w: %s", ErrReservedAuthor, raw)
	}

	id.Author = author
	if i := strings.Index(raw, author); i >= 0 {
		id.File = raw[i:]
	} else {
		id.File = raw
	}
	return id, nil
}

var archiveExts = []string{".tar.gz", ".tar.bz2", ".tgz", ".tbz", ".zip", ".tar"}

var versionRe = regexp.MustCompile(`^v?[0-9][0-9A-Za-z._]*$`)

// SplitArchiveName splits an archive basename into distribution name and
// version using CPAN naming conventions (Name-Version.tar.gz and friends).
// A basename without a recognizable version yields version "".
func SplitArchiveName(base string) (name, version string) {
	for _, ext := range archiveExts {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	if i := strings.LastIndex(base, "-"); i > 0 {
		if v := base[i+1:]; versionRe.MatchString(v) {
			return base[:i], v
		}
	}
	return base, ""
}

var handleRe = regexp.MustCompile(`^[A-Z][A-Z0-9-]+$`)

// DirResolver resolves authors from the CPAN mirror directory layout:
// .../id/<X>/<XY>/<AUTHOR>/<archive>. It is the default resolver; tests
// and callers with an index-backed service substitute their own.
type DirResolver struct{}

// Resolve walks the path segments looking for the id/<X>/<XY>/<AUTHOR>
// pattern and returns the author handle.
func (DirResolver) Resolve(p string) (string, error) {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		if s != "id" || i+3 >= len(segs) {
			continue
		}
		if len(segs[i+1]) == 1 && len(segs[i+2]) == 2 && handleRe.MatchString(segs[i+3]) {
			return segs[i+3], nil
		}
	}
	return "", fmt.Errorf("%w: no author directory in %q", ErrAuthorNotFound, p)
}
