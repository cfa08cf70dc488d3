// Package naming maps game titles from the price table to the image files
// that depict them. The two sources are maintained independently, so both
// sides are reduced to a lower-cased, edition-free key before comparing.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/okian/gamestore/internal/domain/model"
)

// imageExt is appended to the sanitized title to form the lookup key.
const imageExt = ".jpg"

// DefaultSuffixes is the ordered list of edition phrases cut from titles.
// Order matters: longer phrases must come before the shorter phrases they
// contain ("Digital Deluxe Edition Upgrade" before "Upgrade").
var DefaultSuffixes = []string{ //nolint:gochecknoglobals // fixed table
	"Digital Deluxe Edition Upgrade",
	"Game of the Year Edition",
	"GOTY Edition",
	"Deluxe Edition",
	"Ultimate Edition",
	"Expansion Pack",
	"Bundle",
	"Special Edition",
	"Remastered",
	"Anniversary Edition",
	"Collector's Edition",
	"Legendary Edition",
	"Upgrade",
}

var markRemover = strings.NewReplacer("®", "", "™", "") //nolint:gochecknoglobals // stateless

// Resolver sanitizes titles and looks them up in an Index.
// The zero value is not usable; call NewResolver.
type Resolver struct {
	suffixes []string
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithSuffixes replaces the edition phrase list. Blank entries are dropped;
// an empty result keeps the defaults.
func WithSuffixes(suffixes []string) Option {
	return func(r *Resolver) {
		kept := make([]string, 0, len(suffixes))
		for _, s := range suffixes {
			if s = strings.TrimSpace(s); s != "" {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			r.suffixes = kept
		}
	}
}

// NewResolver creates a Resolver using DefaultSuffixes unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{suffixes: append([]string(nil), DefaultSuffixes...)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Suffixes returns a copy of the phrase list in scan order.
func (r *Resolver) Suffixes() []string {
	return append([]string(nil), r.suffixes...)
}

var defaultResolver = NewResolver() //nolint:gochecknoglobals // read-only

// Sanitize reduces a title with the default phrase list.
func Sanitize(name string) string { return defaultResolver.Sanitize(name) }

// Resolve looks a record up with the default phrase list.
func Resolve(record model.GameRecord, idx Index) (string, bool) {
	return defaultResolver.Resolve(record, idx)
}

// Sanitize strips trademark glyphs, the first listed edition phrase and
// everything after it, colons, and redundant whitespace. The pass is
// repeated until the result stops changing, so Sanitize(Sanitize(x)) ==
// Sanitize(x) for every x.
func (r *Resolver) Sanitize(name string) string {
	cur := r.sanitizeOnce(name)
	for {
		next := r.sanitizeOnce(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
}

func (r *Resolver) sanitizeOnce(name string) string {
	s := markRemover.Replace(name)

	// First phrase in list order wins, not first occurrence in s.
	for _, suffix := range r.suffixes {
		if i := indexFold(s, suffix); i >= 0 {
			s = strings.TrimSpace(s[:i])
			break
		}
	}

	s = strings.ReplaceAll(s, ":", "")
	return strings.Join(strings.Fields(s), " ")
}

// Key returns the index key a title resolves through.
func (r *Resolver) Key(name string) string {
	return strings.ToLower(r.Sanitize(name) + imageExt)
}

// Resolve returns the original-cased asset name depicting record, if any.
// A miss is a normal outcome; callers drop unresolved records.
func (r *Resolver) Resolve(record model.GameRecord, idx Index) (string, bool) {
	return r.ResolveName(record.Name, idx)
}

// ResolveName is Resolve for a bare title.
func (r *Resolver) ResolveName(name string, idx Index) (string, bool) {
	asset, ok := idx[r.Key(name)]
	return asset, ok
}

// indexFold is a case-insensitive strings.Index that returns a byte offset
// into s itself, so the caller can slice the original text.
func indexFold(s, substr string) int {
	if substr == "" {
		return 0
	}
	for i := range s {
		if hasPrefixFold(s[i:], substr) {
			return i
		}
	}
	return -1
}

func hasPrefixFold(s, prefix string) bool {
	for prefix != "" {
		if s == "" {
			return false
		}
		a, na := utf8.DecodeRuneInString(s)
		b, nb := utf8.DecodeRuneInString(prefix)
		if a != b && unicode.ToLower(a) != unicode.ToLower(b) {
			return false
		}
		s, prefix = s[na:], prefix[nb:]
	}
	return true
}
