// Package anonymize replaces raw entity names with deterministic pseudonyms.
package anonymize

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/table"
)

// ErrMissingIdentityColumn matches any *MissingIdentityColumnError
var ErrMissingIdentityColumn = errors.New("missing identity column")

// MissingIdentityColumnError reports a source table without a resolvable name column
type MissingIdentityColumnError struct {
	Table      string
	Candidates []string
	Available  []string
}

func (e *MissingIdentityColumnError) Error() string {
	return fmt.Sprintf("table %q: could not find a name column; looked for any of [%s]; available columns: [%s]",
		e.Table, strings.Join(e.Candidates, ", "), strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrMissingIdentityColumn) match
func (e *MissingIdentityColumnError) Is(target error) bool {
	return target == ErrMissingIdentityColumn
}

// NewMissingIdentityColumnError builds the error for t, listing the resolver's candidates when it exposes them
func NewMissingIdentityColumnError(t *table.Table, r table.Resolver, f table.Field) *MissingIdentityColumnError {
	e := &MissingIdentityColumnError{
		Table:     t.Name,
		Available: append([]string(nil), t.Header...),
	}
	if c, ok := r.(interface{ Candidates(table.Field) []string }); ok {
		e.Candidates = c.Candidates(f)
	}
	return e
}

// Letters encodes a 1-based rank in base-26 letters: 1->A, 26->Z, 27->AA, 28->AB
func Letters(n int) string {
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('A'+n%26))
		n /= 26
	}
	slices.Reverse(buf)
	return string(buf)
}

// Mapping is a bijection from raw names to pseudonyms
type Mapping struct {
	forward map[string]string
	entries []model.Identity // rank order
}

// BuildMapping assigns pseudonyms to the union of non-null names across columns.
// Names are ranked lexicographically, or by SHA-256(salt, name) when salt is set.
func BuildMapping(prefix, salt string, columns ...[]string) *Mapping {
	seen := make(map[string]struct{})
	var names []string
	for _, col := range columns {
		for _, name := range col {
			if table.IsNull(name) {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sortNames(names, salt)

	m := &Mapping{
		forward: make(map[string]string, len(names)),
		entries: make([]model.Identity, len(names)),
	}
	for i, name := range names {
		pseudonym := prefix + " " + Letters(i+1)
		m.forward[name] = pseudonym
		m.entries[i] = model.Identity{RawName: name, Pseudonym: pseudonym}
	}
	return m
}

func sortNames(names []string, salt string) {
	if salt == "" {
		sort.Strings(names)
		return
	}
	keys := make(map[string][sha256.Size]byte, len(names))
	for _, n := range names {
		keys[n] = sha256.Sum256([]byte(salt + "\x00" + n))
	}
	sort.Slice(names, func(i, j int) bool {
		ki, kj := keys[names[i]], keys[names[j]]
		if c := slices.Compare(ki[:], kj[:]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})
}

// Pseudonym returns the pseudonym of a raw name
func (m *Mapping) Pseudonym(raw string) (string, bool) {
	p, ok := m.forward[raw]
	return p, ok
}

// Len returns the number of mapped names
func (m *Mapping) Len() int {
	return len(m.entries)
}

// Table renders the mapping as a two-column table for local audit
func (m *Mapping) Table() *table.Table {
	t := table.New("identity_mapping", []string{"raw_name", "pseudonym"})
	for _, e := range m.entries {
		t.Append(e.RawName, e.Pseudonym)
	}
	return t
}

// Anonymizer applies one mapping across all source tables
type Anonymizer struct {
	resolver table.Resolver
	prefix   string
	salt     string
}

// New creates an anonymizer from the anonymize config section
func New(resolver table.Resolver, cfg model.AnonymizeConfig) *Anonymizer {
	if resolver == nil {
		resolver = table.IdentityResolver()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "Entity"
	}
	return &Anonymizer{
		resolver: resolver,
		prefix:   prefix,
		salt:     cfg.Salt,
	}
}

// Anonymize returns one anonymized copy per table plus the shared mapping.
// Every table must have a name column; blank names stay blank.
func (a *Anonymizer) Anonymize(tables ...*table.Table) ([]*table.Table, *Mapping, error) {
	cols := make([]table.Column, len(tables))
	names := make([][]string, len(tables))
	for i, t := range tables {
		col, ok := a.resolver.Resolve(t, table.FieldName)
		if !ok {
			return nil, nil, NewMissingIdentityColumnError(t, a.resolver, table.FieldName)
		}
		cols[i] = col
		names[i] = make([]string, t.Len())
		for r := range t.Rows {
			names[i][r] = t.Cell(r, col)
		}
	}

	mapping := BuildMapping(a.prefix, a.salt, names...)

	out := make([]*table.Table, len(tables))
	for i, t := range tables {
		anon := t.Clone()
		for _, row := range anon.Rows {
			if cols[i].Index >= len(row) {
				continue
			}
			p, ok := mapping.Pseudonym(row[cols[i].Index])
			if !ok {
				p = ""
			}
			row[cols[i].Index] = p
		}
		out[i] = anon
	}
	return out, mapping, nil
}
