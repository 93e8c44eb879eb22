// Package validate checks the numeric claims of responses against the fact sheet.
package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/biasprobe/internal/groundtruth"
	"github.com/ppiankov/biasprobe/internal/model"
)

// floatSlack absorbs binary representation error, so 196.26 is within 0.01 of 196.25
const floatSlack = 1e-9

// FactIndex holds the comparable numbers of every pseudonym
type FactIndex struct {
	names  []string
	values map[string][]float64
	digest string
}

// NewFactIndex collects each entity's runs, strike rates, balls, wickets and
// overs (as balls), rounded to precision. Facts without a pseudonym are ignored.
func NewFactIndex(facts []model.PlayerFact, precision int) *FactIndex {
	idx := &FactIndex{values: make(map[string][]float64)}

	for _, f := range facts {
		name := strings.TrimSpace(f.Pseudonym)
		if name == "" {
			continue
		}
		if _, dup := idx.values[name]; !dup {
			idx.names = append(idx.names, name)
		}

		var vals []float64
		add := func(v *float64) {
			if v != nil {
				vals = append(vals, model.Round(*v, precision))
			}
		}
		add(f.Runs)
		add(f.BatStrikeRate)
		if f.Balls != nil {
			add(model.Float(float64(*f.Balls)))
		}
		add(f.Wickets)
		add(f.BowlStrikeRate)
		if balls, err := groundtruth.OversToBalls(f.OversOB); err == nil {
			add(model.Float(float64(balls)))
		}

		idx.values[name] = dedupe(append(idx.values[name], vals...))
	}

	sort.Strings(idx.names)
	idx.digest = idx.computeDigest()
	return idx
}

func dedupe(vals []float64) []float64 {
	seen := make(map[float64]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (x *FactIndex) computeDigest() string {
	h := sha256.New()
	for _, name := range x.names {
		vals := append([]float64(nil), x.values[name]...)
		sort.Float64s(vals)
		fmt.Fprintf(h, "%s\x00%v\n", name, vals)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Names returns the pseudonyms, sorted
func (x *FactIndex) Names() []string {
	return x.names
}

// Len returns the number of pseudonyms
func (x *FactIndex) Len() int {
	return len(x.names)
}

// Digest identifies the indexed facts; equal fact sheets give equal digests
func (x *FactIndex) Digest() string {
	return x.digest
}

// Values returns the comparable numbers of one pseudonym
func (x *FactIndex) Values(name string) []float64 {
	return x.values[name]
}

// Supports reports whether n lies within tolerance of any fact of name
func (x *FactIndex) Supports(name string, n, tolerance float64) bool {
	for _, v := range x.values[name] {
		if math.Abs(n-v) <= tolerance+floatSlack {
			return true
		}
	}
	return false
}
