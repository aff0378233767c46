// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// Normalizer maps a key value to the form used for comparison.
type Normalizer func(string) string

// doiPrefixes are resolver and scheme prefixes stripped from DOI values,
// matched case-insensitively.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// NormalizerFor returns the normalizer for mode. NormalizeNone and the empty
// mode return nil, meaning values are compared as-is.
func NormalizerFor(mode types.KeyNormalization) (Normalizer, error) {
	switch mode {
	case "", types.NormalizeNone:
		return nil, nil
	case types.NormalizeDOI:
		return NormalizeDOI, nil
	default:
		return nil, fmt.Errorf("unknown key normalization %q: use %s or %s",
			mode, types.NormalizeNone, types.NormalizeDOI)
	}
}

// NormalizeDOI trims whitespace, removes a resolver prefix, and case-folds
// the remainder. DOIs are case-insensitive, so "10.1000/ABC" and
// "https://doi.org/10.1000/abc" compare equal.
func NormalizeDOI(v string) string {
	v = strings.TrimSpace(v)
	for _, p := range doiPrefixes {
		if len(v) >= len(p) && strings.EqualFold(v[:len(p)], p) {
			v = strings.TrimSpace(v[len(p):])
			break
		}
	}
	return cases.Fold().String(v)
}
