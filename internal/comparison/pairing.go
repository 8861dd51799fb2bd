package comparison

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

const sourceExt = ".js"

// Case is the logical unit of comparison: one program identity tracked across
// its three variants. Paths holds the resolved source unit per variant;
// absent variants have no entry.
type Case struct {
	Key   comparisonrun.Key
	Paths map[comparisonrun.Variant]string
}

// DiscoverCases enumerates the original source units and resolves their
// obfuscated and deobfuscated counterparts by file stem. Cases are returned
// in lexicographic order of the original filename. A missing counterpart
// leaves its variant absent; it never fails discovery.
func DiscoverCases(originalDir, obfuscatedDir, deobfuscatedDir string) ([]Case, error) {
	originals, err := listSources(originalDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read original directory: %w", err)
	}

	cases := make([]Case, 0, len(originals))
	for _, orig := range originals {
		stem := stemOf(orig)
		c := Case{
			Key: comparisonrun.Key{Case: stem},
			Paths: map[comparisonrun.Variant]string{
				comparisonrun.VariantOriginal: filepath.Join(originalDir, orig),
			},
		}
		if p := matchVariant(obfuscatedDir, stem); p != "" {
			c.Paths[comparisonrun.VariantObfuscated] = p
		}
		if p := matchVariant(deobfuscatedDir, stem); p != "" {
			c.Paths[comparisonrun.VariantDeobfuscated] = p
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// matchVariant finds the counterpart for stem in dir: an exact stem match
// wins, otherwise the first file whose stem contains it as a substring.
// Candidates are examined in lexicographic filename order, so ties resolve
// deterministically. The substring fallback is a loose heuristic: files that
// merely share a prefix ("util" / "utils2") can pair, and callers should
// treat an unexpected pairing as a naming problem, not a tool bug.
func matchVariant(dir, stem string) string {
	if dir == "" {
		return ""
	}
	names, err := listSources(dir)
	if err != nil {
		return ""
	}

	for _, name := range names {
		if stemOf(name) == stem {
			return filepath.Join(dir, name)
		}
	}
	for _, name := range names {
		if strings.Contains(stemOf(name), stem) {
			return filepath.Join(dir, name)
		}
	}
	return ""
}

func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == sourceExt {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func stemOf(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}
