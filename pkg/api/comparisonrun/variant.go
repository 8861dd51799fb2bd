package comparisonrun

// Variant names one of the three versions of a program under comparison.
type Variant string

const (
	VariantOriginal     = Variant("original")
	VariantObfuscated   = Variant("obfuscated")
	VariantDeobfuscated = Variant("deobfuscated")
)

func (v Variant) String() string {
	return string(v)
}

// AllVariants returns the variants in their canonical order.
func AllVariants() []Variant {
	return []Variant{VariantOriginal, VariantObfuscated, VariantDeobfuscated}
}

// PairName identifies one of the three fixed pairwise comparisons made for
// every case. All three names are present in every ComparisonReport,
// regardless of which variants actually produced a trace.
type PairName string

const (
	PairOriginalVsObfuscated     = PairName("original_vs_obfuscated")
	PairObfuscatedVsDeobfuscated = PairName("obfuscated_vs_deobfuscated")
	PairDeobfuscatedVsOriginal   = PairName("deobfuscated_vs_original")
)

func (p PairName) String() string {
	return string(p)
}

var pairVariants = map[PairName][2]Variant{
	PairOriginalVsObfuscated:     {VariantOriginal, VariantObfuscated},
	PairObfuscatedVsDeobfuscated: {VariantObfuscated, VariantDeobfuscated},
	PairDeobfuscatedVsOriginal:   {VariantDeobfuscated, VariantOriginal},
}

// AllPairs returns the pair names in their canonical (reporting) order.
func AllPairs() []PairName {
	return []PairName{
		PairOriginalVsObfuscated,
		PairObfuscatedVsDeobfuscated,
		PairDeobfuscatedVsOriginal,
	}
}

// Variants returns the ordered pair of variants compared under this name.
func (p PairName) Variants() (Variant, Variant) {
	v := pairVariants[p]
	return v[0], v[1]
}
