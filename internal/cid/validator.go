package cid

import "fmt"

// CompareKind discriminates the outcome of comparing two CIDs, mirroring
// the classification spec.md §4.7 applies when joining current vs. cached
// compilation units.
type CompareKind uint8

const (
	CompareEqual CompareKind = iota
	CompareInterfaceChanged
	CompareSemanticChanged
	CompareDependencyChanged
)

// CompareResult is the pure, structural outcome of comparing two CIDs of
// the same kind. It carries no timing information of its own; callers that
// need wall-clock timing (spec.md §4.5: "timing") attach it themselves,
// since CID comparison here is deliberately a pure function.
type CompareResult struct {
	Equal         bool
	Kind          CompareKind
	HashDiffBytes int // informational only; never used for correctness, per spec.md §4.5/§9
}

// CompareInterface reports whether two InterfaceCIDs are equal and, if not,
// how many bytes differ.
func CompareInterface(a, b CID) CompareResult {
	return compare(a, b, CompareInterfaceChanged)
}

// CompareSemantic reports whether two SemanticCIDs are equal.
func CompareSemantic(a, b CID) CompareResult {
	return compare(a, b, CompareSemanticChanged)
}

// CompareDependency reports whether two DependencyCIDs are equal.
func CompareDependency(a, b CID) CompareResult {
	return compare(a, b, CompareDependencyChanged)
}

func compare(a, b CID, changedKind CompareKind) CompareResult {
	if a == b {
		return CompareResult{Equal: true, Kind: CompareEqual}
	}
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return CompareResult{Equal: false, Kind: changedKind, HashDiffBytes: diff}
}

// UnitCIDs bundles the three CIDs of a compilation unit, for
// CompareCompilationUnit.
type UnitCIDs struct {
	Interface  CID
	Semantic   CID
	Dependency CID
}

// UnitCompareResult reports the outcome of comparing all three CIDs of a
// current unit against a cached one.
type UnitCompareResult struct {
	Interface  CompareResult
	Semantic   CompareResult
	Dependency CompareResult
}

// CompareCompilationUnit compares all three CIDs of cur against cached.
// This is a pure structural comparison; classification into
// interface_change/implementation_change/dependency_change/no_change
// (spec.md §4.7's ordered, first-mismatch rule) is the change-detection
// engine's job, not the validator's — the validator only reports facts.
func CompareCompilationUnit(cur, cached UnitCIDs) UnitCompareResult {
	return UnitCompareResult{
		Interface:  CompareInterface(cur.Interface, cached.Interface),
		Semantic:   CompareSemantic(cur.Semantic, cached.Semantic),
		Dependency: CompareDependency(cur.Dependency, cached.Dependency),
	}
}

// IntegrityIndicators are the heuristic signals verify_integrity inspects.
// These are diagnostic only: spec.md §4.5 and §7 are explicit that a
// failed integrity check never propagates as an error and never mutates
// anything ("fails soft").
type IntegrityIndicators struct {
	AllZeros        bool
	AllOnes         bool
	RepeatingPattern bool
	EntropyScore    float64 // 1/32 (all one byte value) .. 1 (32 distinct bytes)
}

// IntegrityResult is the outcome of VerifyIntegrity.
type IntegrityResult struct {
	Valid      bool
	Indicators IntegrityIndicators
}

// VerifyIntegrity applies cheap heuristics to flag a CID as suspicious. It
// never returns an error and never mutates c; a "suspicious" verdict is a
// diagnostic signal only, per spec.md §4.5/§7 ("Integrity" in the error
// taxonomy is explicitly non-propagating).
func VerifyIntegrity(c CID) IntegrityResult {
	ind := IntegrityIndicators{
		AllZeros:         isAllByte(c, 0x00),
		AllOnes:          isAllByte(c, 0xff),
		RepeatingPattern: hasRepeatingPattern(c),
		EntropyScore:     byteEntropyScore(c),
	}
	valid := !ind.AllZeros && !ind.AllOnes && !ind.RepeatingPattern && ind.EntropyScore > 0.5
	return IntegrityResult{Valid: valid, Indicators: ind}
}

func isAllByte(c CID, v byte) bool {
	for _, b := range c {
		if b != v {
			return false
		}
	}
	return true
}

// hasRepeatingPattern reports whether the digest is built from a short
// repeating cycle (period 1, 2, or 4 bytes) spanning the whole digest —
// the kind of degenerate output a broken or stubbed hasher would produce.
func hasRepeatingPattern(c CID) bool {
	for _, period := range []int{1, 2, 4} {
		if period >= len(c) {
			continue
		}
		repeats := true
		for i := period; i < len(c); i++ {
			if c[i] != c[i%period] {
				repeats = false
				break
			}
		}
		if repeats {
			return true
		}
	}
	return false
}

// byteEntropyScore is a cheap (not Shannon-exact) approximation: the
// fraction of distinct byte values present, which collapses toward 0 for
// degenerate digests and toward 1 for well-distributed ones.
func byteEntropyScore(c CID) float64 {
	var seen [256]bool
	distinct := 0
	for _, b := range c {
		if !seen[b] {
			seen[b] = true
			distinct++
		}
	}
	maxDistinct := len(c)
	if maxDistinct > 256 {
		maxDistinct = 256
	}
	return float64(distinct) / float64(maxDistinct)
}

// ImpactClass ranks how large a hash difference appears, for diagnostics
// only. spec.md §9 is explicit that this ladder is not a soundness signal:
// a one-bit source change can legitimately produce a "critical" diff.
type ImpactClass uint8

const (
	ImpactMinor ImpactClass = iota
	ImpactModerate
	ImpactMajor
	ImpactCritical
)

func (c ImpactClass) String() string {
	switch c {
	case ImpactMinor:
		return "minor"
	case ImpactModerate:
		return "moderate"
	case ImpactMajor:
		return "major"
	default:
		return "critical"
	}
}

func classifyImpact(diffBytes int) ImpactClass {
	switch {
	case diffBytes <= 4:
		return ImpactMinor
	case diffBytes <= 12:
		return ImpactModerate
	case diffBytes <= 24:
		return ImpactMajor
	default:
		return ImpactCritical
	}
}

// Diagnostics is a human-readable explanation plus recommendations for one
// comparison result, per spec.md §4.5.
type Diagnostics struct {
	Explanation     string
	Impact          ImpactClass
	Recommendations []string
}

// GenerateDiagnostics builds diagnostics for a single comparison result,
// keyed on its kind and hash-difference byte count.
func GenerateDiagnostics(r CompareResult) Diagnostics {
	if r.Equal {
		return Diagnostics{Explanation: "no change detected", Impact: ImpactMinor}
	}
	impact := classifyImpact(r.HashDiffBytes)
	var kindText string
	switch r.Kind {
	case CompareInterfaceChanged:
		kindText = "interface"
	case CompareSemanticChanged:
		kindText = "semantic"
	case CompareDependencyChanged:
		kindText = "dependency"
	}
	recs := []string{"recompile the affected unit"}
	if r.Kind == CompareInterfaceChanged {
		recs = append(recs, "recompile transitive interface dependents")
	}
	return Diagnostics{
		Explanation: fmt.Sprintf(
			"%s CID differs in %d/%d bytes (%s impact)",
			kindText, r.HashDiffBytes, Size, impact,
		),
		Impact:          impact,
		Recommendations: recs,
	}
}
