package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/parser"
)

// Version is the semantic triple a descriptor declares for the language it
// was written against.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// VersionFromDocument reads service.version off a parsed tree. The gate runs
// before full extraction and needs only this one value; a missing or
// malformed version returns ok=false, and the parser and extractor own those
// diagnostics.
func VersionFromDocument(doc *parser.Document) (Version, bool) {
	if doc == nil || doc.Root == nil || doc.Root.Kind != parser.KindMap {
		return Version{}, false
	}
	sec, ok := doc.Root.Lookup("service")
	if !ok || sec.Kind != parser.KindMap {
		return Version{}, false
	}
	ver, ok := sec.Lookup("version")
	if !ok {
		return Version{}, false
	}
	v, err := versionFromNode(ver)
	if err != nil {
		return Version{}, false
	}
	return v, true
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion parses a strict major.minor.patch triple. Components must be
// plain non-negative base-10 integers; anything else is rejected.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q must have the form major.minor.patch", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || strings.HasPrefix(p, "+") || strings.HasPrefix(p, "-") {
			return Version{}, fmt.Errorf("version component %q must be a non-negative integer", p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("version component %q must be a non-negative integer", p)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Compat is the resolved version compatibility of a compile.
type Compat string

const (
	// CompatExact means the descriptor version equals the language version.
	CompatExact Compat = "exact"
	// CompatDrift means the major is supported but minor or patch differ;
	// the compile proceeds forward-compatibly.
	CompatDrift Compat = "drift"
)

// CheckVersion gates a descriptor version against the supported major set
// and the compiler's language version. Major mismatch is fatal; minor or
// patch drift is a warning.
func CheckVersion(v Version, supportedMajors []int, language Version) (Compat, diag.List) {
	var out diag.List

	supported := false
	for _, m := range supportedMajors {
		if v.Major == m {
			supported = true
			break
		}
	}
	if !supported {
		d := diag.Errorf(diag.CodeVersionUnsupported, "service.version",
			"descriptor version %s has unsupported major %d (supported majors: %s)",
			v, v.Major, majorsString(supportedMajors))
		d.Hint = fmt.Sprintf("this compiler speaks language version %s", language)
		out.Append(d)
		return "", out
	}

	if v == language {
		return CompatExact, out
	}
	out.Append(diag.Warnf(diag.CodeVersionDrift, "service.version",
		"descriptor targets %s, compiler speaks %s; compiling forward-compatibly", v, language))
	return CompatDrift, out
}

func majorsString(majors []int) string {
	parts := make([]string, 0, len(majors))
	for _, m := range majors {
		parts = append(parts, strconv.Itoa(m))
	}
	return strings.Join(parts, ", ")
}
