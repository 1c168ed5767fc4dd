package descriptor

import (
	"testing"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in   string
		want Version
		ok   bool
	}{
		{"1.0.0", Version{1, 0, 0}, true},
		{"0.9.12", Version{0, 9, 12}, true},
		{"10.20.30", Version{10, 20, 30}, true},
		{"1.0", Version{}, false},
		{"1.0.0.0", Version{}, false},
		{"1.0.x", Version{}, false},
		{"1..0", Version{}, false},
		{"-1.0.0", Version{}, false},
		{"+1.0.0", Version{}, false},
		{"", Version{}, false},
		{"v1.0.0", Version{}, false},
	}
	for _, tc := range cases {
		got, err := ParseVersion(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseVersion(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseVersion(%q) should fail", tc.in)
		}
	}
}

func TestVersionString(t *testing.T) {
	v := Version{Major: 2, Minor: 14, Patch: 3}
	if got := v.String(); got != "2.14.3" {
		t.Errorf("String() = %q", got)
	}
	back, err := ParseVersion(v.String())
	if err != nil || back != v {
		t.Errorf("round trip = %v, %v", back, err)
	}
}

func TestCheckVersionExact(t *testing.T) {
	lang := Version{Major: 1}
	compat, diags := CheckVersion(Version{Major: 1}, []int{1}, lang)
	if compat != CompatExact {
		t.Errorf("compat = %q, want %q", compat, CompatExact)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func TestCheckVersionDrift(t *testing.T) {
	lang := Version{Major: 1}
	compat, diags := CheckVersion(Version{Major: 1, Minor: 2}, []int{1}, lang)
	if compat != CompatDrift {
		t.Errorf("compat = %q, want %q", compat, CompatDrift)
	}
	if len(diags) != 1 || diags[0].Code != diag.CodeVersionDrift {
		t.Fatalf("diagnostics = %v, want one %s", diags, diag.CodeVersionDrift)
	}
	if diags[0].IsFatal() {
		t.Error("drift within a supported major must not be fatal")
	}
}

func TestCheckVersionUnsupportedMajor(t *testing.T) {
	lang := Version{Major: 1}
	_, diags := CheckVersion(Version{Major: 2}, []int{1}, lang)
	if len(diags) != 1 || diags[0].Code != diag.CodeVersionUnsupported {
		t.Fatalf("diagnostics = %v, want one %s", diags, diag.CodeVersionUnsupported)
	}
	if !diags[0].IsFatal() {
		t.Error("unsupported major must be fatal")
	}
	if diags[0].Path != "service.version" {
		t.Errorf("path = %q", diags[0].Path)
	}
}

func TestCheckVersionMultipleSupportedMajors(t *testing.T) {
	lang := Version{Major: 2}
	compat, diags := CheckVersion(Version{Major: 1}, []int{1, 2}, lang)
	if compat != CompatDrift {
		t.Errorf("compat = %q, want %q", compat, CompatDrift)
	}
	if diags.HasFatal() {
		t.Errorf("major 1 is declared supported: %v", diags)
	}
}
