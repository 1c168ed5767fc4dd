// Package diag defines the diagnostic model shared by all pipeline stages.
// Diagnostics are accumulated, never thrown: a stage appends everything it
// finds and the pipeline decides afterwards whether emission is still possible.
package diag

import "fmt"

// Severity classifies a diagnostic. Fatal diagnostics block IR emission,
// warnings ride along on a successful compile.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Diagnostic is a single finding tied to a descriptor path.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Path, d.Message)
}

// IsFatal reports whether the diagnostic blocks emission.
func (d Diagnostic) IsFatal() bool {
	return d.Severity == SeverityError
}

// Sink receives diagnostics as they are recorded.
type Sink func(Diagnostic)

// List is an ordered diagnostic collection. Order is descriptor declaration
// order, which keeps repeated runs diffable.
type List []Diagnostic

func (l *List) Append(ds ...Diagnostic) {
	*l = append(*l, ds...)
}

// Merge appends another list, preserving both orders.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// HasFatal reports whether any diagnostic is fatal.
func (l List) HasFatal() bool {
	for _, d := range l {
		if d.IsFatal() {
			return true
		}
	}
	return false
}

// Fatals returns the fatal diagnostics in order.
func (l List) Fatals() List {
	var out List
	for _, d := range l {
		if d.IsFatal() {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the non-fatal diagnostics in order.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if !d.IsFatal() {
			out = append(out, d)
		}
	}
	return out
}

// ByCode returns the diagnostics carrying the given code.
func (l List) ByCode(code string) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Errorf builds a fatal diagnostic at path.
func Errorf(code, path, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warnf builds a warning diagnostic at path.
func Warnf(code, path, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarn,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	}
}
