// Package descriptor defines the typed entities of a service descriptor and
// projects the parsed document tree into them. Entities are immutable once
// extracted; a corrected descriptor means a fresh pipeline run.
package descriptor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ServiceMeta is the service header of a descriptor.
type ServiceMeta struct {
	Name    string
	Scope   string
	Version Version
}

// Query is the abstract query of a data source: the record kind requested
// from the provider plus an ordered field projection.
type Query struct {
	Type   string
	Select []string
}

// DataSource describes one provider-backed source of records.
type DataSource struct {
	Name     string
	Provider string
	Type     string
	URI      string
	Query    Query
	Path     string
}

// Visualization describes one rendering surface fed by a data source.
type Visualization struct {
	Name   string
	Type   string
	Source string
	Data   []string
	Extra  map[string]Value
	Roles  []string
	Path   string
}

// DeploymentEnv describes one provisioning target.
type DeploymentEnv struct {
	Name        string
	URI         string
	Port        int
	Type        string
	Credentials map[string]string
	Roles       []string
	Path        string
}

// Application is the application header: target type, layout and the
// declared role vocabulary.
type Application struct {
	Type   string
	Layout string
	Roles  []string
}

// Descriptor is the extracted entity set. Slices preserve declaration order;
// name indexes are built by the resolver.
type Descriptor struct {
	Service        ServiceMeta
	Sources        []DataSource
	Application    Application
	Visualizations []Visualization
	Envs           []DeploymentEnv
}

// ValueKind tags the scalar variant held by a Value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
)

// Value is one entry of an open extra mapping. The variant set is closed:
// string, number, or bool, never a nested container.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

func StringValue(s string) Value  { return Value{Kind: ValueString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }
func BoolValue(b bool) Value      { return Value{Kind: ValueBool, Bool: b} }

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Str)
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var bv bool
	if err := json.Unmarshal(b, &bv); err == nil {
		*v = BoolValue(bv)
		return nil
	}
	var nv float64
	if err := json.Unmarshal(b, &nv); err == nil {
		*v = NumberValue(nv)
		return nil
	}
	var sv string
	if err := json.Unmarshal(b, &sv); err == nil {
		*v = StringValue(sv)
		return nil
	}
	return fmt.Errorf("extra value must be a string, number, or bool: %s", string(b))
}

// Vocabulary tags as the language defines them. Matching is case-insensitive
// everywhere; stored entity fields keep the descriptor's literal spelling.
var (
	Scopes = []string{
		"Service", "Industry", "Manifacturing", "Education", "Healthcare",
		"SocialPrograms", "Government", "Energy", "Water", "Environment",
		"Transportation", "Communication", "PublicSafety", "UrbanPlanning",
		"Infrastructure",
	}

	SourceTypes = []string{
		"Sensor", "Actuator", "Device", "Application", "Person", "Vehicle",
		"Animal", "Robot", "Other",
	}

	VisTypes = []string{"Line", "Bar", "Pie", "Table", "Map", "Other"}

	AppTypes = []string{"Web", "Mobile", "Desktop", "IoT"}

	Layouts = []string{"SinglePage", "MultiPage", "Pwa", "MultiWindow"}

	DeploymentTypes = []string{
		"Docker", "DockerCompose", "Kubernetes", "Helm", "Swarm", "Mesos",
		"Nomad", "Ansible", "Terraform", "CloudFormation", "Serverless", "Other",
	}
)

// Canonical resolves s against a vocabulary, case-insensitively, and returns
// the canonical spelling.
func Canonical(vocab []string, s string) (string, bool) {
	for _, v := range vocab {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}
