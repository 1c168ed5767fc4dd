package providers

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

// AttributeSchema lists the canonical attributes of entity types a provider
// knows about, keyed by entity type. Matching is case-insensitive on both
// levels; descriptor spellings are never rewritten.
type AttributeSchema map[string][]string

// DefaultFiwareSchemas covers the NGSI data models the platform ships with.
// Deployments with custom models supply their own schema file.
var DefaultFiwareSchemas = AttributeSchema{
	"AirQualityObserved": {
		"address", "airQualityIndex", "airQualityLevel", "CO", "CO2",
		"dateObserved", "location", "NO", "NO2", "NOx", "O3", "PM10", "PM25",
		"precipitation", "relativeHumidity", "reliability", "SO2", "source",
		"temperature", "windDirection", "windSpeed",
	},
	"WeatherObserved": {
		"address", "atmosphericPressure", "dateObserved", "dewPoint",
		"illuminance", "location", "precipitation", "pressureTendency",
		"relativeHumidity", "source", "temperature", "visibility",
		"weatherType", "windDirection", "windSpeed",
	},
	"NoiseLevelObserved": {
		"dateObserved", "dateObservedFrom", "dateObservedTo", "LAeq",
		"LAmax", "LAmin", "location", "sonometerClass",
	},
}

// LoadSchemaFile reads a YAML file of attribute schemas keyed by provider
// tag:
//
//	fiware:
//	  AirQualityObserved: [location, NO2, dateObserved]
func LoadSchemaFile(path string) (map[string]AttributeSchema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	var schemas map[string]AttributeSchema
	if err := yaml.Unmarshal(raw, &schemas); err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	return schemas, nil
}

// RegistryFromSchemas builds the built-in strategies with per-provider
// schema overrides. Providers absent from the map keep their defaults.
func RegistryFromSchemas(schemas map[string]AttributeSchema) *Registry {
	r := NewRegistry()
	if s, ok := schemas["fiware"]; ok {
		r.Register(NewFiwareWithSchemas(s))
	} else {
		r.Register(NewFiware())
	}
	if s, ok := schemas["dataskop"]; ok {
		r.Register(NewDataskopWithSchemas(s))
	} else {
		r.Register(NewDataskop())
	}
	if s, ok := schemas["fotec"]; ok {
		r.Register(NewFotecWithSchemas(s))
	} else {
		r.Register(NewFotec())
	}
	return r
}

// checkAttributes warns for every selected attribute the schema does not
// recognize. A query type without a schema is not judged at all.
func checkAttributes(schemas AttributeSchema, src *descriptor.DataSource, out *diag.List) {
	var attrs []string
	for typ, list := range schemas {
		if strings.EqualFold(typ, src.Query.Type) {
			attrs = list
			break
		}
	}
	if attrs == nil {
		return
	}
	for i, sel := range src.Query.Select {
		if _, known := descriptor.Canonical(attrs, sel); !known {
			d := diag.Warnf(diag.CodeUnknownAttribute,
				fmt.Sprintf("%s.query.select[%d]", src.Path, i),
				"attribute %q is not a known %s attribute", sel, src.Query.Type)
			d.Hint = "known attributes: " + strings.Join(attrs, ", ")
			out.Append(d)
		}
	}
}
