package ir

import "fmt"

// ValidateABI enforces the stable document contract for schema version 1.
// The emitter calls it on the way out; anything it rejects is a compiler
// bug, not a descriptor problem.
func ValidateABI(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	if doc.SchemaVersion != SchemaV1 {
		return fmt.Errorf("schema_version=%q, expected %q", doc.SchemaVersion, SchemaV1)
	}
	switch doc.Compatibility {
	case CompatExact, CompatDrift:
	default:
		return fmt.Errorf("version_compatibility=%q, expected %q or %q", doc.Compatibility, CompatExact, CompatDrift)
	}
	if doc.Service.Name == "" {
		return fmt.Errorf("service.name is empty")
	}

	declared := make(map[string]bool, len(doc.Application.Roles))
	for _, role := range doc.Application.Roles {
		declared[role] = true
	}

	for key, ds := range doc.DataSources {
		if ds.Name != key {
			return fmt.Errorf("data_sources[%q].name=%q, key and name must agree", key, ds.Name)
		}
		if ds.Plan != nil && ds.Plan.Provider == "" {
			return fmt.Errorf("data_sources[%q].plan has no provider", key)
		}
	}

	for key, v := range doc.Visualizations {
		if v.Name != key {
			return fmt.Errorf("visualizations[%q].name=%q, key and name must agree", key, v.Name)
		}
		if _, ok := doc.DataSources[v.Source]; !ok {
			return fmt.Errorf("visualizations[%q].source=%q does not name a data source", key, v.Source)
		}
		for _, f := range v.Data {
			if f.Class != ClassProjected && f.Class != ClassDerived {
				return fmt.Errorf("visualizations[%q] field %q has class %q", key, f.Name, f.Class)
			}
		}
		for _, role := range v.Roles {
			if !declared[role] {
				return fmt.Errorf("visualizations[%q] references undeclared role %q", key, role)
			}
		}
	}

	for key, env := range doc.DeploymentEnvs {
		if env.Name != key {
			return fmt.Errorf("deployment_envs[%q].name=%q, key and name must agree", key, env.Name)
		}
		if env.Port < 0 || env.Port > 65535 {
			return fmt.Errorf("deployment_envs[%q].port=%d out of range", key, env.Port)
		}
		for _, role := range env.Roles {
			if !declared[role] {
				return fmt.Errorf("deployment_envs[%q] references undeclared role %q", key, role)
			}
		}
	}

	for _, w := range doc.Warnings {
		if w.IsFatal() {
			return fmt.Errorf("document carries fatal diagnostic %s", w.Code)
		}
	}

	return nil
}
