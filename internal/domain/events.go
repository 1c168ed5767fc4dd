package domain

import "time"

type DescriptorCompiled struct {
	EventID        string `json:"eventId"`
	Name           string `json:"name,omitempty"`
	DescriptorHash string `json:"descriptorHash"`
	ContentHash    string `json:"contentHash"`
	SchemaVersion  string `json:"schemaVersion"`
	Warnings       int    `json:"warnings"`
}

type DescriptorFailed struct {
	EventID        string `json:"eventId"`
	Name           string `json:"name,omitempty"`
	DescriptorHash string `json:"descriptorHash"`
	FailedStage    string `json:"failedStage"`
	Fatals         int    `json:"fatals"`
	Warnings       int    `json:"warnings"`
}

// DescriptorRecord is a named descriptor held by the registry together with
// its latest compile outcome. IR is canonical JSON and empty for failed
// compiles; Diagnostics is the JSON-encoded diagnostic list.
type DescriptorRecord struct {
	Name        string
	Source      []byte
	Hash        string
	State       string
	FailedStage string
	IR          []byte
	Diagnostics []byte
	UpdatedAt   time.Time
}
