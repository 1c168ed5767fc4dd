package compiler

import "github.com/ssdl-lang/ssdlc/compiler/diag"

const (
	// Parse stage
	ErrCodeSourceRead = "PARSE_SOURCE_READ_ERROR"

	// IR stage
	ErrCodeIRConvert          = "IR_CONVERT_ERROR"
	ErrCodeIRVersionMigration = "IR_VERSION_MIGRATION_ERROR"
	ErrCodeIRABIValidate      = "IR_ABI_VALIDATE_ERROR"

	// Emit stage
	ErrCodeEmitterStep     = "EMITTER_STEP_ERROR"
	ErrCodeEmitterManifest = "EMITTER_MANIFEST_ERROR"
)

// StableErrorCodes is the canonical registry of compiler/CLI error codes:
// the pipeline stage codes plus every diagnostic code the stages report.
var StableErrorCodes = append([]string{
	ErrCodeSourceRead,
	ErrCodeIRConvert,
	ErrCodeIRVersionMigration,
	ErrCodeIRABIValidate,
	ErrCodeEmitterStep,
	ErrCodeEmitterManifest,
}, diag.Codes...)
