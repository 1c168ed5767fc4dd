package diag

// Diagnostic codes, one per taxonomy kind. Codes are stable: tooling and
// downstream collaborators match on them, never on message text.
const (
	CodeParse              = "E_PARSE"
	CodeVersionUnsupported = "E_VERSION_UNSUPPORTED"
	CodeDuplicateKey       = "E_DUPLICATE_KEY"
	CodeKeyMismatch        = "E_KEY_MISMATCH"
	CodeDanglingReference  = "E_DANGLING_REF"
	CodeUndeclaredRole     = "E_ROLE_UNDECLARED"
	CodeUnknownProvider    = "E_PROVIDER_UNKNOWN"
	CodeUnknownVisType     = "E_VIS_TYPE_UNKNOWN"
	CodeUnknownAttribute   = "W_ATTR_UNKNOWN"
	CodeVersionDrift       = "W_VERSION_DRIFT"
)

// Codes is the canonical registry of diagnostic codes.
var Codes = []string{
	CodeParse,
	CodeVersionUnsupported,
	CodeDuplicateKey,
	CodeKeyMismatch,
	CodeDanglingReference,
	CodeUndeclaredRole,
	CodeUnknownProvider,
	CodeUnknownVisType,
	CodeUnknownAttribute,
	CodeVersionDrift,
}
