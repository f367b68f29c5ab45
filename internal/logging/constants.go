package logging

// Standardized field names for structured logging.
const (
	FieldSection   = "section"
	FieldFacet     = "facet"
	FieldValue     = "value"
	FieldQuery     = "query"
	FieldResource  = "resource"
	FieldRevision  = "revision"
	FieldCount     = "count"
	FieldTotal     = "total"
	FieldDuration  = "duration_ms"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldURL       = "url"
	FieldAttempt   = "attempt"
	FieldRequestID = "request_id"
	FieldFile      = "file_path"
	FieldAddr      = "addr"
)
