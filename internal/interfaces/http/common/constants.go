package common

const (
	// MaxSubmitRequestBody limits JSON request bodies for public submission endpoints.
	MaxSubmitRequestBody = 1 << 20
	// MaxAdminRequestBody limits JSON request bodies for admin endpoints.
	MaxAdminRequestBody = 1 << 20
	// DefaultAuditListLimit is the page size for audit log listing.
	DefaultAuditListLimit = 50
	// MaxQuestionCount limits questions per survey to keep payloads sane.
	MaxQuestionCount = 50
)
