package domain

// UserID is the authenticated subject extracted from JWT claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the IdP.
// Each user owns exactly one favorites document.
type UserID string
