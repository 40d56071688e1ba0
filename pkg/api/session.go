package api

type GetSessionRequest struct{}

type GetSessionResponse struct {
	UID       string          `json:"uid"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Provider  string          `json:"provider"`
	HardAdmin bool            `json:"hardAdmin"`
	Entry     *AllowlistEntry `json:"entry,omitempty"`
}

type MintTestTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type MintTestTokenResponse struct {
	Token string `json:"token"`
}

type ListAllowlistRequest struct{}

type ListAllowlistResponse struct {
	Entries []AllowlistEntry `json:"entries"`
}

type UpsertAllowlistRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=viewer requester accountant admin"`

	// Active defaults to true when omitted.
	Active *bool  `json:"active,omitempty"`
	Label  string `json:"label,omitempty" validate:"max=200"`
}

type UpsertAllowlistResponse struct {
	Entry AllowlistEntry `json:"entry"`
}

type DeleteAllowlistRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type DeleteAllowlistResponse struct{}

type ListAuditRequest struct {
	Limit int `json:"limit,omitempty" validate:"min=0,max=500"`
}

type ListAuditResponse struct {
	Entries []AuditEntry `json:"entries"`
}
