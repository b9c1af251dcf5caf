package dto

// AccessDecision is computed per request and never stored.
type AccessDecision struct {
	HasAccess bool   `json:"has_access"`
	IsPremium bool   `json:"is_premium"`
	Reason    string `json:"reason,omitempty"`
}
