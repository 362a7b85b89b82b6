package domain

// Prompt names the step an interaction is waiting for.
type Prompt string

const (
	PromptLogin   Prompt = "login"
	PromptConsent Prompt = "consent"
)

// AuthorizationParams are the original authorization request parameters an
// interaction was started for.
type AuthorizationParams struct {
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	ResponseType string `json:"response_type"`
	Scope        string `json:"scope,omitempty"`
	State        string `json:"state,omitempty"`
	Nonce        string `json:"nonce,omitempty"`
}

// LoginResult is the outcome of a finished login step.
type LoginResult struct {
	AccountID string   `json:"accountId"`
	AMR       []string `json:"amr,omitempty"`
}

// ConsentResult is the outcome of a finished consent step.
type ConsentResult struct {
	GrantID string `json:"grantId"`
}

// InteractionResult holds whichever step finished.
type InteractionResult struct {
	Login   *LoginResult   `json:"login,omitempty"`
	Consent *ConsentResult `json:"consent,omitempty"`
}

// Interaction is a pending user-facing step of an authorization request.
// It is stored under its JTI with UID equal to the JTI so it can be looked up
// both ways.
type Interaction struct {
	JTI       string              `json:"jti"`
	UID       string              `json:"uid"`
	Prompt    Prompt              `json:"prompt"`
	Reasons   []string            `json:"reasons,omitempty"`
	Params    AuthorizationParams `json:"params"`
	SessionID string              `json:"session,omitempty"`
	AccountID string              `json:"accountId,omitempty"`
	GrantID   string              `json:"grantId,omitempty"`
	Result    *InteractionResult  `json:"result,omitempty"`
	ReturnTo  string              `json:"returnTo"`
	Binding   string              `json:"binding,omitempty"`
	Exp       int64               `json:"exp,omitempty"`
}

// Finished reports whether a result has been recorded.
func (i Interaction) Finished() bool {
	return i.Result != nil
}
