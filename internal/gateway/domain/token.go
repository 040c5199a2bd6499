package domain

// Identity is the authenticated principal the gateway forwards downstream
// once a request clears the pipeline.
type Identity struct {
	Subject     string   `json:"subject"`
	TenantID    string   `json:"tenantId,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// TokenPair is what issuance and rotation return: a short-lived access token
// and a long-lived single-use refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"` // always "Bearer"
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime, seconds
}
