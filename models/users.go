package models

// User is the identity returned by the auth endpoints.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// LoginResponse is the body of a successful POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}
