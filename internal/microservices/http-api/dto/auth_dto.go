package dto

// Data Transfer Objects for the signup / token exchange flow

// SignupRequest: payload for requesting a confirmation code
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=150,username,not_me"`
	Email    string `json:"email" binding:"required,max=254,email"`
}

// SignupResponse echoes the accepted pair back
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code
type TokenRequest struct {
	Username         string `json:"username" binding:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" binding:"required,max=64"`
}

// TokenResponse carries the issued access token
type TokenResponse struct {
	Token string `json:"token"`
}
