package dto

// AuthRequest is the payload for registration and login.
type AuthRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries the issued auth token for API clients that do
// not use the cookie.
type TokenResponse struct {
	Token string `json:"token"`
}
