package dto

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type LoginOutput struct {
	TokenResponse
	CurrentStep string     `json:"current_step"`
	RedirectTo  string     `json:"redirect_to"`
	User        UserOutput `json:"user"`
}
