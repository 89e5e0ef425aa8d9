package dto

type VerifyEmailInput struct {
	Email string `json:"email"`
	Code  string `json:"verification_code"`
}

type VerifyEmailOutput struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	CurrentStep string `json:"current_step"`
	NextStep    string `json:"next_step"`
}

type ResendCodeInput struct {
	Email string `json:"email"`
}
