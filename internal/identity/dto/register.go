package dto

type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterOutput struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	NextStep string `json:"next_step"`
}
