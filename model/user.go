package model

// User 用户结构体 (用于登录认证)
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // 加密后的密码 (bcrypt)
}
