package model

// Role is the upstream account role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// User is the upstream identity returned by the auth endpoints. SessionToken
// is only present on login, register and guest responses.
type User struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture,omitempty"`
	Role         Role   `json:"role"`
	IsGuest      bool   `json:"is_guest,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
}

// Guest reports whether the identity is an anonymous guest.
func (u User) Guest() bool {
	return u.IsGuest || u.Role == RoleGuest
}

// LoginRequest is the payload for email/password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,min=1,max=254"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// RegisterRequest is the payload for creating an upstream account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// DeviceSession is returned to a gateway client after bootstrap. Token is the
// gateway's own device token, not the upstream bearer.
type DeviceSession struct {
	Token    string `json:"token"`
	DeviceID string `json:"device_id"`
	User     User   `json:"user"`
}
