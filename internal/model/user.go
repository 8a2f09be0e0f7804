package model

// Role distinguishes the two kinds of accounts.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User is the authenticated identity returned at login.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsTeacher reports whether the user has the teacher role.
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	EmailID  string `json:"email_id" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	EmailID  string `json:"email_id" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"required,oneof=teacher student"`
}

// MessageResponse is the generic acknowledgement body of mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
