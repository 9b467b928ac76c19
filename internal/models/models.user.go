// FilePath: internal/models/models.user.go
package models

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
	RoleSystem   = "system"
)

// User is a dashboard account. Untagged fields are open to every role;
// readxs/writexs restrict the rest.
type User struct {
	ID           string  `json:"id" db:"id" msgpack:"id" writexs:"system"`
	Email        string  `json:"email" db:"email" msgpack:"email" writexs:"system,admin"`
	Name         string  `json:"name" db:"name" msgpack:"name"`
	PasswordHash string  `json:"-" db:"password_hash" msgpack:"-" readxs:"system" writexs:"system"`
	ResetToken   *string `json:"-" db:"reset_token" msgpack:"-" readxs:"system" writexs:"system"`
	ResetExpires *int64  `json:"-" db:"reset_expires" msgpack:"-" readxs:"system" writexs:"system"`
	Role         string  `json:"role" db:"role" msgpack:"role" writexs:"system,admin"`
	Timezone     string  `json:"timezone" db:"timezone" msgpack:"timezone"`
	Language     string  `json:"language" db:"language" msgpack:"language"`
	Country      string  `json:"country" db:"country" msgpack:"country"`
	CreatedAt    int64   `json:"created_at" db:"created_at" msgpack:"created_at" writexs:"system"`
	UpdatedAt    int64   `json:"updated_at" db:"updated_at" msgpack:"updated_at" writexs:"system"`
}

// UserPreferences is a profile PATCH body. Email and Role are accepted but
// only admins may change them.
type UserPreferences struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Timezone *string `json:"timezone"`
	Language *string `json:"language"`
	Country  *string `json:"country"`
}

// AuthResult is returned on register and login
type AuthResult struct {
	Token string `json:"token" msgpack:"token"`
	User  *User  `json:"user" msgpack:"user"`
}
