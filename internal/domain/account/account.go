package account

import (
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Account struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name,omitempty"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Roles        []string   `json:"roles"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// Response is the externally safe projection of an Account.
type Response struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (a Account) ToResponse() Response {
	roles := make([]string, len(a.Roles))
	copy(roles, a.Roles)

	return Response{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Roles: roles,
	}
}

var ErrNotFound = errors.New("account not found")
var ErrDuplicateEmail = errors.New("email already in use")
var ErrInvalidCredentials = errors.New("invalid credentials")

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"omitempty,min=2,max=80"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// with pointers if optional, it will be nil
type UpdateRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=80"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

// IsEmpty reports whether the patch carries no field at all.
func (r UpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Password == nil
}

// FieldPatch is the store-level shape of a partial update: the raw
// password has already been hashed by the time it reaches the adapter.
type FieldPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}
