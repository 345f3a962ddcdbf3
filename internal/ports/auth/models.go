package auth

import (
	"strings"

	"eps-citas/internal/navigation"
)

// User es el usuario de la sesión tal como lo devuelve /login.
type User struct {
	ID       int64           `json:"id"`
	Nombre   string          `json:"nombre"`
	Apellido string          `json:"apellido,omitempty"`
	Email    string          `json:"email"`
	Telefono string          `json:"telefono,omitempty"`
	Tipo     navigation.Role `json:"tipo"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.Nombre + " " + u.Apellido)
}

// Credentials: Tipo es solo una pista para que el backend elija la tabla de usuarios.
type Credentials struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Tipo     navigation.Role `json:"tipo"`
}

// LoginResult: Tipo es el rol que decide el backend.
type LoginResult struct {
	User  User
	Token string
	Tipo  navigation.Role
}

// Claims representa la información extraída del token.
type Claims struct {
	UserID int64
	Email  string
	Role   navigation.Role
}

// LoginError lleva el mensaje del backend tal cual para mostrarlo.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }
