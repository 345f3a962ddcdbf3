package auth

import "context"

// Verifier verifica un token y devuelve claims o error.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Authenticator intercambia credenciales por token + usuario.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
}
