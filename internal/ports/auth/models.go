package auth

import "context"

// Claims representa la identidad extraída del token. IsAdmin habilita
// las operaciones de slots y el trigger manual de recordatorios.
type Claims struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// AuthVerifier valida un bearer token y devuelve sus claims.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
