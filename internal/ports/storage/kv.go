package storage

import (
	"context"
	"errors"
)

// Claves persistidas de la sesión (mismas que usa la app móvil).
const (
	KeyToken = "userToken"
	KeyUser  = "userData"
)

var ErrUnavailable = errors.New("storage unavailable")

// KV es el almacenamiento persistente del dispositivo.
// Get devuelve ok=false si la clave no existe.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
