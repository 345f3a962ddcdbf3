package records

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
)

var ErrNotFound = errors.New("record not found")

// Record es un documento JSON plano de una colección ("citas", "medicos", ...).
// El campo "id" lo asigna el repositorio.
type Record map[string]any

// Repository guarda documentos por colección con ids enteros incrementales.
type Repository interface {
	Create(ctx context.Context, collection string, rec Record) (Record, error)
	// Update mezcla los campos de patch sobre el documento existente.
	Update(ctx context.Context, collection string, id int64, patch Record) (Record, error)
	Get(ctx context.Context, collection string, id int64) (Record, error)
	// List devuelve la colección ordenada por id asc.
	List(ctx context.Context, collection string) ([]Record, error)
	Delete(ctx context.Context, collection string, id int64) error
}

// Normalize hace un roundtrip JSON (copia profunda + tipos homogéneos: números float64).
func Normalize(rec Record) (Record, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	out := Record{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Int lee un campo numérico (float64, int, int64, json.Number o string).
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// String lee un campo string ("" si no existe o no es string).
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// ID devuelve el id del documento.
func (r Record) ID() int64 {
	id, _ := r.Int("id")
	return id
}
