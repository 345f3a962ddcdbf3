package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"eps-citas/internal/ports/records"

	"github.com/go-chi/chi/v5"
)

const maxBody = 1 << 20

var errBadBody = errors.New("invalid json body")

// envelope es el {success, data, message} que espera la app.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: msg})
}

// okNull responde data:null explícito (p.ej. sin próxima cita).
func okNull(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": nil, "message": msg})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return errBadBody
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errBadBody
	}
	return nil
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// convert pasa un valor a otro por JSON (record <-> struct tipado).
func convert(src, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func toRecord(v any) (records.Record, error) {
	out := records.Record{}
	if err := convert(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// public quita los campos que nunca salen del backend.
func public(rec records.Record) records.Record {
	if rec == nil {
		return nil
	}
	delete(rec, "password")
	return rec
}

func publicAll(recs []records.Record) []records.Record {
	for _, r := range recs {
		public(r)
	}
	return recs
}
