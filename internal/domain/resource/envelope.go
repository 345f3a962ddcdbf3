package resource

import (
	"bytes"
	"encoding/json"
	"strings"
)

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Unwrap devuelve body["data"] si existe y no es null; si no, el body completo.
func Unwrap(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return json.RawMessage(trimmed)
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return json.RawMessage(trimmed)
	}
	if len(env.Data) == 0 || string(bytes.TrimSpace(env.Data)) == "null" {
		return json.RawMessage(trimmed)
	}
	return env.Data
}

// rejected reporta un envelope {success:false} recibido con status 2xx.
func rejected(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return "", false
	}
	if env.Success != nil && !*env.Success {
		return strings.TrimSpace(env.Message), true
	}
	return "", false
}

// bareEnvelope: {success:true} sin data (o data:null). No hay nada que decodificar.
func bareEnvelope(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return false
	}
	_, hasSuccess := probe["success"]
	return hasSuccess
}
