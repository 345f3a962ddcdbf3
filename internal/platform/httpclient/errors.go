package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind clasifica un fallo para que las capas superiores elijan el mensaje.
type Kind string

const (
	KindNone         Kind = ""
	KindNetwork      Kind = "network"
	KindTimeout      Kind = "timeout"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindClient       Kind = "client"
	KindDecode       Kind = "decode"
)

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
	// Message es el campo "message" del envelope, si vino.
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, e.Message)
	}
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// Kind mapea el status a un Kind.
func (e *HTTPError) Kind() Kind {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return KindUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return KindForbidden
	case e.StatusCode == http.StatusNotFound:
		return KindNotFound
	case e.StatusCode == http.StatusBadRequest,
		e.StatusCode == http.StatusConflict,
		e.StatusCode == http.StatusUnprocessableEntity:
		return KindValidation
	case e.StatusCode >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// TransportError es un fallo antes de tener respuesta (DNS, conexión, timeout).
type TransportError struct {
	Kind Kind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("httpclient: %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// KindOf clasifica cualquier error devuelto por Client.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Kind()
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	var se *json.SyntaxError
	var ue *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ue) {
		return KindDecode
	}
	return classifyTransport(err)
}

// MessageOf devuelve el mensaje del backend si vino en el envelope.
func MessageOf(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return ""
}

// StatusOf devuelve el status HTTP o 0 si el fallo fue de transporte.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

// envelopeMessage extrae "message" de un body JSON, best-effort.
func envelopeMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return strings.TrimSpace(env.Message)
}
