package resource

import (
	"eps-citas/internal/platform/httpclient"
)

const (
	MsgNetwork = "No se pudo conectar al servidor. Verifica que el backend esté ejecutándose."
	MsgTimeout = "Tiempo de espera agotado al contactar el servidor."
	MsgDecode  = "Respuesta inesperada del servidor"
)

// Result es el {success, data, message} que ven las pantallas.
// Kind y Status permiten distinguir el tipo de fallo sin parsear el mensaje.
type Result[T any] struct {
	Success bool
	Data    T
	Message string
	Kind    httpclient.Kind
	Status  int
}

func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail construye un fallo local (sin request), p.ej. validación previa al envío.
func Fail[T any](kind httpclient.Kind, msg string) Result[T] {
	return Result[T]{Kind: kind, Message: msg}
}

// FromError traduce un error del adapter a un fallo con mensaje para el usuario.
func FromError[T any](err error, fallback string) Result[T] {
	kind := httpclient.KindOf(err)
	return Result[T]{
		Kind:    kind,
		Status:  httpclient.StatusOf(err),
		Message: messageFor(err, kind, fallback),
	}
}

func messageFor(err error, kind httpclient.Kind, fallback string) string {
	if msg := httpclient.MessageOf(err); msg != "" {
		return msg
	}
	switch kind {
	case httpclient.KindNetwork:
		return MsgNetwork
	case httpclient.KindTimeout:
		return MsgTimeout
	}
	if fallback == "" {
		return "Error inesperado"
	}
	return fallback
}

// Map convierte el Data de un resultado exitoso. Los fallos pasan tal cual.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	out := Result[B]{Success: r.Success, Message: r.Message, Kind: r.Kind, Status: r.Status}
	if r.Success {
		out.Data = f(r.Data)
	}
	return out
}
