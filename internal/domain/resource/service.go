package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/platform/logger"
)

// Doer es lo único que los servicios necesitan del adapter HTTP.
type Doer interface {
	Do(ctx context.Context, method, path string, in any) (*httpclient.Response, error)
}

type options struct {
	label string
	log   logger.Logger
}

type Option func(*options)

// WithLabel fija el nombre usado en los mensajes ("Error al eliminar <label>").
func WithLabel(label string) Option {
	return func(o *options) { o.label = strings.TrimSpace(label) }
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Service es el CRUD genérico sobre una colección REST.
type Service[T any] struct {
	doer       Doer
	collection string
	label      string
	log        logger.Logger
}

func New[T any](doer Doer, collection string, opts ...Option) *Service[T] {
	collection = strings.Trim(strings.TrimSpace(collection), "/")
	o := options{label: collection, log: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.label == "" {
		o.label = collection
	}
	return &Service[T]{
		doer:       doer,
		collection: collection,
		label:      o.label,
		log:        o.log.With(map[string]any{"collection": collection}),
	}
}

func (s *Service[T]) Collection() string { return s.collection }
func (s *Service[T]) Label() string      { return s.label }

func (s *Service[T]) GetAll(ctx context.Context) Result[[]T] {
	r := Call[[]T](ctx, s.doer, http.MethodGet, "/"+s.collection, nil, "Error al obtener "+s.label)
	if r.Success && r.Data == nil {
		r.Data = []T{}
	}
	s.logFailure("get_all", r.Kind, r.Message)
	return r
}

func (s *Service[T]) GetByID(ctx context.Context, id int64) Result[T] {
	r := Call[T](ctx, s.doer, http.MethodGet, s.itemPath(id), nil, "Error al obtener "+s.label+" por ID")
	s.logFailure("get_by_id", r.Kind, r.Message)
	return r
}

func (s *Service[T]) Create(ctx context.Context, payload any) Result[T] {
	r := Call[T](ctx, s.doer, http.MethodPost, "/"+s.collection, payload, "Error al crear "+s.label)
	s.logFailure("create", r.Kind, r.Message)
	return r
}

func (s *Service[T]) Update(ctx context.Context, id int64, payload any) Result[T] {
	r := Call[T](ctx, s.doer, http.MethodPut, s.itemPath(id), payload, "Error al actualizar "+s.label)
	s.logFailure("update", r.Kind, r.Message)
	return r
}

// Delete devuelve el data crudo: los backends responden cosas distintas al borrar.
func (s *Service[T]) Delete(ctx context.Context, id int64) Result[json.RawMessage] {
	r := Call[json.RawMessage](ctx, s.doer, http.MethodDelete, s.itemPath(id), nil, "Error al eliminar "+s.label)
	s.logFailure("delete", r.Kind, r.Message)
	return r
}

func (s *Service[T]) itemPath(id int64) string {
	return fmt.Sprintf("/%s/%d", s.collection, id)
}

func (s *Service[T]) logFailure(op string, kind httpclient.Kind, msg string) {
	if kind == httpclient.KindNone && msg == "" {
		return
	}
	s.log.Warn("resource call failed", map[string]any{"op": op, "kind": string(kind), "message": msg})
}

// Call hace un request y normaliza la respuesta a Result. Nunca entra en pánico
// hacia el caller: un pánico dentro del request se devuelve como fallo.
func Call[T any](ctx context.Context, doer Doer, method, path string, in any, fallback string) (res Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result[T]{Message: fallback}
			if res.Message == "" {
				res.Message = fmt.Sprint(rec)
			}
		}
	}()

	if doer == nil {
		return Fail[T](httpclient.KindNetwork, MsgNetwork)
	}

	resp, err := doer.Do(ctx, method, path, in)
	if err != nil {
		return FromError[T](err, fallback)
	}

	if msg, bad := rejected(resp.Body); bad {
		if msg == "" {
			msg = fallback
		}
		return Result[T]{Kind: httpclient.KindValidation, Status: resp.StatusCode, Message: msg}
	}

	out := Result[T]{Success: true, Status: resp.StatusCode}
	data := Unwrap(resp.Body)
	if len(data) == 0 {
		return out
	}
	if raw, ok := any(&out.Data).(*json.RawMessage); ok {
		*raw = append(json.RawMessage(nil), data...)
		return out
	}
	if bareEnvelope(data) {
		return out
	}
	if err := json.Unmarshal(data, &out.Data); err != nil {
		return Result[T]{Kind: httpclient.KindDecode, Status: resp.StatusCode, Message: MsgDecode}
	}
	return out
}
