// Package screens contiene los view-models que usan las pantallas: listas con
// recarga cancelable, cargas paralelas, auto-refresh y filas de citas.
package screens

import (
	"context"
	"errors"
	"sync"

	"eps-citas/internal/domain/resource"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/platform/logger"
)

var (
	ErrClosed = errors.New("screens: view closed")
	ErrStale  = errors.New("screens: superseded by a newer load")
)

// Loader trae los datos de una lista.
type Loader[T any] func(ctx context.Context) resource.Result[[]T]

// LoadError es el fallo de la última carga aplicada.
type LoadError struct {
	Kind    httpclient.Kind
	Status  int
	Message string
}

func (e *LoadError) Error() string { return e.Message }

// State es una foto de la vista.
type State[T any] struct {
	Loading bool
	Loaded  bool
	Items   []T
	Err     *LoadError
	Demo    bool
}

type ViewOption[T any] func(*ListView[T])

func WithLogger[T any](l logger.Logger) ViewOption[T] {
	return func(v *ListView[T]) {
		if l != nil {
			v.log = l
		}
	}
}

// DemoFallback reemplaza una carga fallida por sample. Con enabled=false no hace nada:
// los datos de ejemplo nunca aparecen fuera del modo demo.
func DemoFallback[T any](enabled bool, sample func() []T) ViewOption[T] {
	return func(v *ListView[T]) {
		if enabled && sample != nil {
			v.sample = sample
		}
	}
}

// ListView guarda el estado de una lista. Cada Load cancela el anterior y sólo
// se aplica la respuesta de la generación más reciente.
type ListView[T any] struct {
	load   Loader[T]
	sample func() []T
	log    logger.Logger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
	loading bool
	loaded  bool
	items   []T
	err     *LoadError
	demo    bool
}

func NewListView[T any](load Loader[T], opts ...ViewOption[T]) *ListView[T] {
	v := &ListView[T]{load: load, log: logger.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load ejecuta el loader y aplica el resultado si sigue siendo el último.
// Devuelve ErrStale si otra carga lo reemplazó, ErrClosed si la vista se cerró,
// o el *LoadError de la carga aplicada.
func (v *ListView[T]) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	v.gen++
	gen := v.gen
	v.cancel = cancel
	v.loading = true
	v.mu.Unlock()
	defer cancel()

	res := v.load(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if gen != v.gen {
		return ErrStale
	}
	v.cancel = nil
	v.loading = false
	v.apply(res)
	if v.err == nil {
		return nil
	}
	return v.err
}

func (v *ListView[T]) apply(res resource.Result[[]T]) {
	v.loaded = true
	if res.Success {
		v.items = res.Data
		v.err = nil
		v.demo = false
		return
	}

	v.err = &LoadError{Kind: res.Kind, Status: res.Status, Message: res.Message}
	if v.sample != nil {
		v.items = v.sample()
		v.demo = true
		v.log.Warn("load failed, showing demo data", map[string]any{"kind": string(res.Kind)})
		return
	}
	// Los items previos se conservan; la pantalla decide si mostrarlos.
	v.log.Debug("load failed", map[string]any{"kind": string(res.Kind)})
}

// Close cancela la carga en curso; ninguna respuesta posterior se aplica.
func (v *ListView[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.loading = false
}

func (v *ListView[T]) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *ListView[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]T(nil), v.items...)
}

func (v *ListView[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err == nil {
		return nil
	}
	return v.err
}

func (v *ListView[T]) Demo() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.demo
}

func (v *ListView[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State[T]{
		Loading: v.loading,
		Loaded:  v.loaded,
		Items:   append([]T(nil), v.items...),
		Err:     v.err,
		Demo:    v.demo,
	}
}
