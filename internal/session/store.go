package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/logger"
	"eps-citas/internal/platform/metrics"
	"eps-citas/internal/ports/auth"
	"eps-citas/internal/ports/storage"

	"github.com/golang-jwt/jwt/v5"
)

type State string

const (
	StateAnonymous     State = "anonymous"
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
)

type User = auth.User

type LoginError = auth.LoginError

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Snapshot es una copia inmutable del estado para las vistas.
type Snapshot struct {
	User            *User
	Role            navigation.Role
	IsAuthenticated bool
	Loading         bool
	State           State
}

// Nav es la vista de la sesión que usa el router.
func (s Snapshot) Nav() navigation.Status {
	return navigation.Status{Loading: s.Loading, Authenticated: s.IsAuthenticated, Role: s.Role}
}

type Option func(*Store)

func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store es la sesión del cliente. Arranca en loading hasta que Restore termina.
type Store struct {
	kv      storage.KV
	auth    auth.Authenticator
	log     logger.Logger
	metrics *metrics.ClientMetrics
	now     func() time.Time

	mu    sync.RWMutex
	state State
	user  *User

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

func NewStore(kv storage.KV, authn auth.Authenticator, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		auth:  authn,
		log:   logger.NewNop(),
		now:   time.Now,
		state: StateLoading,
		subs:  map[int]chan Snapshot{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(map[string]any{"component": "session"})
	return s
}

// Restore hidrata la sesión desde el almacenamiento. Cualquier dato faltante o
// inválido deja la sesión anónima; el error devuelto es solo informativo.
func (s *Store) Restore(ctx context.Context) error {
	s.setState(StateLoading, nil)

	token, okT, err := s.kv.Get(ctx, storage.KeyToken)
	if err != nil {
		s.setState(StateAnonymous, nil)
		return err
	}
	raw, okU, err := s.kv.Get(ctx, storage.KeyUser)
	if err != nil {
		s.setState(StateAnonymous, nil)
		return err
	}
	if !okT || !okU || strings.TrimSpace(token) == "" {
		// Una clave sin la otra no es sesión; no se deja un token huérfano.
		if okT || okU {
			s.log.Warn("incomplete stored session, purging", nil)
			_ = s.purge(ctx)
		}
		s.setState(StateAnonymous, nil)
		return nil
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || !u.Tipo.Valid() {
		s.log.Warn("stored user invalid, purging session", map[string]any{"error": err})
		_ = s.purge(ctx)
		s.setState(StateAnonymous, nil)
		return nil
	}

	if s.tokenExpired(token) {
		s.log.Info("stored token expired, purging session", nil)
		_ = s.purge(ctx)
		s.setState(StateAnonymous, nil)
		return nil
	}

	s.setState(StateAuthenticated, &u)
	s.log.Info("session restored", map[string]any{"user_id": u.ID, "role": string(u.Tipo)})
	return nil
}

// Login autentica contra el backend. El rol resultante es el que devuelve el
// backend; hint solo le indica qué tipo de usuario buscar.
func (s *Store) Login(ctx context.Context, email, password string, hint navigation.Role) (Snapshot, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return s.Snapshot(), &LoginError{Message: "Por favor completa todos los campos", Err: ErrInvalidInput}
	}
	if s.auth == nil {
		return s.Snapshot(), &LoginError{Message: "Error en el login", Err: ErrInvalidInput}
	}

	res, err := s.auth.Login(ctx, auth.Credentials{Email: email, Password: password, Tipo: hint})
	if err != nil {
		var le *LoginError
		if !errors.As(err, &le) {
			le = &LoginError{Message: "Credenciales inválidas", Err: err}
		}
		s.log.Info("login failed", map[string]any{"email": email, "reason": le.Message})
		return s.Snapshot(), le
	}

	user := res.User
	user.Tipo = res.Tipo
	b, err := json.Marshal(user)
	if err != nil {
		return s.Snapshot(), err
	}

	if err := s.kv.Set(ctx, storage.KeyToken, res.Token); err != nil {
		_ = s.purge(ctx)
		return s.Snapshot(), err
	}
	if err := s.kv.Set(ctx, storage.KeyUser, string(b)); err != nil {
		_ = s.purge(ctx)
		return s.Snapshot(), err
	}

	s.setState(StateAuthenticated, &user)
	s.log.Info("login ok", map[string]any{"user_id": user.ID, "role": string(user.Tipo)})
	return s.Snapshot(), nil
}

// Logout borra la sesión persistida y la memoria siempre. El error de
// almacenamiento se devuelve, pero el estado queda anónimo igual.
func (s *Store) Logout(ctx context.Context) error {
	err := s.purge(ctx)
	s.setState(StateAnonymous, nil)
	if err != nil {
		s.log.Warn("logout purge failed", map[string]any{"error": err})
	}
	return err
}

// Expire lo invoca el adapter HTTP ante un 401.
func (s *Store) Expire(ctx context.Context) {
	s.mu.RLock()
	was := s.state
	s.mu.RUnlock()

	if err := s.purge(ctx); err != nil {
		s.log.Warn("expire purge failed", map[string]any{"error": err})
	}
	if was == StateAuthenticated {
		s.metrics.SessionExpired()
		s.log.Info("session expired by backend", nil)
	}
	s.setState(StateAnonymous, nil)
}

// Validate confirma que el token sigue persistido. Si otra ruta (p.ej. una
// purga por 401 en otro proceso) lo borró, la sesión pasa a anónima.
func (s *Store) Validate(ctx context.Context) bool {
	s.mu.RLock()
	authed := s.state == StateAuthenticated
	s.mu.RUnlock()
	if !authed {
		return false
	}

	token, ok, err := s.kv.Get(ctx, storage.KeyToken)
	if err == nil && ok && strings.TrimSpace(token) != "" && !s.tokenExpired(token) {
		return true
	}
	if err == nil {
		_ = s.purge(ctx)
	}
	s.setState(StateAnonymous, nil)
	return false
}

// Token implementa httpclient.TokenSource: siempre lee del almacenamiento.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, ok, err := s.kv.Get(ctx, storage.KeyToken)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

// UpdateUser aplica fn al usuario en memoria y persistido. El tipo no cambia.
func (s *Store) UpdateUser(ctx context.Context, fn func(*User)) error {
	s.mu.Lock()
	if s.state != StateAuthenticated || s.user == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	u := *s.user
	tipo := u.Tipo
	fn(&u)
	u.Tipo = tipo
	s.mu.Unlock()

	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.KeyUser, string(b)); err != nil {
		return err
	}
	s.setState(StateAuthenticated, &u)
	return nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Loading: s.state == StateLoading}
	if s.state == StateAuthenticated && s.user != nil {
		u := *s.user
		snap.User = &u
		snap.Role = u.Tipo
		snap.IsAuthenticated = true
	}
	return snap
}

// Subscribe entrega cada cambio de estado. Si el lector se atrasa, solo ve el último.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) setState(st State, u *User) {
	s.mu.Lock()
	s.state = st
	if st == StateAuthenticated {
		s.user = u
	} else {
		s.user = nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Store) purge(ctx context.Context) error {
	return errors.Join(
		s.kv.Delete(ctx, storage.KeyToken),
		s.kv.Delete(ctx, storage.KeyUser),
	)
}

// tokenExpired mira el exp de un JWT sin verificar la firma (eso es del backend).
// Tokens opacos no expiran del lado del cliente.
func (s *Store) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}
