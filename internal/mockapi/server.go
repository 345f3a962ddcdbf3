// Package mockapi implementa el contrato HTTP del backend EPS para modo demo y tests e2e.
package mockapi

import (
	"net/http"
	"time"

	"eps-citas/internal/middleware"
	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/logger"
	"eps-citas/internal/platform/metrics"
	"eps-citas/internal/ports/auth"
	"eps-citas/internal/ports/records"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// Colecciones del backend.
const (
	colPacientes       = "pacientes"
	colMedicos         = "medicos"
	colAdministradores = "administradores"
	colEspecialidades  = "especialidades"
	colConsultorios    = "consultorios"
	colEPS             = "eps"
	colCitas           = "citas"
)

// TokenIssuer firma el token que devuelve /login.
type TokenIssuer interface {
	Issue(c auth.Claims) (string, error)
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.ServerMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost baja el costo en tests.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

type Server struct {
	repo       records.Repository
	tokens     TokenIssuer
	log        logger.Logger
	metrics    *metrics.ServerMetrics
	now        func() time.Time
	bcryptCost int
}

func NewServer(repo records.Repository, tokens TokenIssuer, opts ...Option) *Server {
	s := &Server{
		repo:       repo,
		tokens:     tokens,
		log:        logger.NewNop(),
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(map[string]any{"component": "mockapi"})
	return s
}

// RegisterRoutes monta el contrato completo. Espera que el router ya tenga
// middleware.AuthContext para que RequireAuth vea los claims.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/test", s.handleTest)
	r.Post("/login", s.handleLogin)
	r.Post("/register/paciente", s.handleRegisterPaciente)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth)

		pr.Put("/profile/update", s.handleProfileUpdate)
		pr.Put("/profile/change-password", s.handleChangePassword)

		for _, c := range catalogCollections {
			s.mountCollection(pr, c)
		}
		s.mountCitas(pr)

		pr.Route("/medico", func(mr chi.Router) {
			mr.Use(middleware.RequireRole(navigation.RoleMedico))
			mr.Get("/mis-citas", s.handleMedicoCitas)
			mr.Get("/mi-agenda", s.handleMedicoAgenda)
			mr.Get("/mis-pacientes", s.handleMedicoPacientes)
			mr.Get("/reportes", s.handleMedicoReportes)
			mr.Put("/citas/{id}/estado", s.handleMedicoEstado)
			mr.Put("/citas/{id}/observaciones", s.handleMedicoObservaciones)
		})

		pr.Route("/paciente", func(pr chi.Router) {
			pr.Use(middleware.RequireRole(navigation.RolePaciente))
			pr.Get("/mis-citas", s.handlePacienteCitas)
			pr.Get("/mi-historial", s.handlePacienteHistorial)
			pr.Get("/proxima-cita", s.handlePacienteProxima)
			pr.Get("/medicos-disponibles", s.handleMedicosDisponibles)
			pr.Post("/agendar-cita", s.handleAgendarCita)
			pr.Put("/citas/{id}/cancelar", s.handlePacienteCancelar)
		})

		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.RequireRole(navigation.RoleAdmin))
			ar.Get("/estadisticas", s.handleEstadisticas)
			ar.Get("/pacientes", s.listHandler(colPacientes))
			ar.Get("/medicos", s.listHandler(colMedicos))
			ar.Get("/administradores", s.listHandler(colAdministradores))
			ar.Get("/citas", s.handleListCitas)
		})
	})
}

// @Summary Prueba de conectividad
// @Tags sistema
// @Success 200 {object} envelope
// @Router /test [get]
func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	ok(w, http.StatusOK, map[string]any{"time": s.now().UTC().Format(time.RFC3339)}, "API funcionando")
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error("handler failed", map[string]any{"op": op, "error": err})
	fail(w, http.StatusInternalServerError, "Error interno del servidor")
}
