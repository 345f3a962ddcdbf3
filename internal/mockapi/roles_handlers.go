package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/stats"
	"eps-citas/internal/middleware"
	"eps-citas/internal/ports/records"
)

// --- médico ---

// @Summary Citas del médico autenticado
// @Tags medico
// @Security BearerAuth
// @Router /medico/mis-citas [get]
func (s *Server) handleMedicoCitas(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	actor := actorOf(claims)
	items, err := s.citasWhere(r.Context(), func(rec records.Record) bool { return owns(actor, rec) })
	if err != nil {
		s.internalError(w, "medico_citas", err)
		return
	}
	ok(w, http.StatusOK, items, "")
}

// @Summary Agenda pendiente (hoy en adelante, sin finalizadas)
// @Tags medico
// @Security BearerAuth
// @Router /medico/mi-agenda [get]
func (s *Server) handleMedicoAgenda(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	actor := actorOf(claims)
	today := citas.FechaOf(s.now()).String()
	items, err := s.citasWhere(r.Context(), func(rec records.Record) bool {
		return owns(actor, rec) && !terminal(rec) && rec.String("fecha") >= today
	})
	if err != nil {
		s.internalError(w, "medico_agenda", err)
		return
	}
	ok(w, http.StatusOK, items, "")
}

// @Summary Pacientes con citas del médico autenticado
// @Tags medico
// @Security BearerAuth
// @Router /medico/mis-pacientes [get]
func (s *Server) handleMedicoPacientes(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	actor := actorOf(claims)
	mine, err := s.citasWhere(r.Context(), func(rec records.Record) bool { return owns(actor, rec) })
	if err != nil {
		s.internalError(w, "medico_pacientes", err)
		return
	}
	pacientes, err := s.index(r.Context(), colPacientes)
	if err != nil {
		s.internalError(w, "medico_pacientes", err)
		return
	}

	seen := map[int64]bool{}
	out := make([]records.Record, 0)
	for _, c := range mine {
		id, _ := c.Int("paciente_id")
		p, found := pacientes[id]
		if !found || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, public(p))
	}
	ok(w, http.StatusOK, out, "")
}

type estadoRequest struct {
	Estado string `json:"estado"`
}

// @Summary Cambia el estado de una cita propia
// @Tags medico
// @Security BearerAuth
// @Accept json
// @Failure 422 {object} envelope
// @Router /medico/citas/{id}/estado [put]
func (s *Server) handleMedicoEstado(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	id, valid := idParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "ID inválido")
		return
	}
	var req estadoRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	to, err := citas.ParseEstado(req.Estado)
	if err != nil {
		fail(w, http.StatusUnprocessableEntity, msgEstadoInvalido)
		return
	}

	if status, msg := s.transition(r.Context(), actorOf(claims), id, to); status != 0 {
		fail(w, status, msg)
		return
	}
	rec, status, msg := s.loadCita(r.Context(), actorOf(claims), id)
	if status != 0 {
		fail(w, status, msg)
		return
	}
	ok(w, http.StatusOK, rec, "Estado de la cita actualizado")
}

type observacionesRequest struct {
	Observaciones string `json:"observaciones"`
}

// @Summary Agrega observaciones a una cita propia
// @Tags medico
// @Security BearerAuth
// @Router /medico/citas/{id}/observaciones [put]
func (s *Server) handleMedicoObservaciones(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	actor := actorOf(claims)
	id, valid := idParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "ID inválido")
		return
	}
	var req observacionesRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	obs := strings.TrimSpace(req.Observaciones)
	if obs == "" {
		fail(w, http.StatusUnprocessableEntity, "Por favor ingresa las observaciones")
		return
	}

	if _, status, msg := s.loadCita(r.Context(), actor, id); status != 0 {
		fail(w, status, msg)
		return
	}
	if _, err := s.repo.Update(r.Context(), colCitas, id, records.Record{"observaciones": obs}); err != nil {
		s.internalError(w, "medico_observaciones", err)
		return
	}
	rec, status, msg := s.loadCita(r.Context(), actor, id)
	if status != 0 {
		fail(w, status, msg)
		return
	}
	ok(w, http.StatusOK, rec, "Observaciones guardadas")
}

type reporte struct {
	Periodo            stats.Periodo `json:"periodo"`
	Desde              string        `json:"desde"`
	Hasta              string        `json:"hasta"`
	Citas              stats.Citas   `json:"citas"`
	PacientesAtendidos int           `json:"pacientes_atendidos"`
}

// rango: hoy, últimos 7 días o últimos 30 días (incluye hoy).
func rango(p stats.Periodo, now time.Time) (desde, hasta citas.Fecha) {
	hasta = citas.FechaOf(now)
	switch p {
	case stats.PeriodoSemana:
		desde = citas.FechaOf(hasta.Time().AddDate(0, 0, -6))
	case stats.PeriodoMes:
		desde = citas.FechaOf(hasta.Time().AddDate(0, 0, -29))
	default:
		desde = hasta
	}
	return desde, hasta
}

// @Summary Reporte del médico por periodo
// @Tags medico
// @Security BearerAuth
// @Param periodo query string false "hoy|semana|mes"
// @Router /medico/reportes [get]
func (s *Server) handleMedicoReportes(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	actor := actorOf(claims)

	raw := r.URL.Query().Get("periodo")
	if strings.TrimSpace(raw) == "" {
		raw = string(stats.PeriodoSemana)
	}
	periodo, valid := stats.ParsePeriodo(raw)
	if !valid {
		fail(w, http.StatusUnprocessableEntity, "Periodo inválido (hoy, semana o mes)")
		return
	}
	desde, hasta := rango(periodo, s.now())
	from, to := desde.String(), hasta.String()

	mine, err := s.citasWhere(r.Context(), func(rec records.Record) bool {
		f := rec.String("fecha")
		return owns(actor, rec) && f >= from && f <= to
	})
	if err != nil {
		s.internalError(w, "medico_reportes", err)
		return
	}

	typed := make([]citas.Cita, 0, len(mine))
	atendidos := map[int64]bool{}
	for _, rec := range mine {
		c, err := citaOf(rec)
		if err != nil {
			s.internalError(w, "medico_reportes", err)
			return
		}
		typed = append(typed, c)
		if c.Estado == citas.EstadoCompletada {
			atendidos[c.PacienteID] = true
		}
	}

	ok(w, http.StatusOK, reporte{
		Periodo:            periodo,
		Desde:              from,
		Hasta:              to,
		Citas:              stats.CountCitas(typed, hasta),
		PacientesAtendidos: len(atendidos),
	}, "")
}

// --- paciente ---

// pacienteScope valida ?paciente_id=: si viene, tiene que ser el del token.
func pacienteScope(w http.ResponseWriter, r *http.Request) (citas.Actor, bool) {
	claims, _ := middleware.GetClaims(r.Context())
	if raw := strings.TrimSpace(r.URL.Query().Get("paciente_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id != claims.UserID {
			fail(w, http.StatusForbidden, middleware.MsgSinPermiso)
			return citas.Actor{}, false
		}
	}
	return actorOf(claims), true
}

// @Summary Citas del paciente autenticado
// @Tags paciente
// @Security BearerAuth
// @Param paciente_id query int false "debe coincidir con el token"
// @Router /paciente/mis-citas [get]
func (s *Server) handlePacienteCitas(w http.ResponseWriter, r *http.Request) {
	actor, allowed := pacienteScope(w, r)
	if !allowed {
		return
	}
	items, err := s.citasWhere(r.Context(), func(rec records.Record) bool { return owns(actor, rec) })
	if err != nil {
		s.internalError(w, "paciente_citas", err)
		return
	}
	ok(w, http.StatusOK, items, "")
}

// @Summary Historial del paciente (más recientes primero)
// @Tags paciente
// @Security BearerAuth
// @Router /paciente/mi-historial [get]
func (s *Server) handlePacienteHistorial(w http.ResponseWriter, r *http.Request) {
	actor, allowed := pacienteScope(w, r)
	if !allowed {
		return
	}
	items, err := s.citasWhere(r.Context(), func(rec records.Record) bool { return owns(actor, rec) })
	if err != nil {
		s.internalError(w, "paciente_historial", err)
		return
	}
	sortCitas(items, true)
	ok(w, http.StatusOK, items, "")
}

// @Summary Próxima cita vigente del paciente (data null si no hay)
// @Tags paciente
// @Security BearerAuth
// @Router /paciente/proxima-cita [get]
func (s *Server) handlePacienteProxima(w http.ResponseWriter, r *http.Request) {
	actor, allowed := pacienteScope(w, r)
	if !allowed {
		return
	}
	now := s.now()
	today := citas.FechaOf(now).String()
	clock := now.Format("15:04:05")

	items, err := s.citasWhere(r.Context(), func(rec records.Record) bool {
		if !owns(actor, rec) || terminal(rec) {
			return false
		}
		f := rec.String("fecha")
		return f > today || (f == today && rec.String("hora") >= clock)
	})
	if err != nil {
		s.internalError(w, "paciente_proxima", err)
		return
	}
	if len(items) == 0 {
		okNull(w, "No tienes citas próximas")
		return
	}
	ok(w, http.StatusOK, items[0], "")
}

// @Summary Cancela una cita propia programada
// @Tags paciente
// @Security BearerAuth
// @Failure 422 {object} envelope
// @Router /paciente/citas/{id}/cancelar [put]
func (s *Server) handlePacienteCancelar(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	id, valid := idParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if status, msg := s.transition(r.Context(), actorOf(claims), id, citas.EstadoCancelada); status != 0 {
		fail(w, status, msg)
		return
	}
	rec, status, msg := s.loadCita(r.Context(), actorOf(claims), id)
	if status != 0 {
		fail(w, status, msg)
		return
	}
	ok(w, http.StatusOK, rec, "Cita cancelada exitosamente")
}

// @Summary Médicos activos
// @Tags paciente
// @Security BearerAuth
// @Router /paciente/medicos-disponibles [get]
func (s *Server) handleMedicosDisponibles(w http.ResponseWriter, r *http.Request) {
	all, err := s.listPublic(r.Context(), colMedicos)
	if err != nil {
		s.internalError(w, "medicos_disponibles", err)
		return
	}
	out := make([]records.Record, 0, len(all))
	for _, m := range all {
		if activo(m) {
			out = append(out, m)
		}
	}
	ok(w, http.StatusOK, out, "")
}

// --- admin ---

type estadisticas struct {
	Pacientes      stats.Personas `json:"pacientes"`
	Medicos        stats.Personas `json:"medicos"`
	Citas          stats.Citas    `json:"citas"`
	Especialidades int            `json:"especialidades"`
	Consultorios   int            `json:"consultorios"`
	EPS            int            `json:"eps"`
}

func personas(items []records.Record) stats.Personas {
	var p stats.Personas
	for _, it := range items {
		p.Total++
		if activo(it) {
			p.Activos++
		} else {
			p.Inactivos++
		}
	}
	return p
}

// @Summary Estadísticas generales
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} envelope
// @Router /admin/estadisticas [get]
func (s *Server) handleEstadisticas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lists := map[string][]records.Record{}
	for _, col := range []string{colPacientes, colMedicos, colCitas, colEspecialidades, colConsultorios, colEPS} {
		items, err := s.repo.List(ctx, col)
		if err != nil {
			s.internalError(w, "estadisticas", err)
			return
		}
		lists[col] = items
	}

	typed := make([]citas.Cita, 0, len(lists[colCitas]))
	for _, rec := range lists[colCitas] {
		c, err := citaOf(rec)
		if err != nil {
			s.internalError(w, "estadisticas", err)
			return
		}
		typed = append(typed, c)
	}

	ok(w, http.StatusOK, estadisticas{
		Pacientes:      personas(lists[colPacientes]),
		Medicos:        personas(lists[colMedicos]),
		Citas:          stats.CountCitas(typed, citas.FechaOf(s.now())),
		Especialidades: len(lists[colEspecialidades]),
		Consultorios:   len(lists[colConsultorios]),
		EPS:            len(lists[colEPS]),
	}, "")
}
