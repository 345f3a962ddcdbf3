package mockapi

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"eps-citas/internal/domain/citas"
	"eps-citas/internal/middleware"
	"eps-citas/internal/navigation"
	"eps-citas/internal/ports/auth"
	"eps-citas/internal/ports/records"

	"github.com/go-chi/chi/v5"
)

const (
	msgCitaNoEncontrada = "Cita no encontrada"
	msgCitaAjena        = "La cita no pertenece a este usuario"
	msgCitaFinalizada   = "No se puede modificar una cita completada o cancelada"
	msgHorarioOcupado   = "El médico ya tiene una cita en ese horario"
	msgEstadoInvalido   = "Estado inválido"
)

func (s *Server) mountCitas(r chi.Router) {
	r.Route("/"+colCitas, func(cr chi.Router) {
		cr.Get("/", s.handleListCitas)
		cr.Get("/{id}", s.handleGetCita)
		cr.With(middleware.RequireRole(navigation.RoleAdmin, navigation.RolePaciente)).Post("/", s.handleCreateCita)

		cr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(navigation.RoleAdmin))
			ar.Put("/{id}", s.handleUpdateCita)
			ar.Delete("/{id}", s.handleDeleteCita)
		})
	})
}

func actorOf(c auth.Claims) citas.Actor {
	a := citas.Actor{Role: c.Role}
	switch c.Role {
	case navigation.RoleMedico:
		a.MedicoID = c.UserID
	case navigation.RolePaciente:
		a.PacienteID = c.UserID
	}
	return a
}

// owns: el admin ve todo; médico y paciente solo lo suyo.
func owns(a citas.Actor, rec records.Record) bool {
	switch a.Role {
	case navigation.RoleAdmin:
		return true
	case navigation.RoleMedico:
		id, _ := rec.Int("medico_id")
		return id == a.MedicoID
	case navigation.RolePaciente:
		id, _ := rec.Int("paciente_id")
		return id == a.PacienteID
	}
	return false
}

func citaOf(rec records.Record) (citas.Cita, error) {
	var c citas.Cita
	err := convert(rec, &c)
	return c, err
}

func terminal(rec records.Record) bool {
	return citas.Estado(rec.String("estado")).Terminal()
}

// citasWhere lista (y decora) las citas que cumplen keep, ordenadas por fecha y hora.
func (s *Server) citasWhere(ctx context.Context, keep func(records.Record) bool) ([]records.Record, error) {
	all, err := s.repo.List(ctx, colCitas)
	if err != nil {
		return nil, err
	}
	out := make([]records.Record, 0, len(all))
	for _, rec := range all {
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	sortCitas(out, false)
	if err := s.decorateCitas(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// sortCitas ordena por fecha+hora. Ambas se guardan canónicas, así que el orden
// lexicográfico es el cronológico.
func sortCitas(items []records.Record, desc bool) {
	key := func(r records.Record) string { return r.String("fecha") + " " + r.String("hora") }
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return key(items[i]) > key(items[j])
		}
		return key(items[i]) < key(items[j])
	})
}

// decorateCitas agrega los nombres que muestran los listados.
func (s *Server) decorateCitas(ctx context.Context, items []records.Record) error {
	if len(items) == 0 {
		return nil
	}
	idx := map[string]map[int64]records.Record{}
	for _, col := range []string{colPacientes, colMedicos, colEspecialidades, colConsultorios} {
		m, err := s.index(ctx, col)
		if err != nil {
			return err
		}
		idx[col] = m
	}

	for _, c := range items {
		if p, found := lookup(idx[colPacientes], c, "paciente_id"); found {
			c["paciente_nombre"] = p.String("nombre")
			c["paciente_apellido"] = p.String("apellido")
			c["paciente_telefono"] = p.String("telefono")
		}
		if m, found := lookup(idx[colMedicos], c, "medico_id"); found {
			c["medico_nombre"] = m.String("nombre")
			c["medico_apellido"] = m.String("apellido")
		}
		if e, found := lookup(idx[colEspecialidades], c, "especialidad_id"); found {
			c["especialidad_nombre"] = e.String("nombre")
		}
		if o, found := lookup(idx[colConsultorios], c, "consultorio_id"); found {
			c["consultorio_nombre"] = o.String("nombre")
		}
	}
	return nil
}

func lookup(m map[int64]records.Record, rec records.Record, key string) (records.Record, bool) {
	id, has := rec.Int(key)
	if !has {
		return nil, false
	}
	r, found := m[id]
	return r, found
}

// @Summary Lista citas (filtradas por rol)
// @Tags citas
// @Security BearerAuth
// @Produce json
// @Success 200 {object} envelope
// @Router /citas [get]
func (s *Server) handleListCitas(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	actor := actorOf(claims)
	items, err := s.citasWhere(r.Context(), func(rec records.Record) bool { return owns(actor, rec) })
	if err != nil {
		s.internalError(w, "list_citas", err)
		return
	}
	ok(w, http.StatusOK, items, "")
}

func (s *Server) handleGetCita(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	id, valid := idParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "ID inválido")
		return
	}
	rec, status, msg := s.loadCita(r.Context(), actorOf(claims), id)
	if status != 0 {
		fail(w, status, msg)
		return
	}
	ok(w, http.StatusOK, rec, "")
}

func (s *Server) loadCita(ctx context.Context, actor citas.Actor, id int64) (records.Record, int, string) {
	rec, err := s.repo.Get(ctx, colCitas, id)
	if errors.Is(err, records.ErrNotFound) {
		return nil, http.StatusNotFound, msgCitaNoEncontrada
	}
	if err != nil {
		s.log.Error("get cita failed", map[string]any{"id": id, "error": err})
		return nil, http.StatusInternalServerError, "Error interno del servidor"
	}
	if !owns(actor, rec) {
		return nil, http.StatusForbidden, msgCitaAjena
	}
	if err := s.decorateCitas(ctx, []records.Record{rec}); err != nil {
		return nil, http.StatusInternalServerError, "Error interno del servidor"
	}
	return rec, 0, ""
}

type citaRequest struct {
	PacienteID     int64  `json:"paciente_id"`
	MedicoID       int64  `json:"medico_id"`
	EspecialidadID int64  `json:"especialidad_id"`
	ConsultorioID  *int64 `json:"consultorio_id"`
	Fecha          string `json:"fecha"`
	Hora           string `json:"hora"`
	Motivo         string `json:"motivo"`
	MotivoConsulta string `json:"motivo_consulta"`
	Observaciones  string `json:"observaciones"`
}

func (req citaRequest) input() citas.CreateInput {
	motivo := req.Motivo
	if strings.TrimSpace(motivo) == "" {
		motivo = req.MotivoConsulta
	}
	return citas.CreateInput{
		PacienteID:     req.PacienteID,
		MedicoID:       req.MedicoID,
		EspecialidadID: req.EspecialidadID,
		ConsultorioID:  req.ConsultorioID,
		Fecha:          req.Fecha,
		Hora:           req.Hora,
		Motivo:         motivo,
		Observaciones:  req.Observaciones,
	}
}

// @Summary Crea una cita (admin o paciente)
// @Tags citas
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} envelope
// @Failure 409 {object} envelope
// @Failure 422 {object} envelope
// @Router /citas [post]
func (s *Server) handleCreateCita(w http.ResponseWriter, r *http.Request) {
	s.createCita(w, r, "Cita creada exitosamente")
}

// @Summary Agenda una cita para el paciente autenticado
// @Tags paciente
// @Security BearerAuth
// @Router /paciente/agendar-cita [post]
func (s *Server) handleAgendarCita(w http.ResponseWriter, r *http.Request) {
	s.createCita(w, r, "Cita agendada exitosamente")
}

func (s *Server) createCita(w http.ResponseWriter, r *http.Request, okMsg string) {
	claims, _ := middleware.GetClaims(r.Context())

	var req citaRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if claims.Role == navigation.RolePaciente {
		req.PacienteID = claims.UserID
	}

	p, err := req.input().Validate(true)
	if err != nil {
		fail(w, http.StatusUnprocessableEntity, inputMessage(err))
		return
	}
	if status, msg := s.checkReferences(r.Context(), p.PacienteID, p.MedicoID, p.EspecialidadID, p.ConsultorioID); status != 0 {
		fail(w, status, msg)
		return
	}

	busy, err := s.slotTaken(r.Context(), p.MedicoID, p.Fecha, p.Hora, 0)
	if err != nil {
		s.internalError(w, "create_cita", err)
		return
	}
	if busy {
		fail(w, http.StatusConflict, msgHorarioOcupado)
		return
	}

	body, err := toRecord(p)
	if err != nil {
		s.internalError(w, "create_cita", err)
		return
	}
	rec, err := s.repo.Create(r.Context(), colCitas, body)
	if err != nil {
		s.internalError(w, "create_cita", err)
		return
	}
	if err := s.decorateCitas(r.Context(), []records.Record{rec}); err != nil {
		s.internalError(w, "create_cita", err)
		return
	}
	s.log.Info("cita created", map[string]any{"id": rec.ID(), "by": string(claims.Role)})
	ok(w, http.StatusCreated, rec, okMsg)
}

// inputMessage saca el texto para el usuario de un citas.ErrInvalidInput envuelto.
func inputMessage(err error) string {
	return strings.TrimPrefix(err.Error(), citas.ErrInvalidInput.Error()+": ")
}

type refCheck struct {
	col string
	id  int64
	msg string
}

func (s *Server) checkReferences(ctx context.Context, pacienteID, medicoID, especialidadID int64, consultorioID *int64) (int, string) {
	checks := []refCheck{
		{colPacientes, pacienteID, "El paciente no existe"},
		{colMedicos, medicoID, "El médico no existe"},
		{colEspecialidades, especialidadID, "La especialidad no existe"},
	}
	if consultorioID != nil {
		checks = append(checks, refCheck{colConsultorios, *consultorioID, "El consultorio no existe"})
	}

	for _, c := range checks {
		rec, err := s.repo.Get(ctx, c.col, c.id)
		if errors.Is(err, records.ErrNotFound) {
			return http.StatusUnprocessableEntity, c.msg
		}
		if err != nil {
			s.log.Error("reference check failed", map[string]any{"collection": c.col, "error": err})
			return http.StatusInternalServerError, "Error interno del servidor"
		}
		if c.col == colMedicos && !activo(rec) {
			return http.StatusUnprocessableEntity, "El médico no está disponible"
		}
	}
	return 0, ""
}

// slotTaken: un médico no puede tener dos citas vigentes a la misma fecha y hora.
func (s *Server) slotTaken(ctx context.Context, medicoID int64, fecha, hora string, exceptID int64) (bool, error) {
	all, err := s.repo.List(ctx, colCitas)
	if err != nil {
		return false, err
	}
	for _, c := range all {
		id, _ := c.Int("medico_id")
		if id != medicoID || c.ID() == exceptID || citas.Estado(c.String("estado")) == citas.EstadoCancelada {
			continue
		}
		if c.String("fecha") == fecha && c.String("hora") == hora {
			return true, nil
		}
	}
	return false, nil
}

// @Summary Edita una cita o cambia su estado (admin)
// @Tags citas
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} envelope
// @Failure 422 {object} envelope
// @Router /citas/{id} [put]
func (s *Server) handleUpdateCita(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	id, valid := idParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "ID inválido")
		return
	}
	body := records.Record{}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	actor := actorOf(claims)

	patch := records.Record{}
	for _, k := range editableCitaFields {
		if v, has := body[k]; has {
			patch[k] = v
		}
	}
	// Nada se escribe hasta validar estado y datos.
	var next citas.Estado
	if raw, hasEstado := body["estado"]; hasEstado {
		to, _ := raw.(string)
		var status int
		var msg string
		if next, status, msg = s.checkTransition(r.Context(), actor, id, citas.Estado(strings.TrimSpace(to))); status != 0 {
			fail(w, status, msg)
			return
		}
	}
	if len(patch) > 0 {
		var status int
		var msg string
		if patch, status, msg = s.prepareEdit(r.Context(), id, patch); status != 0 {
			fail(w, status, msg)
			return
		}
	}
	if next != "" {
		patch["estado"] = string(next)
	}
	if len(patch) > 0 {
		if _, err := s.repo.Update(r.Context(), colCitas, id, patch); err != nil {
			s.internalError(w, "update_cita", err)
			return
		}
		if next != "" {
			s.metrics.Transition(string(next), "ok")
		}
	}

	rec, status, msg := s.loadCita(r.Context(), actor, id)
	if status != 0 {
		fail(w, status, msg)
		return
	}
	ok(w, http.StatusOK, rec, "Cita actualizada exitosamente")
}

// editableCitaFields son los datos que acepta PUT /citas/{id} además del estado.
var editableCitaFields = []string{
	"paciente_id", "medico_id", "especialidad_id", "consultorio_id",
	"fecha", "hora", "motivo", "motivo_consulta", "observaciones",
}

// prepareEdit valida un cambio de datos (no de estado) y devuelve el patch listo para
// guardar, con fecha/hora canónicas. No escribe.
func (s *Server) prepareEdit(ctx context.Context, id int64, patch records.Record) (records.Record, int, string) {
	cur, err := s.repo.Get(ctx, colCitas, id)
	if errors.Is(err, records.ErrNotFound) {
		return nil, http.StatusNotFound, msgCitaNoEncontrada
	}
	if err != nil {
		return nil, http.StatusInternalServerError, "Error interno del servidor"
	}
	if terminal(cur) {
		return nil, http.StatusUnprocessableEntity, msgCitaFinalizada
	}
	if v, has := patch["motivo_consulta"]; has {
		if _, set := patch["motivo"]; !set {
			patch["motivo"] = v
		}
		delete(patch, "motivo_consulta")
	}

	merged := records.Record{}
	for k, v := range cur {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	var req citaRequest
	if err := convert(merged, &req); err != nil {
		return nil, http.StatusBadRequest, "JSON inválido"
	}
	p, err := req.input().Validate(true)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, inputMessage(err)
	}
	if status, msg := s.checkReferences(ctx, p.PacienteID, p.MedicoID, p.EspecialidadID, p.ConsultorioID); status != 0 {
		return nil, status, msg
	}
	busy, err := s.slotTaken(ctx, p.MedicoID, p.Fecha, p.Hora, id)
	if err != nil {
		return nil, http.StatusInternalServerError, "Error interno del servidor"
	}
	if busy {
		return nil, http.StatusConflict, msgHorarioOcupado
	}

	patch["fecha"] = p.Fecha
	patch["hora"] = p.Hora
	return patch, 0, ""
}

func actionFor(to citas.Estado) (citas.Action, bool) {
	switch to {
	case citas.EstadoConfirmada:
		return citas.ActionConfirmar, true
	case citas.EstadoCompletada:
		return citas.ActionCompletar, true
	case citas.EstadoCancelada:
		return citas.ActionCancelar, true
	}
	return "", false
}

// checkTransition valida un cambio de estado con las mismas reglas que usa el cliente
// para mostrar los controles. next vacío: la cita ya está en ese estado.
func (s *Server) checkTransition(ctx context.Context, actor citas.Actor, id int64, to citas.Estado) (citas.Estado, int, string) {
	rec, err := s.repo.Get(ctx, colCitas, id)
	if errors.Is(err, records.ErrNotFound) {
		return "", http.StatusNotFound, msgCitaNoEncontrada
	}
	if err != nil {
		return "", http.StatusInternalServerError, "Error interno del servidor"
	}
	if !owns(actor, rec) {
		return "", http.StatusForbidden, msgCitaAjena
	}
	c, err := citaOf(rec)
	if err != nil {
		return "", http.StatusInternalServerError, "Error interno del servidor"
	}
	if !to.Valid() {
		return "", http.StatusUnprocessableEntity, msgEstadoInvalido
	}
	if to == c.Estado && !to.Terminal() {
		return "", 0, ""
	}

	action, known := actionFor(to)
	next, err := citas.Next(c.Estado, action)
	if !known || err != nil || next != to || !citas.Allowed(actor, c, action) {
		s.metrics.Transition(string(to), "rejected")
		s.log.Warn("transition rejected", map[string]any{
			"cita_id": id, "from": string(c.Estado), "to": string(to), "role": string(actor.Role),
		})
		return "", http.StatusUnprocessableEntity, citas.MsgAccionNoPermitida
	}
	return next, 0, ""
}

// transition valida y guarda solo el estado.
func (s *Server) transition(ctx context.Context, actor citas.Actor, id int64, to citas.Estado) (int, string) {
	next, status, msg := s.checkTransition(ctx, actor, id, to)
	if status != 0 || next == "" {
		return status, msg
	}
	if _, err := s.repo.Update(ctx, colCitas, id, records.Record{"estado": string(next)}); err != nil {
		return http.StatusInternalServerError, "Error interno del servidor"
	}
	s.metrics.Transition(string(next), "ok")
	s.log.Info("cita transition", map[string]any{"cita_id": id, "to": string(next)})
	return 0, ""
}

func (s *Server) handleDeleteCita(w http.ResponseWriter, r *http.Request) {
	id, valid := idParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "ID inválido")
		return
	}
	err := s.repo.Delete(r.Context(), colCitas, id)
	if errors.Is(err, records.ErrNotFound) {
		fail(w, http.StatusNotFound, msgCitaNoEncontrada)
		return
	}
	if err != nil {
		s.internalError(w, "delete_cita", err)
		return
	}
	ok(w, http.StatusOK, nil, "Cita eliminada exitosamente")
}
