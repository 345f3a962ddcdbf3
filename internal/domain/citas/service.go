package citas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eps-citas/internal/domain/resource"
	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/platform/logger"
)

const MsgAccionNoPermitida = "Acción no permitida para el estado actual"

type Service struct {
	doer resource.Doer
	crud *resource.Service[Cita]
	log  logger.Logger
	now  func() time.Time
}

func NewService(doer resource.Doer, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		doer: doer,
		crud: resource.New[Cita](doer, "citas", resource.WithLabel("cita"), resource.WithLogger(log)),
		log:  log.With(map[string]any{"component": "citas"}),
		now:  time.Now,
	}
}

// Resource expone el CRUD genérico (lo usa la pantalla de administración).
func (s *Service) Resource() *resource.Service[Cita] { return s.crud }

type CreateInput struct {
	PacienteID     int64
	MedicoID       int64
	EspecialidadID int64
	ConsultorioID  *int64
	Fecha          string
	Hora           string
	Motivo         string
	Observaciones  string
}

// payload es lo que se envía al backend: hora ya canónica y estado inicial forzado.
type payload struct {
	PacienteID     int64  `json:"paciente_id,omitempty"`
	MedicoID       int64  `json:"medico_id"`
	EspecialidadID int64  `json:"especialidad_id"`
	ConsultorioID  *int64 `json:"consultorio_id,omitempty"`
	Fecha          string `json:"fecha"`
	Hora           string `json:"hora"`
	Motivo         string `json:"motivo"`
	Observaciones  string `json:"observaciones,omitempty"`
	Estado         Estado `json:"estado"`
}

// Validate revisa campos requeridos y normaliza fecha/hora. requirePaciente=false
// cuando el backend deduce el paciente del token (agendar-cita).
func (in CreateInput) Validate(requirePaciente bool) (payload, error) {
	switch {
	case requirePaciente && in.PacienteID <= 0:
		return payload{}, fmt.Errorf("%w: Por favor selecciona un paciente", ErrInvalidInput)
	case in.MedicoID <= 0:
		return payload{}, fmt.Errorf("%w: Por favor selecciona un médico", ErrInvalidInput)
	case in.EspecialidadID <= 0:
		return payload{}, fmt.Errorf("%w: Por favor selecciona una especialidad", ErrInvalidInput)
	case strings.TrimSpace(in.Fecha) == "":
		return payload{}, fmt.Errorf("%w: Por favor ingresa la fecha", ErrInvalidInput)
	case strings.TrimSpace(in.Hora) == "":
		return payload{}, fmt.Errorf("%w: Por favor ingresa la hora", ErrInvalidInput)
	case strings.TrimSpace(in.Motivo) == "":
		return payload{}, fmt.Errorf("%w: Por favor ingresa el motivo de la consulta", ErrInvalidInput)
	}

	fecha, err := time.Parse(fechaLayout, strings.TrimSpace(in.Fecha))
	if err != nil {
		return payload{}, fmt.Errorf("%w: La fecha debe estar en formato YYYY-MM-DD", ErrInvalidInput)
	}
	hora, err := ParseHora(in.Hora)
	if err != nil {
		return payload{}, fmt.Errorf("%w: La hora debe estar en formato HH:MM o HH:MM:SS", ErrInvalidInput)
	}

	return payload{
		PacienteID:     in.PacienteID,
		MedicoID:       in.MedicoID,
		EspecialidadID: in.EspecialidadID,
		ConsultorioID:  in.ConsultorioID,
		Fecha:          FechaOf(fecha).String(),
		Hora:           hora.String(),
		Motivo:         strings.TrimSpace(in.Motivo),
		Observaciones:  strings.TrimSpace(in.Observaciones),
		Estado:         EstadoProgramada,
	}, nil
}

// validationMessage saca el texto para el usuario de un ErrInvalidInput envuelto.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func (s *Service) GetAll(ctx context.Context) resource.Result[[]Cita] {
	return s.crud.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) resource.Result[Cita] {
	return s.crud.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) resource.Result[Cita] {
	p, err := in.Validate(true)
	if err != nil {
		return resource.Fail[Cita](httpclient.KindValidation, validationMessage(err))
	}
	return s.crud.Create(ctx, p)
}

// Update edita una cita (admin). El estado no se toca por aquí: usar Transition.
func (s *Service) Update(ctx context.Context, id int64, in CreateInput) resource.Result[Cita] {
	p, err := in.Validate(true)
	if err != nil {
		return resource.Fail[Cita](httpclient.KindValidation, validationMessage(err))
	}
	body := map[string]any{
		"paciente_id":     p.PacienteID,
		"medico_id":       p.MedicoID,
		"especialidad_id": p.EspecialidadID,
		"fecha":           p.Fecha,
		"hora":            p.Hora,
		"motivo":          p.Motivo,
	}
	if p.ConsultorioID != nil {
		body["consultorio_id"] = *p.ConsultorioID
	}
	if p.Observaciones != "" {
		body["observaciones"] = p.Observaciones
	}
	return s.crud.Update(ctx, id, body)
}

func (s *Service) Delete(ctx context.Context, id int64) resource.Result[json.RawMessage] {
	return s.crud.Delete(ctx, id)
}

// Transition aplica una acción del ciclo de vida y luego recarga la lista del actor.
// Nunca modifica la cita localmente: el resultado es siempre lo que devuelve el backend.
// Si la actualización falla, el resultado lleva Success=false y el mensaje del fallo,
// con Data = la lista recargada (si la recarga funcionó).
func (s *Service) Transition(ctx context.Context, actor Actor, c Cita, a Action) resource.Result[[]Cita] {
	if a == ActionEditar || a == ActionEliminar || !Allowed(actor, c, a) {
		return resource.Fail[[]Cita](httpclient.KindValidation, MsgAccionNoPermitida)
	}
	next, err := Next(c.Estado, a)
	if err != nil {
		return resource.Fail[[]Cita](httpclient.KindValidation, MsgAccionNoPermitida)
	}

	upd := s.sendTransition(ctx, actor, c, next)
	if !upd.Success {
		s.log.Warn("cita transition failed", map[string]any{
			"cita_id": c.ID, "action": string(a), "kind": string(upd.Kind),
		})
	} else {
		s.log.Info("cita transition", map[string]any{
			"cita_id": c.ID, "from": string(c.Estado), "to": string(next),
		})
	}

	reload := s.ListFor(ctx, actor)
	if !upd.Success {
		reload.Success = false
		reload.Message = upd.Message
		reload.Kind = upd.Kind
		reload.Status = upd.Status
	}
	return reload
}

func (s *Service) sendTransition(ctx context.Context, actor Actor, c Cita, next Estado) resource.Result[json.RawMessage] {
	switch actor.Role {
	case navigation.RoleMedico:
		return s.ActualizarEstadoMedico(ctx, c.ID, next)
	case navigation.RolePaciente:
		return s.CancelarCitaPaciente(ctx, c.ID)
	default:
		r := s.crud.Update(ctx, c.ID, map[string]any{"estado": next})
		return resource.Map(r, func(Cita) json.RawMessage { return nil })
	}
}

// ListFor elige el listado según el rol.
func (s *Service) ListFor(ctx context.Context, actor Actor) resource.Result[[]Cita] {
	switch actor.Role {
	case navigation.RoleMedico:
		return s.MisCitasMedico(ctx)
	case navigation.RolePaciente:
		return s.MisCitasPaciente(ctx, actor.PacienteID)
	default:
		return s.GetAll(ctx)
	}
}

// --- endpoints de médico ---

func (s *Service) MisCitasMedico(ctx context.Context) resource.Result[[]Cita] {
	return list(resource.Call[[]Cita](ctx, s.doer, http.MethodGet, "/medico/mis-citas", nil, "Error al obtener mis citas"))
}

func (s *Service) MiAgendaMedico(ctx context.Context) resource.Result[[]Cita] {
	return list(resource.Call[[]Cita](ctx, s.doer, http.MethodGet, "/medico/mi-agenda", nil, "Error al obtener mi agenda"))
}

// MisPacientesMedico devuelve los pacientes con citas del médico, como JSON crudo
// (el shape lo decide el catálogo).
func (s *Service) MisPacientesMedico(ctx context.Context) resource.Result[json.RawMessage] {
	return resource.Call[json.RawMessage](ctx, s.doer, http.MethodGet, "/medico/mis-pacientes", nil, "Error al obtener mis pacientes")
}

func (s *Service) ActualizarEstadoMedico(ctx context.Context, id int64, estado Estado) resource.Result[json.RawMessage] {
	return resource.Call[json.RawMessage](ctx, s.doer, http.MethodPut,
		fmt.Sprintf("/medico/citas/%d/estado", id), map[string]any{"estado": estado},
		"Error al actualizar estado de cita")
}

func (s *Service) AgregarObservaciones(ctx context.Context, id int64, observaciones string) resource.Result[json.RawMessage] {
	observaciones = strings.TrimSpace(observaciones)
	if observaciones == "" {
		return resource.Fail[json.RawMessage](httpclient.KindValidation, "Por favor ingresa las observaciones")
	}
	return resource.Call[json.RawMessage](ctx, s.doer, http.MethodPut,
		fmt.Sprintf("/medico/citas/%d/observaciones", id), map[string]any{"observaciones": observaciones},
		"Error al agregar observaciones")
}

// --- endpoints de paciente ---

func (s *Service) MisCitasPaciente(ctx context.Context, pacienteID int64) resource.Result[[]Cita] {
	path := "/paciente/mis-citas"
	if pacienteID > 0 {
		path += "?" + url.Values{"paciente_id": {fmt.Sprint(pacienteID)}}.Encode()
	}
	return list(resource.Call[[]Cita](ctx, s.doer, http.MethodGet, path, nil, "Error al obtener mis citas"))
}

// AgendarCita crea una cita desde la cuenta del paciente.
func (s *Service) AgendarCita(ctx context.Context, in CreateInput) resource.Result[Cita] {
	p, err := in.Validate(false)
	if err != nil {
		return resource.Fail[Cita](httpclient.KindValidation, validationMessage(err))
	}
	return resource.Call[Cita](ctx, s.doer, http.MethodPost, "/paciente/agendar-cita", p, "Error al agendar cita")
}

func (s *Service) CancelarCitaPaciente(ctx context.Context, id int64) resource.Result[json.RawMessage] {
	return resource.Call[json.RawMessage](ctx, s.doer, http.MethodPut,
		fmt.Sprintf("/paciente/citas/%d/cancelar", id), nil, "Error al cancelar cita")
}

// ProximaCita: Data nil si no hay próxima cita.
func (s *Service) ProximaCita(ctx context.Context, pacienteID int64) resource.Result[*Cita] {
	path := "/paciente/proxima-cita"
	if pacienteID > 0 {
		path += "?" + url.Values{"paciente_id": {fmt.Sprint(pacienteID)}}.Encode()
	}
	raw := resource.Call[json.RawMessage](ctx, s.doer, http.MethodGet, path, nil, "Error al obtener próxima cita")
	if !raw.Success {
		return resource.Result[*Cita]{Message: raw.Message, Kind: raw.Kind, Status: raw.Status}
	}

	// data:null llega como el envelope completo.
	var probe map[string]json.RawMessage
	if len(raw.Data) == 0 || string(raw.Data) == "null" ||
		(json.Unmarshal(raw.Data, &probe) == nil && probe["success"] != nil) {
		return resource.Result[*Cita]{Success: true, Status: raw.Status}
	}

	var c Cita
	if err := json.Unmarshal(raw.Data, &c); err != nil {
		return resource.Fail[*Cita](httpclient.KindDecode, resource.MsgDecode)
	}
	return resource.Result[*Cita]{Success: true, Data: &c, Status: raw.Status}
}

func (s *Service) HistorialPaciente(ctx context.Context, pacienteID int64) resource.Result[[]Cita] {
	path := "/paciente/mi-historial"
	if pacienteID > 0 {
		path += "?" + url.Values{"paciente_id": {fmt.Sprint(pacienteID)}}.Encode()
	}
	return list(resource.Call[[]Cita](ctx, s.doer, http.MethodGet, path, nil, "Error al obtener mi historial"))
}

func (s *Service) MedicosDisponibles(ctx context.Context) resource.Result[json.RawMessage] {
	return resource.Call[json.RawMessage](ctx, s.doer, http.MethodGet, "/paciente/medicos-disponibles", nil, "Error al obtener médicos disponibles")
}

// Hoy filtra las citas con fecha = hoy (reloj inyectable).
func (s *Service) Hoy(items []Cita) []Cita {
	today := FechaOf(s.now())
	out := make([]Cita, 0)
	for _, c := range items {
		if c.Fecha.Equal(today) {
			out = append(out, c)
		}
	}
	return out
}

func list(r resource.Result[[]Cita]) resource.Result[[]Cita] {
	if r.Success && r.Data == nil {
		r.Data = []Cita{}
	}
	return r
}
