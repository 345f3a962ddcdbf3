package citas

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Estado string

const (
	EstadoProgramada Estado = "programada"
	EstadoConfirmada Estado = "confirmada"
	EstadoCompletada Estado = "completada"
	EstadoCancelada  Estado = "cancelada"
)

func (e Estado) Valid() bool {
	switch e {
	case EstadoProgramada, EstadoConfirmada, EstadoCompletada, EstadoCancelada:
		return true
	}
	return false
}

// Terminal: completada y cancelada no admiten más transiciones.
func (e Estado) Terminal() bool {
	return e == EstadoCompletada || e == EstadoCancelada
}

func ParseEstado(s string) (Estado, error) {
	e := Estado(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", fmt.Errorf("%w: estado %q", ErrInvalidInput, s)
	}
	return e, nil
}

const fechaLayout = "2006-01-02"

// Fecha es una fecha de calendario (sin hora ni zona). Zero = sin fecha.
type Fecha struct {
	t time.Time
}

func NewFecha(year int, month time.Month, day int) Fecha {
	return Fecha{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func FechaOf(t time.Time) Fecha {
	return NewFecha(t.Year(), t.Month(), t.Day())
}

// ParseFecha acepta YYYY-MM-DD o un timestamp RFC3339 (se queda con la fecha).
func ParseFecha(s string) (Fecha, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(fechaLayout, s); err == nil {
		return FechaOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FechaOf(t), nil
	}
	if len(s) > len(fechaLayout) {
		if t, err := time.Parse(fechaLayout, s[:len(fechaLayout)]); err == nil {
			return FechaOf(t), nil
		}
	}
	return Fecha{}, fmt.Errorf("%w: fecha %q", ErrInvalidInput, s)
}

func (f Fecha) IsZero() bool        { return f.t.IsZero() }
func (f Fecha) Time() time.Time     { return f.t }
func (f Fecha) Equal(o Fecha) bool  { return f.t.Equal(o.t) }
func (f Fecha) Before(o Fecha) bool { return f.t.Before(o.t) }

func (f Fecha) String() string {
	if f.IsZero() {
		return ""
	}
	return f.t.Format(fechaLayout)
}

// Display: DD/MM/YYYY.
func (f Fecha) Display() string {
	if f.IsZero() {
		return ""
	}
	return f.t.Format("02/01/2006")
}

func (f Fecha) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.String())
}

func (f *Fecha) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*f = Fecha{}
		return nil
	}
	p, err := ParseFecha(*s)
	if err != nil {
		return err
	}
	*f = p
	return nil
}

// Hora es una hora del día, canónica HH:MM:SS. Se valida una sola vez al entrar.
type Hora struct {
	sec int
	set bool
}

func NewHora(h, m, s int) (Hora, error) {
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return Hora{}, fmt.Errorf("%w: hora %02d:%02d:%02d", ErrInvalidInput, h, m, s)
	}
	return Hora{sec: h*3600 + m*60 + s, set: true}, nil
}

// ParseHora acepta HH:MM o HH:MM:SS.
func ParseHora(s string) (Hora, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Hora{}, fmt.Errorf("%w: hora %q", ErrInvalidInput, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 {
			return Hora{}, fmt.Errorf("%w: hora %q", ErrInvalidInput, s)
		}
		n := 0
		for _, c := range p {
			if c < '0' || c > '9' {
				return Hora{}, fmt.Errorf("%w: hora %q", ErrInvalidInput, s)
			}
			n = n*10 + int(c-'0')
		}
		nums[i] = n
	}
	h, err := NewHora(nums[0], nums[1], nums[2])
	if err != nil {
		return Hora{}, fmt.Errorf("%w: hora %q", ErrInvalidInput, s)
	}
	return h, nil
}

func (h Hora) IsZero() bool { return !h.set }

func (h Hora) Clock() (hour, min, sec int) {
	return h.sec / 3600, (h.sec % 3600) / 60, h.sec % 60
}

func (h Hora) String() string {
	if !h.set {
		return ""
	}
	hh, mm, ss := h.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}

// Display: HH:MM.
func (h Hora) Display() string {
	if !h.set {
		return ""
	}
	hh, mm, _ := h.Clock()
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

func (h Hora) MarshalJSON() ([]byte, error) {
	if !h.set {
		return []byte("null"), nil
	}
	return json.Marshal(h.String())
}

func (h *Hora) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*h = Hora{}
		return nil
	}
	p, err := ParseHora(*s)
	if err != nil {
		return err
	}
	*h = p
	return nil
}

type Cita struct {
	ID             int64  `json:"id"`
	PacienteID     int64  `json:"paciente_id"`
	MedicoID       int64  `json:"medico_id"`
	EspecialidadID int64  `json:"especialidad_id,omitempty"`
	ConsultorioID  *int64 `json:"consultorio_id,omitempty"`
	Fecha          Fecha  `json:"fecha"`
	Hora           Hora   `json:"hora"`
	Motivo         string `json:"motivo"`
	Observaciones  string `json:"observaciones,omitempty"`
	Estado         Estado `json:"estado"`

	// Campos de display que el backend agrega en los listados.
	PacienteNombre     string `json:"paciente_nombre,omitempty"`
	PacienteApellido   string `json:"paciente_apellido,omitempty"`
	PacienteTelefono   string `json:"paciente_telefono,omitempty"`
	MedicoNombre       string `json:"medico_nombre,omitempty"`
	MedicoApellido     string `json:"medico_apellido,omitempty"`
	EspecialidadNombre string `json:"especialidad_nombre,omitempty"`
	ConsultorioNombre  string `json:"consultorio_nombre,omitempty"`
}

// UnmarshalJSON acepta también el campo viejo motivo_consulta.
func (c *Cita) UnmarshalJSON(b []byte) error {
	type alias Cita
	aux := struct {
		*alias
		MotivoConsulta string `json:"motivo_consulta"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if strings.TrimSpace(c.Motivo) == "" {
		c.Motivo = aux.MotivoConsulta
	}
	return nil
}

func (c Cita) PacienteDisplay() string {
	return strings.TrimSpace(c.PacienteNombre + " " + c.PacienteApellido)
}

func (c Cita) MedicoDisplay() string {
	return strings.TrimSpace(c.MedicoNombre + " " + c.MedicoApellido)
}

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
)
