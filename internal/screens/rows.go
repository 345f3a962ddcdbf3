package screens

import (
	"strconv"

	"eps-citas/internal/domain/citas"
	"eps-citas/internal/navigation"
	"eps-citas/internal/session"
)

// Row es una cita lista para mostrar, con los controles que el actor puede usar.
type Row struct {
	ID           int64
	Fecha        string
	Hora         string
	Paciente     string
	Medico       string
	Especialidad string
	Consultorio  string
	Motivo       string
	Estado       citas.Estado
	Actions      []citas.Action
}

func (r Row) Can(a citas.Action) bool {
	for _, x := range r.Actions {
		if x == a {
			return true
		}
	}
	return false
}

func CitaRow(actor citas.Actor, c citas.Cita) Row {
	r := Row{
		ID:           c.ID,
		Fecha:        c.Fecha.Display(),
		Hora:         c.Hora.Display(),
		Paciente:     c.PacienteDisplay(),
		Medico:       c.MedicoDisplay(),
		Especialidad: c.EspecialidadNombre,
		Consultorio:  c.ConsultorioNombre,
		Motivo:       c.Motivo,
		Estado:       c.Estado,
		Actions:      citas.AllowedActions(actor, c),
	}
	if r.Paciente == "" && c.PacienteID != 0 {
		r.Paciente = "#" + strconv.FormatInt(c.PacienteID, 10)
	}
	if r.Medico == "" && c.MedicoID != 0 {
		r.Medico = "#" + strconv.FormatInt(c.MedicoID, 10)
	}
	return r
}

func CitaRows(actor citas.Actor, items []citas.Cita) []Row {
	out := make([]Row, 0, len(items))
	for _, c := range items {
		out = append(out, CitaRow(actor, c))
	}
	return out
}

// ActorFor arma el actor a partir de la sesión: el id del usuario es su id de
// paciente o de médico según el rol.
func ActorFor(s session.Snapshot) citas.Actor {
	a := citas.Actor{Role: s.Role}
	if s.User == nil {
		return a
	}
	switch s.Role {
	case navigation.RolePaciente:
		a.PacienteID = s.User.ID
	case navigation.RoleMedico:
		a.MedicoID = s.User.ID
	}
	return a
}
