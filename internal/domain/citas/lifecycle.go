package citas

import (
	"fmt"

	"eps-citas/internal/navigation"
)

type Action string

const (
	ActionConfirmar Action = "confirmar"
	ActionCompletar Action = "completar"
	ActionCancelar  Action = "cancelar"
	ActionEditar    Action = "editar"
	ActionEliminar  Action = "eliminar"
)

// Actor es quien pide la acción. PacienteID/MedicoID = 0 si no aplica o no se conoce.
type Actor struct {
	Role       navigation.Role
	PacienteID int64
	MedicoID   int64
}

// AllowedActions es la única fuente de verdad sobre qué controles mostrar
// para una cita, y lo que Service.Transition valida antes de enviar.
func AllowedActions(actor Actor, c Cita) []Action {
	if c.Estado.Terminal() || !c.Estado.Valid() {
		return nil
	}

	var out []Action
	switch actor.Role {
	case navigation.RoleAdmin:
		if c.Estado == EstadoProgramada {
			out = append(out, ActionConfirmar)
		}
		if c.Estado == EstadoConfirmada {
			out = append(out, ActionCompletar)
		}
		out = append(out, ActionCancelar, ActionEditar, ActionEliminar)

	case navigation.RoleMedico:
		if actor.MedicoID != 0 && c.MedicoID != 0 && actor.MedicoID != c.MedicoID {
			return nil
		}
		if c.Estado == EstadoProgramada {
			out = append(out, ActionConfirmar)
		}
		if c.Estado == EstadoConfirmada {
			out = append(out, ActionCompletar)
		}
		out = append(out, ActionCancelar)

	case navigation.RolePaciente:
		if actor.PacienteID == 0 || actor.PacienteID != c.PacienteID {
			return nil
		}
		if c.Estado == EstadoProgramada {
			out = append(out, ActionCancelar)
		}
	}
	return out
}

func Allowed(actor Actor, c Cita, a Action) bool {
	for _, x := range AllowedActions(actor, c) {
		if x == a {
			return true
		}
	}
	return false
}

// Next devuelve el estado al que lleva la acción, sin mirar roles.
// editar y eliminar no cambian el estado.
func Next(from Estado, a Action) (Estado, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: estado %q", ErrInvalidInput, from)
	}
	if from.Terminal() {
		return "", fmt.Errorf("%w: %s desde %s", ErrTransitionNotAllowed, a, from)
	}
	switch a {
	case ActionConfirmar:
		if from == EstadoProgramada {
			return EstadoConfirmada, nil
		}
	case ActionCompletar:
		if from == EstadoConfirmada {
			return EstadoCompletada, nil
		}
	case ActionCancelar:
		return EstadoCancelada, nil
	case ActionEditar, ActionEliminar:
		return from, nil
	}
	return "", fmt.Errorf("%w: %s desde %s", ErrTransitionNotAllowed, a, from)
}

// NextEstado valida un cambio directo de estado (from -> to), como lo recibe el backend.
func NextEstado(from, to Estado) error {
	if from == to && !from.Terminal() {
		return nil
	}
	for _, a := range []Action{ActionConfirmar, ActionCompletar, ActionCancelar} {
		if next, err := Next(from, a); err == nil && next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
}
