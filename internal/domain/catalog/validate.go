package catalog

import (
	"errors"
	"net/mail"
	"strings"
)

var ErrInvalidInput = errors.New("invalid input")

// ValidationError lleva el mensaje que se le muestra al usuario.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Validatable lo implementan las entidades que se envían desde formularios.
type Validatable interface {
	Validate(create bool) error
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func checkPersona(nombre, apellido, email, telefono string) error {
	switch {
	case blank(nombre):
		return invalid("nombre", "El nombre es obligatorio")
	case blank(apellido):
		return invalid("apellido", "El apellido es obligatorio")
	case blank(email):
		return invalid("email", "El email es obligatorio")
	case blank(telefono):
		return invalid("telefono", "El teléfono es obligatorio")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return invalid("email", "El formato del email no es válido")
	}
	return nil
}

// checkPassword: obligatoria al crear; al editar solo si viene.
func checkPassword(pw string, create bool) error {
	if create && blank(pw) {
		return invalid("password", "La contraseña es obligatoria")
	}
	if !blank(pw) && len(strings.TrimSpace(pw)) < 6 {
		return invalid("password", "La contraseña debe tener al menos 6 caracteres")
	}
	return nil
}

func (p Paciente) Validate(create bool) error {
	if err := checkPersona(p.Nombre, p.Apellido, p.Email, p.Telefono); err != nil {
		return err
	}
	if err := checkPassword(p.Password, create); err != nil {
		return err
	}
	if !create {
		return nil
	}
	switch {
	case blank(p.FechaNacimiento):
		return invalid("fecha_nacimiento", "La fecha de nacimiento es obligatoria")
	case blank(p.TipoDocumento):
		return invalid("tipo_documento", "El tipo de documento es obligatorio")
	case blank(p.NumeroDocumento):
		return invalid("numero_documento", "El número de documento es obligatorio")
	case blank(p.Direccion):
		return invalid("direccion", "La dirección es obligatoria")
	}
	return nil
}

func (m Medico) Validate(create bool) error {
	if err := checkPersona(m.Nombre, m.Apellido, m.Email, m.Telefono); err != nil {
		return err
	}
	if err := checkPassword(m.Password, create); err != nil {
		return err
	}
	if blank(m.NumeroLicencia) {
		return invalid("numero_licencia", "El número de licencia es obligatorio")
	}
	if m.EspecialidadID <= 0 {
		return invalid("especialidad_id", "Debe seleccionar una especialidad")
	}
	return nil
}

func (a Administrador) Validate(create bool) error {
	if err := checkPersona(a.Nombre, a.Apellido, a.Email, a.Telefono); err != nil {
		return err
	}
	return checkPassword(a.Password, create)
}

func (e Especialidad) Validate(bool) error {
	if blank(e.Nombre) {
		return invalid("nombre", "El nombre es obligatorio")
	}
	return nil
}

func (c Consultorio) Validate(bool) error {
	switch {
	case blank(c.Nombre):
		return invalid("nombre", "El nombre es obligatorio")
	case blank(c.Ubicacion):
		return invalid("ubicacion", "La ubicación es obligatoria")
	case blank(c.Telefono):
		return invalid("telefono", "El teléfono es obligatorio")
	}
	return nil
}

func (e EPS) Validate(bool) error {
	if blank(e.Nombre) {
		return invalid("nombre", "El nombre es obligatorio")
	}
	if !blank(e.Email) {
		if _, err := mail.ParseAddress(strings.TrimSpace(e.Email)); err != nil {
			return invalid("email", "El formato del email no es válido")
		}
	}
	return nil
}
