package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Flag es un booleano que el backend a veces manda como 0/1.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(strings.TrimSpace(string(b)), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "null", "":
		*f = false
	default:
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("activo: %w", err)
		}
		*f = Flag(v)
	}
	return nil
}

type Paciente struct {
	ID              int64  `json:"id,omitempty"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	Email           string `json:"email"`
	Password        string `json:"password,omitempty"`
	Telefono        string `json:"telefono"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	TipoDocumento   string `json:"tipo_documento,omitempty"`
	NumeroDocumento string `json:"numero_documento,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
	EPSID           *int64 `json:"eps_id,omitempty"`
	Activo          *Flag  `json:"activo,omitempty"`
}

type Medico struct {
	ID                 int64  `json:"id,omitempty"`
	Nombre             string `json:"nombre"`
	Apellido           string `json:"apellido"`
	Email              string `json:"email"`
	Password           string `json:"password,omitempty"`
	Telefono           string `json:"telefono"`
	NumeroLicencia     string `json:"numero_licencia"`
	EspecialidadID     int64  `json:"especialidad_id"`
	EspecialidadNombre string `json:"especialidad_nombre,omitempty"`
	Activo             *Flag  `json:"activo,omitempty"`
}

type Especialidad struct {
	ID          int64  `json:"id,omitempty"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

type Consultorio struct {
	ID          int64  `json:"id,omitempty"`
	Nombre      string `json:"nombre"`
	Ubicacion   string `json:"ubicacion"`
	Telefono    string `json:"telefono"`
	Numero      string `json:"numero,omitempty"`
	Piso        string `json:"piso,omitempty"`
	Edificio    string `json:"edificio,omitempty"`
	Descripcion string `json:"descripcion,omitempty"`
}

type EPS struct {
	ID        int64  `json:"id,omitempty"`
	Nombre    string `json:"nombre"`
	NIT       string `json:"nit,omitempty"`
	Direccion string `json:"direccion,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
	Email     string `json:"email,omitempty"`
}

type Administrador struct {
	ID       int64  `json:"id,omitempty"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Telefono string `json:"telefono"`
	Activo   *Flag  `json:"activo,omitempty"`
}

// IsActivo: sin flag explícito se asume activo.
func (p Paciente) IsActivo() bool      { return p.Activo == nil || bool(*p.Activo) }
func (m Medico) IsActivo() bool        { return m.Activo == nil || bool(*m.Activo) }
func (a Administrador) IsActivo() bool { return a.Activo == nil || bool(*a.Activo) }

func Bool(b bool) *Flag {
	f := Flag(b)
	return &f
}

// SampleEPS son los datos de ejemplo que se muestran SOLO en modo demo.
func SampleEPS() []EPS {
	return []EPS{
		{ID: 1, Nombre: "EPS Sura", NIT: "890123456-1", Direccion: "Calle 123 #45-67", Telefono: "6012345678", Email: "contacto@epssura.com"},
		{ID: 2, Nombre: "EPS Sanitas", NIT: "890123456-2", Direccion: "Carrera 78 #90-12", Telefono: "6012345679", Email: "contacto@epssanitas.com"},
		{ID: 3, Nombre: "EPS Coomeva", NIT: "890123456-3", Direccion: "Avenida 34 #56-78", Telefono: "6012345680", Email: "contacto@epscoomeva.com"},
		{ID: 4, Nombre: "EPS Compensar", NIT: "890123456-4", Direccion: "Calle 90 #12-34", Telefono: "6012345681", Email: "contacto@epscompensar.com"},
	}
}
