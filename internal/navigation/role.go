package navigation

import "strings"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMedico   Role = "medico"
	RolePaciente Role = "paciente"
)

// ParseRole normaliza el tipo que manda el backend. Desconocido => "".
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleMedico, RolePaciente:
		return r
	case "administrador":
		return RoleAdmin
	}
	return ""
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMedico || r == RolePaciente
}
