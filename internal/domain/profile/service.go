package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/ports/auth"
)

// UserStore es la parte de la sesión que el perfil necesita actualizar.
type UserStore interface {
	UpdateUser(ctx context.Context, fn func(*auth.User)) error
}

type Service struct {
	doer  resource.Doer
	users UserStore
}

// NewService: users puede ser nil (no se refresca la sesión local).
func NewService(doer resource.Doer, users UserStore) *Service {
	return &Service{doer: doer, users: users}
}

type UpdateInput struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido,omitempty"`
	Email    string `json:"email"`
	Telefono string `json:"telefono,omitempty"`
}

// UpdateProfile guarda el perfil en el backend y, si salió bien, en la sesión local.
// Si el backend falla no se toca nada local.
func (s *Service) UpdateProfile(ctx context.Context, in UpdateInput) resource.Result[json.RawMessage] {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Apellido = strings.TrimSpace(in.Apellido)
	in.Email = strings.TrimSpace(in.Email)
	in.Telefono = strings.TrimSpace(in.Telefono)
	if in.Nombre == "" || in.Email == "" {
		return resource.Fail[json.RawMessage](httpclient.KindValidation, "Nombre y email son obligatorios")
	}

	res := resource.Call[json.RawMessage](ctx, s.doer, http.MethodPut, "/profile/update", in, "Error al actualizar perfil")
	if !res.Success || s.users == nil {
		return res
	}
	_ = s.users.UpdateUser(ctx, func(u *auth.User) {
		u.Nombre = in.Nombre
		u.Email = in.Email
		if in.Apellido != "" {
			u.Apellido = in.Apellido
		}
		if in.Telefono != "" {
			u.Telefono = in.Telefono
		}
	})
	return res
}

type changePasswordBody struct {
	Email           string          `json:"email"`
	CurrentPassword string          `json:"currentPassword"`
	NewPassword     string          `json:"newPassword"`
	UserID          int64           `json:"user_id"`
	UserType        navigation.Role `json:"user_type"`
}

// ChangePassword valida localmente (todo requerido, confirmación igual, mínimo 6)
// antes de enviar.
func (s *Service) ChangePassword(ctx context.Context, user auth.User, current, next, confirm string) resource.Result[json.RawMessage] {
	switch {
	case current == "" || next == "" || confirm == "":
		return resource.Fail[json.RawMessage](httpclient.KindValidation, "Todos los campos son obligatorios")
	case next != confirm:
		return resource.Fail[json.RawMessage](httpclient.KindValidation, "Las contraseñas nuevas no coinciden")
	case len(next) < 6:
		return resource.Fail[json.RawMessage](httpclient.KindValidation, "La nueva contraseña debe tener al menos 6 caracteres")
	}

	tipo := user.Tipo
	if tipo == "" {
		tipo = navigation.RolePaciente
	}
	body := changePasswordBody{
		Email:           user.Email,
		CurrentPassword: current,
		NewPassword:     next,
		UserID:          user.ID,
		UserType:        tipo,
	}
	res := resource.Call[json.RawMessage](ctx, s.doer, http.MethodPut, "/profile/change-password", body, "Error al cambiar contraseña")
	if !res.Success && res.Status == http.StatusUnauthorized {
		res.Message = "La contraseña actual es incorrecta"
	}
	return res
}

// RegisterPaciente crea la cuenta de un paciente desde la pantalla pública de registro.
func (s *Service) RegisterPaciente(ctx context.Context, p catalog.Paciente) resource.Result[catalog.Paciente] {
	if err := p.Validate(true); err != nil {
		return resource.Fail[catalog.Paciente](httpclient.KindValidation, err.Error())
	}
	p.Activo = catalog.Bool(true)
	p.ID = 0
	return resource.Call[catalog.Paciente](ctx, s.doer, http.MethodPost, "/register/paciente", p, "Error al registrar paciente")
}
