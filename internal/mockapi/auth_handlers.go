package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"eps-citas/internal/middleware"
	"eps-citas/internal/navigation"
	"eps-citas/internal/ports/auth"
	"eps-citas/internal/ports/records"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgCredenciales    = "Credenciales inválidas"
	msgEmailTomado     = "El email ya está registrado"
	msgUsuarioInactivo = "Usuario inactivo"
)

var userRoles = []navigation.Role{navigation.RoleAdmin, navigation.RoleMedico, navigation.RolePaciente}

func usersCollection(role navigation.Role) string {
	switch role {
	case navigation.RoleAdmin:
		return colAdministradores
	case navigation.RoleMedico:
		return colMedicos
	default:
		return colPacientes
	}
}

// findUser busca por email, primero en la tabla del rol pedido y luego en las demás.
// El rol que vale es el de la tabla donde está la cuenta.
func (s *Server) findUser(ctx context.Context, email string, hint navigation.Role) (records.Record, navigation.Role, error) {
	order := []navigation.Role{hint}
	for _, r := range userRoles {
		if r != hint {
			order = append(order, r)
		}
	}
	for _, role := range order {
		rec, err := s.findByEmail(ctx, usersCollection(role), email)
		if err == nil {
			return rec, role, nil
		}
		if !errors.Is(err, records.ErrNotFound) {
			return nil, "", err
		}
	}
	return nil, "", records.ErrNotFound
}

func (s *Server) findByEmail(ctx context.Context, col, email string) (records.Record, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	items, err := s.repo.List(ctx, col)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if strings.ToLower(strings.TrimSpace(it.String("email"))) == email {
			return it, nil
		}
	}
	return nil, records.ErrNotFound
}

// emailTaken revisa las tres tablas de usuarios; exceptID permite editar el propio.
func (s *Server) emailTaken(ctx context.Context, email, exceptCol string, exceptID int64) (bool, error) {
	for _, role := range userRoles {
		col := usersCollection(role)
		rec, err := s.findByEmail(ctx, col, email)
		if errors.Is(err, records.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}
		if col == exceptCol && rec.ID() == exceptID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s *Server) hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func activo(rec records.Record) bool {
	switch v := rec["activo"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}

func userOf(rec records.Record, role navigation.Role) auth.User {
	var u auth.User
	_ = convert(public(rec), &u)
	u.Tipo = role
	return u
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Tipo     string `json:"tipo"`
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credenciales"
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Router /login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		fail(w, http.StatusUnprocessableEntity, "Email y contraseña son obligatorios")
		return
	}
	hint := navigation.ParseRole(req.Tipo)
	if hint == "" {
		hint = navigation.RolePaciente
	}

	rec, role, err := s.findUser(r.Context(), req.Email, hint)
	if err != nil && !errors.Is(err, records.ErrNotFound) {
		s.internalError(w, "login", err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(rec.String("password")), []byte(req.Password)) != nil {
		s.metrics.Login(string(hint), "failure")
		fail(w, http.StatusUnauthorized, msgCredenciales)
		return
	}
	if !activo(rec) {
		s.metrics.Login(string(role), "inactive")
		fail(w, http.StatusForbidden, msgUsuarioInactivo)
		return
	}

	user := userOf(rec, role)
	token, err := s.tokens.Issue(auth.Claims{UserID: user.ID, Email: user.Email, Role: role})
	if err != nil {
		s.internalError(w, "login", err)
		return
	}

	s.metrics.Login(string(role), "success")
	s.log.Info("login", map[string]any{"user_id": user.ID, "tipo": string(role)})
	ok(w, http.StatusOK, map[string]any{"user": user, "token": token, "tipo": role}, "Login exitoso")
}

// @Summary Registro público de pacientes
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} envelope
// @Failure 409 {object} envelope
// @Failure 422 {object} envelope
// @Router /register/paciente [post]
func (s *Server) handleRegisterPaciente(w http.ResponseWriter, r *http.Request) {
	body := records.Record{}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	body["activo"] = true
	rec, status, msg := s.createInCollection(r.Context(), pacientesSpec(), body)
	if status != 0 {
		fail(w, status, msg)
		return
	}
	ok(w, http.StatusCreated, rec, "Paciente registrado exitosamente")
}

type profileRequest struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
}

// @Summary Actualiza el perfil del usuario autenticado
// @Tags perfil
// @Security BearerAuth
// @Router /profile/update [put]
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	req.Email = strings.TrimSpace(req.Email)
	if req.Nombre == "" || req.Email == "" {
		fail(w, http.StatusUnprocessableEntity, "Nombre y email son obligatorios")
		return
	}

	col := usersCollection(claims.Role)
	taken, err := s.emailTaken(r.Context(), req.Email, col, claims.UserID)
	if err != nil {
		s.internalError(w, "profile_update", err)
		return
	}
	if taken {
		fail(w, http.StatusConflict, msgEmailTomado)
		return
	}

	patch := records.Record{"nombre": req.Nombre, "email": req.Email}
	if v := strings.TrimSpace(req.Apellido); v != "" {
		patch["apellido"] = v
	}
	if v := strings.TrimSpace(req.Telefono); v != "" {
		patch["telefono"] = v
	}
	rec, err := s.repo.Update(r.Context(), col, claims.UserID, patch)
	if errors.Is(err, records.ErrNotFound) {
		fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if err != nil {
		s.internalError(w, "profile_update", err)
		return
	}
	ok(w, http.StatusOK, userOf(rec, claims.Role), "Perfil actualizado exitosamente")
}

type changePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	UserID          int64  `json:"user_id"`
	UserType        string `json:"user_type"`
}

// @Summary Cambia la contraseña del usuario autenticado
// @Tags perfil
// @Security BearerAuth
// @Router /profile/change-password [put]
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if req.UserID != 0 && req.UserID != claims.UserID {
		fail(w, http.StatusForbidden, middleware.MsgSinPermiso)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		fail(w, http.StatusUnprocessableEntity, "Todos los campos son obligatorios")
		return
	}
	if len(req.NewPassword) < 6 {
		fail(w, http.StatusUnprocessableEntity, "La nueva contraseña debe tener al menos 6 caracteres")
		return
	}

	col := usersCollection(claims.Role)
	rec, err := s.repo.Get(r.Context(), col, claims.UserID)
	if errors.Is(err, records.ErrNotFound) {
		fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if err != nil {
		s.internalError(w, "change_password", err)
		return
	}
	// 422: un 401 cierra la sesión del cliente.
	if bcrypt.CompareHashAndPassword([]byte(rec.String("password")), []byte(req.CurrentPassword)) != nil {
		fail(w, http.StatusUnprocessableEntity, "La contraseña actual es incorrecta")
		return
	}

	hashed, err := s.hash(req.NewPassword)
	if err != nil {
		s.internalError(w, "change_password", err)
		return
	}
	if _, err := s.repo.Update(r.Context(), col, claims.UserID, records.Record{"password": hashed}); err != nil {
		s.internalError(w, "change_password", err)
		return
	}
	ok(w, http.StatusOK, nil, "Contraseña actualizada exitosamente")
}
