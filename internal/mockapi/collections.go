package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/middleware"
	"eps-citas/internal/navigation"
	"eps-citas/internal/ports/records"

	"github.com/go-chi/chi/v5"
)

// collectionSpec describe una colección de referencia: cómo validarla y cómo nombrarla
// en los mensajes.
type collectionSpec struct {
	name     string
	label    string
	feminine bool
	// role != "" para las tablas de usuarios (password con bcrypt, email único).
	role     navigation.Role
	validate func(rec records.Record, create bool) error
}

func validateAs[T catalog.Validatable](rec records.Record, create bool) error {
	var v T
	if err := convert(rec, &v); err != nil {
		return errBadBody
	}
	return v.Validate(create)
}

func pacientesSpec() collectionSpec {
	return collectionSpec{name: colPacientes, label: "Paciente", role: navigation.RolePaciente, validate: validateAs[catalog.Paciente]}
}

var catalogCollections = []collectionSpec{
	pacientesSpec(),
	{name: colMedicos, label: "Médico", role: navigation.RoleMedico, validate: validateAs[catalog.Medico]},
	{name: colAdministradores, label: "Administrador", role: navigation.RoleAdmin, validate: validateAs[catalog.Administrador]},
	{name: colEspecialidades, label: "Especialidad", feminine: true, validate: validateAs[catalog.Especialidad]},
	{name: colConsultorios, label: "Consultorio", validate: validateAs[catalog.Consultorio]},
	{name: colEPS, label: "EPS", feminine: true, validate: validateAs[catalog.EPS]},
}

func (c collectionSpec) msg(participle string) string {
	if c.feminine {
		return c.label + " " + participle + "a"
	}
	return c.label + " " + participle + "o"
}

func validationFailure(err error) (int, string) {
	if errors.Is(err, errBadBody) {
		return http.StatusBadRequest, "JSON inválido"
	}
	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Message
	}
	return http.StatusUnprocessableEntity, err.Error()
}

// mountCollection: lectura para cualquier usuario autenticado, escritura solo admin.
func (s *Server) mountCollection(r chi.Router, spec collectionSpec) {
	r.Route("/"+spec.name, func(cr chi.Router) {
		cr.Get("/", s.listHandler(spec.name))
		cr.Get("/{id}", s.getHandler(spec))

		cr.Group(func(wr chi.Router) {
			wr.Use(middleware.RequireRole(navigation.RoleAdmin))
			wr.Post("/", s.createHandler(spec))
			wr.Put("/{id}", s.updateHandler(spec))
			wr.Delete("/{id}", s.deleteHandler(spec))
		})
	})
}

// @Summary Lista una colección
// @Tags catalogo
// @Security BearerAuth
// @Produce json
// @Param collection path string true "pacientes|medicos|administradores|especialidades|consultorios|eps"
// @Success 200 {object} envelope
// @Router /{collection} [get]
func (s *Server) listHandler(col string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.listPublic(r.Context(), col)
		if err != nil {
			s.internalError(w, "list_"+col, err)
			return
		}
		ok(w, http.StatusOK, items, "")
	}
}

func (s *Server) listPublic(ctx context.Context, col string) ([]records.Record, error) {
	items, err := s.repo.List(ctx, col)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []records.Record{}
	}
	if col == colMedicos {
		if err := s.decorateMedicos(ctx, items); err != nil {
			return nil, err
		}
	}
	return publicAll(items), nil
}

func (s *Server) getHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, valid := idParam(r)
		if !valid {
			fail(w, http.StatusBadRequest, "ID inválido")
			return
		}
		rec, err := s.repo.Get(r.Context(), spec.name, id)
		if errors.Is(err, records.ErrNotFound) {
			fail(w, http.StatusNotFound, spec.msg("no encontrad"))
			return
		}
		if err != nil {
			s.internalError(w, "get_"+spec.name, err)
			return
		}
		if spec.name == colMedicos {
			if err := s.decorateMedicos(r.Context(), []records.Record{rec}); err != nil {
				s.internalError(w, "get_"+spec.name, err)
				return
			}
		}
		ok(w, http.StatusOK, public(rec), "")
	}
}

func (s *Server) createHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := records.Record{}
		if err := decodeBody(r, &body); err != nil {
			fail(w, http.StatusBadRequest, "JSON inválido")
			return
		}
		rec, status, msg := s.createInCollection(r.Context(), spec, body)
		if status != 0 {
			fail(w, status, msg)
			return
		}
		ok(w, http.StatusCreated, rec, spec.msg("cread")+" exitosamente")
	}
}

// createInCollection devuelve status != 0 con el mensaje si no se pudo crear.
func (s *Server) createInCollection(ctx context.Context, spec collectionSpec, body records.Record) (records.Record, int, string) {
	delete(body, "id")
	if err := spec.validate(body, true); err != nil {
		status, msg := validationFailure(err)
		return nil, status, msg
	}

	if spec.role != "" {
		taken, err := s.emailTaken(ctx, body.String("email"), "", 0)
		if err != nil {
			s.log.Error("email check failed", map[string]any{"collection": spec.name, "error": err})
			return nil, http.StatusInternalServerError, "Error interno del servidor"
		}
		if taken {
			return nil, http.StatusConflict, msgEmailTomado
		}
		hashed, err := s.hash(body.String("password"))
		if err != nil {
			return nil, http.StatusInternalServerError, "Error interno del servidor"
		}
		body["password"] = hashed
		body["email"] = strings.TrimSpace(body.String("email"))
		if _, set := body["activo"]; !set {
			body["activo"] = true
		}
	}

	rec, err := s.repo.Create(ctx, spec.name, body)
	if err != nil {
		s.log.Error("create failed", map[string]any{"collection": spec.name, "error": err})
		return nil, http.StatusInternalServerError, "Error interno del servidor"
	}
	s.log.Info("record created", map[string]any{"collection": spec.name, "id": rec.ID()})
	return public(rec), 0, ""
}

func (s *Server) updateHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, valid := idParam(r)
		if !valid {
			fail(w, http.StatusBadRequest, "ID inválido")
			return
		}
		patch := records.Record{}
		if err := decodeBody(r, &patch); err != nil {
			fail(w, http.StatusBadRequest, "JSON inválido")
			return
		}
		delete(patch, "id")

		cur, err := s.repo.Get(r.Context(), spec.name, id)
		if errors.Is(err, records.ErrNotFound) {
			fail(w, http.StatusNotFound, spec.msg("no encontrad"))
			return
		}
		if err != nil {
			s.internalError(w, "update_"+spec.name, err)
			return
		}

		// Password vacía en un update = no cambiarla.
		newPassword := ""
		if spec.role != "" {
			newPassword = patch.String("password")
			delete(patch, "password")
		}

		merged := records.Record{}
		for k, v := range cur {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		delete(merged, "password")
		if newPassword != "" {
			merged["password"] = newPassword
		}
		if err := spec.validate(merged, false); err != nil {
			status, msg := validationFailure(err)
			fail(w, status, msg)
			return
		}

		if spec.role != "" {
			taken, err := s.emailTaken(r.Context(), merged.String("email"), spec.name, id)
			if err != nil {
				s.internalError(w, "update_"+spec.name, err)
				return
			}
			if taken {
				fail(w, http.StatusConflict, msgEmailTomado)
				return
			}
			if newPassword != "" {
				hashed, err := s.hash(newPassword)
				if err != nil {
					s.internalError(w, "update_"+spec.name, err)
					return
				}
				patch["password"] = hashed
			}
		}

		rec, err := s.repo.Update(r.Context(), spec.name, id, patch)
		if err != nil {
			s.internalError(w, "update_"+spec.name, err)
			return
		}
		ok(w, http.StatusOK, public(rec), spec.msg("actualizad")+" exitosamente")
	}
}

func (s *Server) deleteHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, valid := idParam(r)
		if !valid {
			fail(w, http.StatusBadRequest, "ID inválido")
			return
		}
		err := s.repo.Delete(r.Context(), spec.name, id)
		if errors.Is(err, records.ErrNotFound) {
			fail(w, http.StatusNotFound, spec.msg("no encontrad"))
			return
		}
		if err != nil {
			s.internalError(w, "delete_"+spec.name, err)
			return
		}
		s.log.Info("record deleted", map[string]any{"collection": spec.name, "id": id})
		ok(w, http.StatusOK, nil, spec.msg("eliminad")+" exitosamente")
	}
}

// decorateMedicos agrega especialidad_nombre.
func (s *Server) decorateMedicos(ctx context.Context, items []records.Record) error {
	esp, err := s.index(ctx, colEspecialidades)
	if err != nil {
		return err
	}
	for _, m := range items {
		if id, has := m.Int("especialidad_id"); has {
			if e, found := esp[id]; found {
				m["especialidad_nombre"] = e.String("nombre")
			}
		}
	}
	return nil
}

func (s *Server) index(ctx context.Context, col string) (map[int64]records.Record, error) {
	items, err := s.repo.List(ctx, col)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]records.Record, len(items))
	for _, it := range items {
		out[it.ID()] = it
	}
	return out, nil
}
