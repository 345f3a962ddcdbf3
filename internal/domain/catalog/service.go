package catalog

import (
	"context"
	"errors"

	"eps-citas/internal/domain/resource"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/platform/logger"
)

// Catalog agrupa los servicios CRUD de las entidades de referencia.
type Catalog struct {
	Pacientes       *resource.Service[Paciente]
	Medicos         *resource.Service[Medico]
	Especialidades  *resource.Service[Especialidad]
	Consultorios    *resource.Service[Consultorio]
	EPS             *resource.Service[EPS]
	Administradores *resource.Service[Administrador]
}

func New(doer resource.Doer, log logger.Logger) *Catalog {
	if log == nil {
		log = logger.NewNop()
	}
	wl := resource.WithLogger(log)
	return &Catalog{
		Pacientes:       resource.New[Paciente](doer, "pacientes", resource.WithLabel("paciente"), wl),
		Medicos:         resource.New[Medico](doer, "medicos", resource.WithLabel("médico"), wl),
		Especialidades:  resource.New[Especialidad](doer, "especialidades", resource.WithLabel("especialidad"), wl),
		Consultorios:    resource.New[Consultorio](doer, "consultorios", resource.WithLabel("consultorio"), wl),
		EPS:             resource.New[EPS](doer, "eps", resource.WithLabel("EPS"), wl),
		Administradores: resource.New[Administrador](doer, "administradores", resource.WithLabel("administrador"), wl),
	}
}

// Save valida y luego crea (id == 0) o actualiza. La validación no sale a la red.
func Save[T Validatable](ctx context.Context, svc *resource.Service[T], id int64, v T) resource.Result[T] {
	create := id == 0
	if err := v.Validate(create); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return resource.Fail[T](httpclient.KindValidation, ve.Message)
		}
		return resource.Fail[T](httpclient.KindValidation, err.Error())
	}
	if create {
		return svc.Create(ctx, v)
	}
	return svc.Update(ctx, id, v)
}

