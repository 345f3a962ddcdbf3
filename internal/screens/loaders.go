package screens

import (
	"context"
	"errors"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

// LoadAll corre cargas independientes en paralelo y espera a todas.
// El fallo de una no cancela a las otras; los errores se devuelven juntos.
func LoadAll(ctx context.Context, loads ...func(context.Context) error) error {
	var g errgroup.Group
	errs := make([]error, len(loads))
	for i, load := range loads {
		i, load := i, load
		g.Go(func() error {
			errs[i] = load(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// CitaForm son los selectores del formulario de citas.
type CitaForm struct {
	Pacientes      *ListView[catalog.Paciente]
	Medicos        *ListView[catalog.Medico]
	Especialidades *ListView[catalog.Especialidad]
	Consultorios   *ListView[catalog.Consultorio]
}

func NewCitaForm(cat *catalog.Catalog) *CitaForm {
	return &CitaForm{
		Pacientes:      NewListView(cat.Pacientes.GetAll),
		Medicos:        NewListView(cat.Medicos.GetAll),
		Especialidades: NewListView(cat.Especialidades.GetAll),
		Consultorios:   NewListView(cat.Consultorios.GetAll),
	}
}

func (f *CitaForm) Load(ctx context.Context) error {
	return LoadAll(ctx,
		f.Pacientes.Load,
		f.Medicos.Load,
		f.Especialidades.Load,
		f.Consultorios.Load,
	)
}

func (f *CitaForm) Close() {
	f.Pacientes.Close()
	f.Medicos.Close()
	f.Especialidades.Close()
	f.Consultorios.Close()
}

// NewEPSView lista EPS; con demo=true un fallo muestra catalog.SampleEPS.
func NewEPSView(cat *catalog.Catalog, demo bool, log logger.Logger) *ListView[catalog.EPS] {
	return NewListView(cat.EPS.GetAll,
		WithLogger[catalog.EPS](log),
		DemoFallback(demo, catalog.SampleEPS),
	)
}

// NewCitasView lista las citas que le corresponden al actor.
func NewCitasView(svc *citas.Service, actor citas.Actor, log logger.Logger) *ListView[citas.Cita] {
	return NewListView(func(ctx context.Context) resource.Result[[]citas.Cita] {
		return svc.ListFor(ctx, actor)
	}, WithLogger[citas.Cita](log))
}
