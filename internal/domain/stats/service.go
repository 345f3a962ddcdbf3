package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/platform/httpclient"

	"golang.org/x/sync/errgroup"
)

type Personas struct {
	Total     int `json:"total"`
	Activos   int `json:"activos"`
	Inactivos int `json:"inactivos"`
}

type Citas struct {
	Total       int `json:"total"`
	Hoy         int `json:"hoy"`
	Programadas int `json:"programadas"`
	Confirmadas int `json:"confirmadas"`
	Completadas int `json:"completadas"`
	Canceladas  int `json:"canceladas"`
}

// Summary es el tablero del administrador calculado en el cliente.
type Summary struct {
	Medicos        Personas `json:"medicos"`
	Pacientes      Personas `json:"pacientes"`
	Citas          Citas    `json:"citas"`
	Especialidades int      `json:"especialidades"`
	// Fallidos lista las entidades cuya carga falló (quedan en cero).
	Fallidos []string `json:"fallidos,omitempty"`
}

type Periodo string

const (
	PeriodoHoy    Periodo = "hoy"
	PeriodoSemana Periodo = "semana"
	PeriodoMes    Periodo = "mes"
)

func ParsePeriodo(s string) (Periodo, bool) {
	switch p := Periodo(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodoHoy, PeriodoSemana, PeriodoMes:
		return p, true
	}
	return "", false
}

type Service struct {
	doer    resource.Doer
	catalog *catalog.Catalog
	citas   *citas.Service
	now     func() time.Time
}

func NewService(doer resource.Doer, cat *catalog.Catalog, cs *citas.Service) *Service {
	return &Service{doer: doer, catalog: cat, citas: cs, now: time.Now}
}

// Estadisticas trae el resumen que calcula el backend.
func (s *Service) Estadisticas(ctx context.Context) resource.Result[json.RawMessage] {
	return resource.Call[json.RawMessage](ctx, s.doer, http.MethodGet, "/admin/estadisticas", nil, "Error al obtener estadísticas")
}

// Summaries carga las cuatro listas en paralelo y cuenta. Una lista que falla deja
// sus contadores en cero sin afectar a las demás.
func (s *Service) Summaries(ctx context.Context) Summary {
	var (
		out  Summary
		meds resource.Result[[]catalog.Medico]
		pacs resource.Result[[]catalog.Paciente]
		cits resource.Result[[]citas.Cita]
		esps resource.Result[[]catalog.Especialidad]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { meds = s.catalog.Medicos.GetAll(gctx); return nil })
	g.Go(func() error { pacs = s.catalog.Pacientes.GetAll(gctx); return nil })
	g.Go(func() error { cits = s.citas.GetAll(gctx); return nil })
	g.Go(func() error { esps = s.catalog.Especialidades.GetAll(gctx); return nil })
	_ = g.Wait()

	if meds.Success {
		for _, m := range meds.Data {
			out.Medicos.add(m.IsActivo())
		}
	} else {
		out.Fallidos = append(out.Fallidos, "medicos")
	}

	if pacs.Success {
		for _, p := range pacs.Data {
			out.Pacientes.add(p.IsActivo())
		}
	} else {
		out.Fallidos = append(out.Fallidos, "pacientes")
	}

	if cits.Success {
		out.Citas = CountCitas(cits.Data, citas.FechaOf(s.now()))
	} else {
		out.Fallidos = append(out.Fallidos, "citas")
	}

	if esps.Success {
		out.Especialidades = len(esps.Data)
	} else {
		out.Fallidos = append(out.Fallidos, "especialidades")
	}
	return out
}

func (p *Personas) add(activo bool) {
	p.Total++
	if activo {
		p.Activos++
	} else {
		p.Inactivos++
	}
}

func CountCitas(items []citas.Cita, hoy citas.Fecha) Citas {
	var c Citas
	for _, it := range items {
		c.Total++
		if it.Fecha.Equal(hoy) {
			c.Hoy++
		}
		switch it.Estado {
		case citas.EstadoProgramada:
			c.Programadas++
		case citas.EstadoConfirmada:
			c.Confirmadas++
		case citas.EstadoCompletada:
			c.Completadas++
		case citas.EstadoCancelada:
			c.Canceladas++
		}
	}
	return c
}

// ReportesMedico trae los reportes del médico logueado para un periodo.
func (s *Service) ReportesMedico(ctx context.Context, periodo string) resource.Result[json.RawMessage] {
	p, ok := ParsePeriodo(periodo)
	if !ok {
		return resource.Fail[json.RawMessage](httpclient.KindValidation, "Periodo inválido (hoy, semana o mes)")
	}
	path := "/medico/reportes?" + url.Values{"periodo": {string(p)}}.Encode()
	return resource.Call[json.RawMessage](ctx, s.doer, http.MethodGet, path, nil, "Error al obtener reportes")
}
