package main

import (
	"context"
	"fmt"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/navigation"
	"eps-citas/internal/screens"

	"github.com/spf13/cobra"
)

// entity describe cómo listar y mostrar una colección del catálogo.
type entity[T any] struct {
	name   string
	short  string
	svc    func() *resource.Service[T]
	header []string
	row    func(T) []string
	// list reemplaza a svc().GetAll cuando la colección necesita otra carga.
	list func(ctx context.Context) (items []T, demo bool, err error)
}

func activoText(activo bool) string {
	if activo {
		return "sí"
	}
	return "no"
}

func entityCmds(a *app) []*cobra.Command {
	return []*cobra.Command{
		entityCmd(a, entity[catalog.Paciente]{
			name:   "pacientes",
			short:  "Pacientes",
			svc:    func() *resource.Service[catalog.Paciente] { return a.catalog.Pacientes },
			header: []string{"ID", "NOMBRE", "EMAIL", "TELEFONO", "DOCUMENTO", "ACTIVO"},
			row: func(p catalog.Paciente) []string {
				return []string{fmt.Sprint(p.ID), p.Nombre + " " + p.Apellido, p.Email, orDash(p.Telefono),
					orDash(p.TipoDocumento + " " + p.NumeroDocumento), activoText(p.IsActivo())}
			},
		}),
		entityCmd(a, entity[catalog.Medico]{
			name:   "medicos",
			short:  "Médicos",
			svc:    func() *resource.Service[catalog.Medico] { return a.catalog.Medicos },
			header: []string{"ID", "NOMBRE", "EMAIL", "LICENCIA", "ESPECIALIDAD", "ACTIVO"},
			row: func(m catalog.Medico) []string {
				esp := m.EspecialidadNombre
				if esp == "" {
					esp = fmt.Sprintf("#%d", m.EspecialidadID)
				}
				return []string{fmt.Sprint(m.ID), m.Nombre + " " + m.Apellido, m.Email, m.NumeroLicencia, esp, activoText(m.IsActivo())}
			},
		}),
		entityCmd(a, entity[catalog.Especialidad]{
			name:   "especialidades",
			short:  "Especialidades",
			svc:    func() *resource.Service[catalog.Especialidad] { return a.catalog.Especialidades },
			header: []string{"ID", "NOMBRE", "DESCRIPCION"},
			row: func(e catalog.Especialidad) []string {
				return []string{fmt.Sprint(e.ID), e.Nombre, orDash(e.Descripcion)}
			},
		}),
		entityCmd(a, entity[catalog.Consultorio]{
			name:   "consultorios",
			short:  "Consultorios",
			svc:    func() *resource.Service[catalog.Consultorio] { return a.catalog.Consultorios },
			header: []string{"ID", "NOMBRE", "UBICACION", "TELEFONO"},
			row: func(c catalog.Consultorio) []string {
				return []string{fmt.Sprint(c.ID), c.Nombre, orDash(c.Ubicacion), orDash(c.Telefono)}
			},
		}),
		entityCmd(a, entity[catalog.EPS]{
			name:   "eps",
			short:  "EPS",
			svc:    func() *resource.Service[catalog.EPS] { return a.catalog.EPS },
			header: []string{"ID", "NOMBRE", "NIT", "TELEFONO", "EMAIL"},
			row: func(e catalog.EPS) []string {
				return []string{fmt.Sprint(e.ID), e.Nombre, orDash(e.NIT), orDash(e.Telefono), orDash(e.Email)}
			},
			// Único listado con datos de ejemplo en modo demo.
			list: func(ctx context.Context) ([]catalog.EPS, bool, error) {
				v := screens.NewEPSView(a.catalog, a.cfg.DemoMode, a.log)
				defer v.Close()
				_ = v.Load(ctx)
				st := v.State()
				if st.Err != nil && !st.Demo {
					return nil, false, failure(resource.Result[[]catalog.EPS]{Message: st.Err.Message, Kind: st.Err.Kind})
				}
				return st.Items, st.Demo, nil
			},
		}),
		entityCmd(a, entity[catalog.Administrador]{
			name:   "administradores",
			short:  "Administradores",
			svc:    func() *resource.Service[catalog.Administrador] { return a.catalog.Administradores },
			header: []string{"ID", "NOMBRE", "EMAIL", "TELEFONO", "ACTIVO"},
			row: func(ad catalog.Administrador) []string {
				return []string{fmt.Sprint(ad.ID), ad.Nombre + " " + ad.Apellido, ad.Email, orDash(ad.Telefono), activoText(ad.IsActivo())}
			},
		}),
	}
}

func entityCmd[T any](a *app, e entity[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   e.name,
		Short: e.short,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Lista " + e.name,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			var (
				items []T
				demo  bool
			)
			if e.list != nil {
				var err error
				if items, demo, err = e.list(cmd.Context()); err != nil {
					return err
				}
			} else {
				res := e.svc().GetAll(cmd.Context())
				if !res.Success {
					return failure(res)
				}
				items = res.Data
			}

			out := cmd.OutOrStdout()
			if demo {
				fmt.Fprintln(out, "(sin conexión: mostrando datos de ejemplo)")
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, e.row(it))
			}
			return table(out, e.header, rows)
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Muestra un registro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			res := e.svc().GetByID(cmd.Context(), id)
			if !res.Success {
				return failure(res)
			}
			return table(cmd.OutOrStdout(), e.header, [][]string{e.row(res.Data)})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Elimina un registro (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context(), navigation.RoleAdmin); err != nil {
				return err
			}
			svc := e.svc()
			if res := svc.Delete(cmd.Context(), id); !res.Success {
				return failure(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d eliminado\n", svc.Label(), id)
			return nil
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}
