package main

import (
	"fmt"
	"strings"

	"eps-citas/internal/navigation"

	"github.com/spf13/cobra"
)

func statsCmd(a *app) *cobra.Command {
	var fromBackend bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Estadísticas del sistema (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context(), navigation.RoleAdmin); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if fromBackend {
				res := a.stats.Estadisticas(cmd.Context())
				if !res.Success {
					return failure(res)
				}
				return printJSON(out, res.Data)
			}

			s := a.stats.Summaries(cmd.Context())
			rows := [][]string{
				{"medicos", fmt.Sprint(s.Medicos.Total), fmt.Sprintf("%d activos, %d inactivos", s.Medicos.Activos, s.Medicos.Inactivos)},
				{"pacientes", fmt.Sprint(s.Pacientes.Total), fmt.Sprintf("%d activos, %d inactivos", s.Pacientes.Activos, s.Pacientes.Inactivos)},
				{"citas", fmt.Sprint(s.Citas.Total), fmt.Sprintf("hoy %d, programadas %d, confirmadas %d, completadas %d, canceladas %d",
					s.Citas.Hoy, s.Citas.Programadas, s.Citas.Confirmadas, s.Citas.Completadas, s.Citas.Canceladas)},
				{"especialidades", fmt.Sprint(s.Especialidades), "-"},
			}
			if err := table(out, []string{"ENTIDAD", "TOTAL", "DETALLE"}, rows); err != nil {
				return err
			}
			if len(s.Fallidos) > 0 {
				fmt.Fprintf(out, "No se pudo cargar: %s\n", strings.Join(s.Fallidos, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromBackend, "backend", false, "usar el resumen que calcula el backend")
	return cmd
}

func reportesCmd(a *app) *cobra.Command {
	var periodo string
	cmd := &cobra.Command{
		Use:   "reportes",
		Short: "Reportes del médico",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context(), navigation.RoleMedico); err != nil {
				return err
			}
			res := a.stats.ReportesMedico(cmd.Context(), periodo)
			if !res.Success {
				return failure(res)
			}
			return printJSON(cmd.OutOrStdout(), res.Data)
		},
	}
	cmd.Flags().StringVar(&periodo, "periodo", "semana", "hoy | semana | mes")
	return cmd
}
