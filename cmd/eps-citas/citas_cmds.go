package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/navigation"
	"eps-citas/internal/screens"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id inválido %q", s)
	}
	return id, nil
}

func citasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citas",
		Short: "Citas médicas",
	}
	cmd.AddCommand(
		citasListCmd(a),
		citasCreateCmd(a),
		citasOpcionesCmd(a),
		citasProximaCmd(a),
		transitionCmd(a, "confirm", "Confirma una cita", citas.ActionConfirmar),
		transitionCmd(a, "complete", "Marca una cita como completada", citas.ActionCompletar),
		transitionCmd(a, "cancel", "Cancela una cita", citas.ActionCancelar),
		citasDeleteCmd(a),
		citasObserveCmd(a),
	)
	return cmd
}

// loadCitas elige el listado según rol y vista.
func (a *app) loadCitas(ctx context.Context, actor citas.Actor, vista string) (resource.Result[[]citas.Cita], error) {
	switch vista {
	case "", "todas":
		v := screens.NewCitasView(a.citas, actor, a.log)
		defer v.Close()
		_ = v.Load(ctx)
		st := v.State()
		if st.Err != nil {
			return resource.Result[[]citas.Cita]{Message: st.Err.Message, Kind: st.Err.Kind, Status: st.Err.Status}, nil
		}
		return resource.OK(st.Items), nil
	case "agenda":
		if actor.Role != navigation.RoleMedico {
			return resource.Result[[]citas.Cita]{}, errRol
		}
		return a.citas.MiAgendaMedico(ctx), nil
	case "historial":
		if actor.Role != navigation.RolePaciente {
			return resource.Result[[]citas.Cita]{}, errRol
		}
		return a.citas.HistorialPaciente(ctx, actor.PacienteID), nil
	}
	return resource.Result[[]citas.Cita]{}, fmt.Errorf("vista inválida %q (todas, agenda, historial)", vista)
}

func citasListCmd(a *app) *cobra.Command {
	var (
		vista string
		hoy   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista las citas visibles para el usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			actor := screens.ActorFor(snap)
			res, err := a.loadCitas(cmd.Context(), actor, vista)
			if err != nil {
				return err
			}
			if !res.Success {
				return failure(res)
			}
			items := res.Data
			if hoy {
				items = a.citas.Hoy(items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No hay citas")
				return nil
			}
			return citaTable(cmd.OutOrStdout(), screens.CitaRows(actor, items))
		},
	}
	cmd.Flags().StringVar(&vista, "vista", "todas", "todas | agenda (médico) | historial (paciente)")
	cmd.Flags().BoolVar(&hoy, "hoy", false, "solo las de hoy")
	return cmd
}

func citasCreateCmd(a *app) *cobra.Command {
	var (
		in            citas.CreateInput
		consultorioID int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea (admin) o agenda (paciente) una cita",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.requireSession(cmd.Context(), navigation.RoleAdmin, navigation.RolePaciente)
			if err != nil {
				return err
			}
			if consultorioID > 0 {
				in.ConsultorioID = &consultorioID
			}

			var res resource.Result[citas.Cita]
			if snap.Role == navigation.RolePaciente {
				res = a.citas.AgendarCita(cmd.Context(), in)
			} else {
				res = a.citas.Create(cmd.Context(), in)
			}
			if !res.Success {
				return failure(res)
			}
			row := screens.CitaRow(screens.ActorFor(snap), res.Data)
			fmt.Fprintf(cmd.OutOrStdout(), "Cita #%d creada para el %s a las %s\n", row.ID, row.Fecha, row.Hora)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&in.PacienteID, "paciente-id", 0, "paciente (solo admin)")
	f.Int64Var(&in.MedicoID, "medico-id", 0, "médico")
	f.Int64Var(&in.EspecialidadID, "especialidad-id", 0, "especialidad")
	f.Int64Var(&consultorioID, "consultorio-id", 0, "consultorio (opcional)")
	f.StringVar(&in.Fecha, "fecha", "", "YYYY-MM-DD")
	f.StringVar(&in.Hora, "hora", "", "HH:MM")
	f.StringVar(&in.Motivo, "motivo", "", "motivo de la consulta")
	return cmd
}

// citasOpcionesCmd carga en paralelo los datos del formulario de cita.
func citasOpcionesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "opciones",
		Short: "Pacientes, médicos, especialidades y consultorios para crear citas",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context(), navigation.RoleAdmin); err != nil {
				return err
			}
			form := screens.NewCitaForm(a.catalog)
			defer form.Close()
			loadErr := form.Load(cmd.Context())

			out := cmd.OutOrStdout()
			var rows [][]string
			for _, p := range form.Pacientes.Items() {
				rows = append(rows, []string{"paciente", fmt.Sprint(p.ID), strings.TrimSpace(p.Nombre + " " + p.Apellido)})
			}
			for _, m := range form.Medicos.Items() {
				rows = append(rows, []string{"medico", fmt.Sprint(m.ID), strings.TrimSpace(m.Nombre + " " + m.Apellido)})
			}
			for _, e := range form.Especialidades.Items() {
				rows = append(rows, []string{"especialidad", fmt.Sprint(e.ID), e.Nombre})
			}
			for _, c := range form.Consultorios.Items() {
				rows = append(rows, []string{"consultorio", fmt.Sprint(c.ID), c.Nombre})
			}
			if err := table(out, []string{"TIPO", "ID", "NOMBRE"}, rows); err != nil {
				return err
			}
			// Lo que cargó se muestra igual; el error va al final.
			return loadErr
		},
	}
}

func citasProximaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "proxima",
		Short: "Próxima cita del paciente",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.requireSession(cmd.Context(), navigation.RolePaciente)
			if err != nil {
				return err
			}
			actor := screens.ActorFor(snap)
			res := a.citas.ProximaCita(cmd.Context(), actor.PacienteID)
			if !res.Success {
				return failure(res)
			}
			if res.Data == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No tienes citas próximas")
				return nil
			}
			return citaTable(cmd.OutOrStdout(), []screens.Row{screens.CitaRow(actor, *res.Data)})
		},
	}
}

// fetchCita trae la cita fresca; las acciones se validan contra el estado del backend.
func (a *app) fetchCita(ctx context.Context, actor citas.Actor, id int64) (citas.Cita, error) {
	if actor.Role == navigation.RolePaciente {
		res := a.citas.MisCitasPaciente(ctx, actor.PacienteID)
		if !res.Success {
			return citas.Cita{}, failure(res)
		}
		for _, c := range res.Data {
			if c.ID == id {
				return c, nil
			}
		}
		return citas.Cita{}, fmt.Errorf("Cita #%d no encontrada", id)
	}
	res := a.citas.GetByID(ctx, id)
	if !res.Success {
		return citas.Cita{}, failure(res)
	}
	return res.Data, nil
}

func transitionCmd(a *app, use, short string, action citas.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			actor := screens.ActorFor(snap)
			c, err := a.fetchCita(cmd.Context(), actor, id)
			if err != nil {
				return err
			}

			res := a.citas.Transition(cmd.Context(), actor, c, action)
			if !res.Success {
				return failure(res)
			}
			for _, it := range res.Data {
				if it.ID == id {
					fmt.Fprintf(cmd.OutOrStdout(), "Cita #%d: %s\n", id, it.Estado)
					return nil
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cita #%d actualizada\n", id)
			return nil
		},
	}
}

func citasDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Elimina una cita (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			snap, err := a.requireSession(cmd.Context(), navigation.RoleAdmin)
			if err != nil {
				return err
			}
			actor := screens.ActorFor(snap)
			c, err := a.fetchCita(cmd.Context(), actor, id)
			if err != nil {
				return err
			}
			if !screens.CitaRow(actor, c).Can(citas.ActionEliminar) {
				return fmt.Errorf("%s", citas.MsgAccionNoPermitida)
			}
			if res := a.citas.Delete(cmd.Context(), id); !res.Success {
				return failure(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cita #%d eliminada\n", id)
			return nil
		},
	}
}

func citasObserveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "observe <id> <observaciones>",
		Short: "Agrega observaciones a una cita (médico)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context(), navigation.RoleMedico); err != nil {
				return err
			}
			res := a.citas.AgregarObservaciones(cmd.Context(), id, strings.Join(args[1:], " "))
			if !res.Success {
				return failure(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Observaciones guardadas en la cita #%d\n", id)
			return nil
		},
	}
}

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresca un listado periódicamente",
	}

	var (
		interval time.Duration
		count    int
	)
	watchCitas := &cobra.Command{
		Use:   "citas",
		Short: "Muestra las citas y las refresca cada intervalo",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.cfg.AutoRefresh
			}
			actor := screens.ActorFor(snap)
			view := screens.NewCitasView(a.citas, actor, a.log)
			defer view.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			done := make(chan struct{}, 1)
			// AutoRefresh no solapa ejecuciones, así que n no necesita lock.
			n := 0
			render := func(ctx context.Context) {
				err := view.Load(ctx)
				if errors.Is(err, screens.ErrStale) || errors.Is(err, screens.ErrClosed) {
					return
				}
				n++
				fmt.Fprintf(out, "--- %s ---\n", time.Now().Format("15:04:05"))
				if st := view.State(); st.Err != nil {
					fmt.Fprintln(out, failure(resource.Result[[]citas.Cita]{Message: st.Err.Message, Kind: st.Err.Kind}))
				} else {
					_ = citaTable(out, screens.CitaRows(actor, st.Items))
				}
				if count > 0 && n >= count {
					select {
					case done <- struct{}{}:
					default:
					}
				}
			}

			ar, err := screens.StartAutoRefresh(ctx, interval, render, a.log)
			if err != nil {
				return err
			}
			defer ar.Stop()
			ar.ForceRefresh()

			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	}
	watchCitas.Flags().DurationVar(&interval, "interval", 0, "intervalo (por defecto EPS_AUTO_REFRESH)")
	watchCitas.Flags().IntVar(&count, "count", 0, "terminar después de n refrescos (0 = hasta Ctrl+C)")

	cmd.AddCommand(watchCitas)
	return cmd
}
