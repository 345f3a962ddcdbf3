package main

import (
	"fmt"
	"strings"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/profile"
	"eps-citas/internal/navigation"

	"github.com/spf13/cobra"
)

func loginCmd(a *app) *cobra.Command {
	var email, password, tipo string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			hint := navigation.ParseRole(tipo)
			if hint == "" {
				return fmt.Errorf("tipo inválido %q (admin, medico o paciente)", tipo)
			}
			snap, err := a.store.Login(cmd.Context(), email, password, hint)
			if err != nil {
				return err
			}
			route := navigation.Resolve(snap.Nav())
			fmt.Fprintf(cmd.OutOrStdout(), "Bienvenido, %s (%s)\n%s\n", snap.User.FullName(), snap.Role, route.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "contraseña")
	cmd.Flags().StringVar(&tipo, "tipo", string(navigation.RolePaciente), "tipo de usuario (admin, medico, paciente)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Muestra el usuario de la sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			u := snap.User
			return table(cmd.OutOrStdout(), []string{"ID", "NOMBRE", "EMAIL", "TELEFONO", "TIPO"}, [][]string{
				{fmt.Sprint(u.ID), u.FullName(), u.Email, orDash(u.Telefono), string(snap.Role)},
			})
		},
	}
}

// menuCmd muestra el tablero y las pantallas a las que llega el rol actual.
func menuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Muestra las pantallas disponibles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Validate(cmd.Context())
			route := navigation.Resolve(a.store.Snapshot().Nav())
			out := cmd.OutOrStdout()
			if route.Public {
				fmt.Fprintln(out, "Sin sesión")
			} else {
				fmt.Fprintln(out, route.Title)
			}
			for _, s := range route.Screens {
				fmt.Fprintf(out, "  - %s\n", s)
			}
			return nil
		},
	}
}

func registerCmd(a *app) *cobra.Command {
	var p catalog.Paciente
	var epsID int64
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Registra una cuenta de paciente",
		RunE: func(cmd *cobra.Command, args []string) error {
			if epsID > 0 {
				p.EPSID = &epsID
			}
			res := a.profile.RegisterPaciente(cmd.Context(), p)
			if !res.Success {
				return failure(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paciente registrado (#%d). Ya puedes iniciar sesión.\n", res.Data.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Nombre, "nombre", "", "nombre")
	f.StringVar(&p.Apellido, "apellido", "", "apellido")
	f.StringVar(&p.Email, "email", "", "email")
	f.StringVar(&p.Password, "password", "", "contraseña")
	f.StringVar(&p.Telefono, "telefono", "", "teléfono")
	f.StringVar(&p.FechaNacimiento, "fecha-nacimiento", "", "YYYY-MM-DD")
	f.StringVar(&p.TipoDocumento, "tipo-documento", "CC", "tipo de documento")
	f.StringVar(&p.NumeroDocumento, "numero-documento", "", "número de documento")
	f.StringVar(&p.Direccion, "direccion", "", "dirección")
	f.Int64Var(&epsID, "eps-id", 0, "EPS (opcional)")
	return cmd
}

func perfilCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perfil",
		Short: "Perfil del usuario",
	}

	var in struct{ nombre, apellido, email, telefono string }
	update := &cobra.Command{
		Use:   "update",
		Short: "Actualiza nombre, email y teléfono",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			// Lo que no se pasa queda como está.
			pick := func(v, cur string) string {
				if strings.TrimSpace(v) == "" {
					return cur
				}
				return v
			}
			res := a.profile.UpdateProfile(cmd.Context(), profile.UpdateInput{
				Nombre:   pick(in.nombre, snap.User.Nombre),
				Apellido: pick(in.apellido, snap.User.Apellido),
				Email:    pick(in.email, snap.User.Email),
				Telefono: pick(in.telefono, snap.User.Telefono),
			})
			if !res.Success {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Perfil actualizado")
			return nil
		},
	}
	update.Flags().StringVar(&in.nombre, "nombre", "", "nombre")
	update.Flags().StringVar(&in.apellido, "apellido", "", "apellido")
	update.Flags().StringVar(&in.email, "email", "", "email")
	update.Flags().StringVar(&in.telefono, "telefono", "", "teléfono")

	var actual, nueva, confirmar string
	password := &cobra.Command{
		Use:   "password",
		Short: "Cambia la contraseña",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			res := a.profile.ChangePassword(cmd.Context(), *snap.User, actual, nueva, confirmar)
			if !res.Success {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Contraseña actualizada")
			return nil
		},
	}
	password.Flags().StringVar(&actual, "actual", "", "contraseña actual")
	password.Flags().StringVar(&nueva, "nueva", "", "contraseña nueva")
	password.Flags().StringVar(&confirmar, "confirmar", "", "confirmación")

	cmd.AddCommand(update, password)
	return cmd
}
