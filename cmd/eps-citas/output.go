package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/screens"
)

const msgServidor = "Error del servidor, inténtalo más tarde."

// failure convierte un resultado fallido en el error que ve el usuario.
func failure[T any](r resource.Result[T]) error {
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "Error inesperado"
	}
	if r.Kind == httpclient.KindServer && msg != msgServidor {
		msg += "\n" + msgServidor
	}
	return errors.New(msg)
}

func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func citaTable(w io.Writer, rows []screens.Row) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			fmt.Sprint(r.ID), r.Fecha, r.Hora, r.Paciente, r.Medico, r.Especialidad,
			string(r.Estado), actionList(r.Actions),
		})
	}
	return table(w, []string{"ID", "FECHA", "HORA", "PACIENTE", "MEDICO", "ESPECIALIDAD", "ESTADO", "ACCIONES"}, out)
}

func actionList(actions []citas.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

// printJSON indenta data tal cual llegó del backend.
func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	_, err := fmt.Fprintln(w, buf.String())
	return err
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
