package citas

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/httpclient"
)

type call struct {
	Method string
	Path   string
	Body   map[string]any
}

// testDoer responde por "METHOD path" y registra las llamadas.
type testDoer struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
	failures  map[string]error
}

func newTestDoer() *testDoer {
	return &testDoer{responses: map[string]string{}, failures: map[string]error{}}
}

func (d *testDoer) Do(_ context.Context, method, path string, in any) (*httpclient.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := call{Method: method, Path: path}
	if in != nil {
		b, _ := json.Marshal(in)
		_ = json.Unmarshal(b, &c.Body)
	}
	d.calls = append(d.calls, c)

	key := method + " " + path
	if err, ok := d.failures[key]; ok {
		return nil, err
	}
	body, ok := d.responses[key]
	if !ok {
		return nil, &httpclient.HTTPError{StatusCode: http.StatusNotFound}
	}
	return &httpclient.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (d *testDoer) keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.calls))
	for _, c := range d.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

func validInput() CreateInput {
	return CreateInput{
		PacienteID:     3,
		MedicoID:       7,
		EspecialidadID: 2,
		Fecha:          "2025-03-04",
		Hora:           "09:30",
		Motivo:         "  control anual ",
	}
}

func TestCreate_NormalizesAndForcesProgramada(t *testing.T) {
	d := newTestDoer()
	d.responses["POST /citas"] = `{"success":true,"data":{"id":10,"paciente_id":3,"medico_id":7,"estado":"programada"}}`
	svc := NewService(d, nil)

	in := validInput()
	res := svc.Create(context.Background(), in)
	if !res.Success || res.Data.ID != 10 {
		t.Fatalf("unexpected result %+v", res)
	}

	body := d.calls[0].Body
	if body["hora"] != "09:30:00" || body["estado"] != "programada" || body["motivo"] != "control anual" {
		t.Fatalf("unexpected payload %+v", body)
	}
}

func TestCreate_ValidationFailsWithoutRequest(t *testing.T) {
	d := newTestDoer()
	svc := NewService(d, nil)

	cases := []struct {
		want string
		mod  func(*CreateInput)
	}{
		{"Por favor selecciona un médico", func(in *CreateInput) { in.MedicoID = 0 }},
		{"Por favor ingresa la fecha", func(in *CreateInput) { in.Fecha = " " }},
		{"La hora debe estar en formato HH:MM o HH:MM:SS", func(in *CreateInput) { in.Hora = "9h" }},
		{"La fecha debe estar en formato YYYY-MM-DD", func(in *CreateInput) { in.Fecha = "04/03/2025" }},
		{"Por favor ingresa el motivo de la consulta", func(in *CreateInput) { in.Motivo = "" }},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mod(&in)
		res := svc.Create(context.Background(), in)
		if res.Success || res.Kind != httpclient.KindValidation || res.Message != tc.want {
			t.Errorf("expected %q, got %+v", tc.want, res)
		}
	}
	if len(d.calls) != 0 {
		t.Fatalf("validation failures must not hit the backend: %v", d.keys())
	}
}

func TestTransition_RejectsLocallyWhenNotAllowed(t *testing.T) {
	d := newTestDoer()
	svc := NewService(d, nil)

	c := Cita{ID: 1, PacienteID: 3, MedicoID: 7, Estado: EstadoProgramada}
	res := svc.Transition(context.Background(), Actor{Role: navigation.RoleMedico, MedicoID: 7}, c, ActionCompletar)
	if res.Success || res.Message != MsgAccionNoPermitida || res.Kind != httpclient.KindValidation {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(d.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", d.keys())
	}
}

func TestTransition_MedicoUsesEstadoEndpointThenReloads(t *testing.T) {
	d := newTestDoer()
	d.responses["PUT /medico/citas/1/estado"] = `{"success":true,"message":"ok"}`
	d.responses["GET /medico/mis-citas"] = `{"success":true,"data":[{"id":1,"estado":"confirmada","medico_id":7}]}`
	svc := NewService(d, nil)

	c := Cita{ID: 1, PacienteID: 3, MedicoID: 7, Estado: EstadoProgramada}
	res := svc.Transition(context.Background(), Actor{Role: navigation.RoleMedico, MedicoID: 7}, c, ActionConfirmar)
	if !res.Success || len(res.Data) != 1 || res.Data[0].Estado != EstadoConfirmada {
		t.Fatalf("unexpected result %+v", res)
	}
	keys := d.keys()
	if len(keys) != 2 || keys[0] != "PUT /medico/citas/1/estado" || keys[1] != "GET /medico/mis-citas" {
		t.Fatalf("unexpected calls %v", keys)
	}
	if d.calls[0].Body["estado"] != "confirmada" {
		t.Fatalf("unexpected body %+v", d.calls[0].Body)
	}
	if c.Estado != EstadoProgramada {
		t.Fatal("input cita must not be mutated")
	}
}

func TestTransition_PacienteCancelUsesCancelarEndpoint(t *testing.T) {
	d := newTestDoer()
	d.responses["PUT /paciente/citas/4/cancelar"] = `{"success":true}`
	d.responses["GET /paciente/mis-citas?paciente_id=3"] = `{"success":true,"data":[]}`
	svc := NewService(d, nil)

	c := Cita{ID: 4, PacienteID: 3, MedicoID: 7, Estado: EstadoProgramada}
	res := svc.Transition(context.Background(), Actor{Role: navigation.RolePaciente, PacienteID: 3}, c, ActionCancelar)
	if !res.Success {
		t.Fatalf("unexpected result %+v", res)
	}
	keys := d.keys()
	if len(keys) != 2 || keys[0] != "PUT /paciente/citas/4/cancelar" {
		t.Fatalf("unexpected calls %v", keys)
	}
}

func TestTransition_AdminUpdateFailureStillReloads(t *testing.T) {
	d := newTestDoer()
	d.failures["PUT /citas/9"] = &httpclient.HTTPError{StatusCode: 500}
	d.responses["GET /citas"] = `{"success":true,"data":[{"id":9,"estado":"programada"}]}`
	svc := NewService(d, nil)

	c := Cita{ID: 9, Estado: EstadoProgramada}
	res := svc.Transition(context.Background(), Actor{Role: navigation.RoleAdmin}, c, ActionCancelar)
	if res.Success || res.Message != "Error al actualizar cita" || res.Kind != httpclient.KindServer {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Data) != 1 || res.Data[0].Estado != EstadoProgramada {
		t.Fatalf("expected reloaded backend state, got %+v", res.Data)
	}
	if keys := d.keys(); len(keys) != 2 || keys[1] != "GET /citas" {
		t.Fatalf("expected reload after failure, got %v", keys)
	}
}

func TestDelete42_Server500(t *testing.T) {
	d := newTestDoer()
	d.failures["DELETE /citas/42"] = &httpclient.HTTPError{StatusCode: 500}
	res := NewService(d, nil).Delete(context.Background(), 42)
	if res.Success || res.Message != "Error al eliminar cita" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAgregarObservaciones(t *testing.T) {
	d := newTestDoer()
	d.responses["PUT /medico/citas/5/observaciones"] = `{"success":true}`
	svc := NewService(d, nil)

	if res := svc.AgregarObservaciones(context.Background(), 5, "  "); res.Success {
		t.Fatal("empty observaciones must be rejected")
	}
	if res := svc.AgregarObservaciones(context.Background(), 5, "reposo"); !res.Success {
		t.Fatalf("unexpected failure %+v", res)
	}
	if d.calls[0].Body["observaciones"] != "reposo" {
		t.Fatalf("unexpected body %+v", d.calls[0].Body)
	}
}

func TestAgendarCita_DoesNotRequirePaciente(t *testing.T) {
	d := newTestDoer()
	d.responses["POST /paciente/agendar-cita"] = `{"success":true,"data":{"id":11,"estado":"programada"}}`
	in := validInput()
	in.PacienteID = 0

	res := NewService(d, nil).AgendarCita(context.Background(), in)
	if !res.Success || res.Data.ID != 11 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := d.calls[0].Body["paciente_id"]; ok {
		t.Fatalf("paciente_id should be omitted: %+v", d.calls[0].Body)
	}
}

func TestProximaCita_Empty(t *testing.T) {
	d := newTestDoer()
	d.responses["GET /paciente/proxima-cita?paciente_id=3"] = `{"success":true,"data":null}`
	res := NewService(d, nil).ProximaCita(context.Background(), 3)
	if !res.Success || res.Data != nil {
		t.Fatalf("expected success without cita, got %+v", res)
	}

	d.responses["GET /paciente/proxima-cita?paciente_id=3"] = `{"success":true,"data":{"id":8,"estado":"confirmada"}}`
	res = NewService(d, nil).ProximaCita(context.Background(), 3)
	if !res.Success || res.Data == nil || res.Data.ID != 8 {
		t.Fatalf("expected cita 8, got %+v", res)
	}
}

func TestHoy(t *testing.T) {
	svc := NewService(newTestDoer(), nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC) }

	items := []Cita{
		{ID: 1, Fecha: NewFecha(2025, 3, 4)},
		{ID: 2, Fecha: NewFecha(2025, 3, 5)},
	}
	got := svc.Hoy(items)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected hoy %+v", got)
	}
	if !strings.HasPrefix(got[0].Fecha.String(), "2025-03-04") {
		t.Fatalf("unexpected fecha %s", got[0].Fecha)
	}
}
