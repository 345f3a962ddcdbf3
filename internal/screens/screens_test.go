package screens

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/session"
)

func newTestCatalog(t *testing.T, h http.HandlerFunc) *catalog.Catalog {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := httpclient.New(httpclient.Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	return catalog.New(c, nil)
}

func TestListView_LatestGenerationWins(t *testing.T) {
	started := make(chan struct{})
	var n int32
	v := NewListView(func(ctx context.Context) resource.Result[[]int] {
		if atomic.AddInt32(&n, 1) == 1 {
			close(started)
			<-ctx.Done()
			return resource.OK([]int{1})
		}
		return resource.OK([]int{2})
	})

	first := make(chan error, 1)
	go func() { first <- v.Load(context.Background()) }()
	<-started

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if err := <-first; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale for superseded load, got %v", err)
	}
	items := v.Items()
	if len(items) != 1 || items[0] != 2 {
		t.Fatalf("expected only the latest result, got %v", items)
	}
	if v.Loading() {
		t.Fatal("expected loading=false")
	}
}

func TestListView_CloseDropsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	v := NewListView(func(ctx context.Context) resource.Result[[]int] {
		close(started)
		<-ctx.Done()
		return resource.OK([]int{9})
	})

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	<-started
	v.Close()

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if len(v.Items()) != 0 {
		t.Fatalf("closed view must not apply data, got %v", v.Items())
	}
	if err := v.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestListView_FailureKeepsPreviousItems(t *testing.T) {
	fail := false
	v := NewListView(func(context.Context) resource.Result[[]int] {
		if fail {
			return resource.Fail[[]int](httpclient.KindNetwork, resource.MsgNetwork)
		}
		return resource.OK([]int{1, 2})
	})

	if err := v.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	fail = true
	err := v.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) || le.Kind != httpclient.KindNetwork || le.Message != resource.MsgNetwork {
		t.Fatalf("unexpected error %v", err)
	}
	st := v.State()
	if len(st.Items) != 2 || st.Err == nil || st.Demo || !st.Loaded {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestEPSView_DemoOnlyWhenEnabled(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	plain := NewEPSView(cat, false, nil)
	err := plain.Load(context.Background())
	if err == nil || err.Error() != "Error al obtener EPS" {
		t.Fatalf("expected surfaced failure, got %v", err)
	}
	if len(plain.Items()) != 0 || plain.Demo() {
		t.Fatal("sample data must not appear outside demo mode")
	}

	demo := NewEPSView(cat, true, nil)
	if err := demo.Load(context.Background()); err == nil {
		t.Fatal("expected the failure to be reported even in demo mode")
	}
	if !demo.Demo() || len(demo.Items()) != len(catalog.SampleEPS()) {
		t.Fatalf("expected demo sample, got demo=%v items=%d", demo.Demo(), len(demo.Items()))
	}
}

func TestEPSView_SuccessClearsDemoFlag(t *testing.T) {
	var up atomic.Bool
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":7,"nombre":"Nueva EPS"}]}`)
	})

	v := NewEPSView(cat, true, nil)
	_ = v.Load(context.Background())
	up.Store(true)
	if err := v.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	items := v.Items()
	if v.Demo() || len(items) != 1 || items[0].Nombre != "Nueva EPS" {
		t.Fatalf("unexpected state demo=%v items=%+v", v.Demo(), items)
	}
}

func TestCitaForm_LoadsInParallelAndKeepsPartialResults(t *testing.T) {
	cat := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/medicos":
			w.WriteHeader(http.StatusInternalServerError)
		case "/pacientes":
			_, _ = io.WriteString(w, `{"success":true,"data":[{"id":1,"nombre":"Ana"}]}`)
		default:
			_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
		}
	})

	f := NewCitaForm(cat)
	defer f.Close()

	err := f.Load(context.Background())
	if err == nil || err.Error() != "Error al obtener médico" {
		t.Fatalf("expected medicos failure, got %v", err)
	}
	if got := f.Pacientes.Items(); len(got) != 1 || got[0].Nombre != "Ana" {
		t.Fatalf("unexpected pacientes %+v", got)
	}
	if f.Especialidades.Err() != nil || f.Consultorios.Err() != nil {
		t.Fatal("independent loads must not fail together")
	}
}

func TestLoadAll_Empty(t *testing.T) {
	if err := LoadAll(context.Background()); err != nil {
		t.Fatalf("unexpected %v", err)
	}
}

func TestAutoRefresh_ForceAndStop(t *testing.T) {
	var n int32
	a, err := StartAutoRefresh(context.Background(), time.Hour, func(context.Context) {
		atomic.AddInt32(&n, 1)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	a.ForceRefresh()
	if atomic.LoadInt32(&n) != 1 {
		t.Fatalf("expected one forced refresh, got %d", n)
	}

	a.Stop()
	a.Stop()
	a.ForceRefresh()
	if atomic.LoadInt32(&n) != 1 {
		t.Fatalf("stopped refresher must not run, got %d", n)
	}
}

func TestAutoRefresh_ForcedRunsDoNotOverlap(t *testing.T) {
	var active, peak int32
	a, err := StartAutoRefresh(context.Background(), time.Hour, func(context.Context) {
		cur := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			a.ForceRefresh()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	if p := atomic.LoadInt32(&peak); p != 1 {
		t.Fatalf("refreshes overlapped: peak %d", p)
	}
}

func TestAutoRefresh_Ticks(t *testing.T) {
	ticks := make(chan struct{}, 4)
	a, err := StartAutoRefresh(context.Background(), 20*time.Millisecond, func(context.Context) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a scheduled refresh")
	}
}

func TestCitaRow_CompletadaHasNoActions(t *testing.T) {
	admin := citas.Actor{Role: navigation.RoleAdmin}
	c := citas.Cita{ID: 3, PacienteID: 1, MedicoID: 2, Estado: citas.EstadoCompletada,
		Fecha: citas.NewFecha(2025, time.March, 4), Hora: mustHora(t, "09:30")}

	row := CitaRow(admin, c)
	if len(row.Actions) != 0 {
		t.Fatalf("expected no actions, got %v", row.Actions)
	}
	if row.Fecha != "04/03/2025" || row.Hora != "09:30" {
		t.Fatalf("unexpected formatting %q %q", row.Fecha, row.Hora)
	}
	if row.Paciente != "#1" || row.Medico != "#2" {
		t.Fatalf("unexpected fallback names %q %q", row.Paciente, row.Medico)
	}
}

func TestCitaRow_ProgramadaForDoctor(t *testing.T) {
	doc := citas.Actor{Role: navigation.RoleMedico, MedicoID: 7}
	c := citas.Cita{ID: 1, MedicoID: 7, Estado: citas.EstadoProgramada, MedicoNombre: "Juan", MedicoApellido: "Pérez"}

	row := CitaRow(doc, c)
	if !row.Can(citas.ActionConfirmar) || row.Can(citas.ActionCompletar) {
		t.Fatalf("unexpected actions %v", row.Actions)
	}
	if row.Medico != "Juan Pérez" {
		t.Fatalf("unexpected medico %q", row.Medico)
	}
}

func TestActorFor(t *testing.T) {
	snap := session.Snapshot{
		User:            &session.User{ID: 7, Tipo: navigation.RoleMedico},
		Role:            navigation.RoleMedico,
		IsAuthenticated: true,
	}
	if a := ActorFor(snap); a.MedicoID != 7 || a.PacienteID != 0 {
		t.Fatalf("unexpected actor %+v", a)
	}

	snap.Role = navigation.RolePaciente
	if a := ActorFor(snap); a.PacienteID != 7 || a.MedicoID != 0 {
		t.Fatalf("unexpected actor %+v", a)
	}

	if a := ActorFor(session.Snapshot{}); a != (citas.Actor{}) {
		t.Fatalf("expected zero actor, got %+v", a)
	}
}

func mustHora(t *testing.T, s string) citas.Hora {
	t.Helper()
	h, err := citas.ParseHora(s)
	if err != nil {
		t.Fatal(err)
	}
	return h
}
