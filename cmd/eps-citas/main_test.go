package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eps-citas/internal/adapters/auth/jwtauth"
	"eps-citas/internal/config"
	"eps-citas/internal/domain/citas"
	"eps-citas/internal/domain/resource"
	"eps-citas/internal/mockapi"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/router"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	signer, err := jwtauth.New("cli-secret", time.Hour)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	h, err := router.NewRouter(router.Options{
		Tokens:     signer,
		Registry:   prometheus.NewRegistry(),
		Seed:       true,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	return &config.Config{
		APIBaseURL:   ts.URL + router.APIPrefix,
		HTTPTimeout:  5 * time.Second,
		SessionStore: config.SessionStoreFile,
		SessionDir:   t.TempDir(),
		AutoRefresh:  30 * time.Second,
		AppName:      "eps-citas-test",
	}
}

// run ejecuta un comando como lo haría main, con un app nuevo por invocación.
func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a, func(string) (*config.Config, error) { return cfg, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	a.close()
	return out.String(), err
}

func mustRun(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func login(t *testing.T, cfg *config.Config, email, tipo string) string {
	t.Helper()
	return mustRun(t, cfg, "login", "--email", email, "--password", mockapi.DemoPassword, "--tipo", tipo)
}

func TestCLI_MedicoLifecycle(t *testing.T) {
	cfg := newTestConfig(t)

	out := login(t, cfg, mockapi.DemoMedicoEmail, "medico")
	if !strings.Contains(out, "Bienvenido, Juan Pérez (medico)") || !strings.Contains(out, "Panel Médico") {
		t.Fatalf("login output: %q", out)
	}

	// La sesión sobrevive entre invocaciones porque vive en disco.
	out = mustRun(t, cfg, "whoami")
	if !strings.Contains(out, mockapi.DemoMedicoEmail) || !strings.Contains(out, "medico") {
		t.Fatalf("whoami: %q", out)
	}

	out = mustRun(t, cfg, "citas", "list")
	if !strings.Contains(out, "ACCIONES") || !strings.Contains(out, "Ana Gómez") {
		t.Fatalf("citas list: %q", out)
	}

	if out = mustRun(t, cfg, "citas", "confirm", "1"); !strings.Contains(out, "Cita #1: confirmada") {
		t.Fatalf("confirm: %q", out)
	}
	if out = mustRun(t, cfg, "citas", "complete", "1"); !strings.Contains(out, "Cita #1: completada") {
		t.Fatalf("complete: %q", out)
	}
	if _, err := run(t, cfg, "citas", "confirm", "1"); err == nil || err.Error() != citas.MsgAccionNoPermitida {
		t.Fatalf("confirm completada: %v", err)
	}

	if out = mustRun(t, cfg, "citas", "observe", "1", "Control", "en", "un", "mes"); !strings.Contains(out, "#1") {
		t.Fatalf("observe: %q", out)
	}

	// Un médico no administra el catálogo.
	if _, err := run(t, cfg, "eps", "delete", "1"); !errors.Is(err, errRol) {
		t.Fatalf("eps delete as medico: %v", err)
	}

	if out = mustRun(t, cfg, "logout"); !strings.Contains(out, "Sesión cerrada") {
		t.Fatalf("logout: %q", out)
	}
	if _, err := run(t, cfg, "whoami"); !errors.Is(err, errNoSession) {
		t.Fatalf("whoami after logout: %v", err)
	}
}

func TestCLI_AdminCatalog(t *testing.T) {
	cfg := newTestConfig(t)
	login(t, cfg, mockapi.DemoAdminEmail, "admin")

	if out := mustRun(t, cfg, "menu"); !strings.Contains(out, "Panel Admin") {
		t.Fatalf("menu: %q", out)
	}
	if out := mustRun(t, cfg, "eps", "list"); !strings.Contains(out, "NIT") || strings.Contains(out, "sin conexión") {
		t.Fatalf("eps list: %q", out)
	}
	if out := mustRun(t, cfg, "especialidades", "get", "1"); !strings.Contains(out, "Medicina General") {
		t.Fatalf("especialidades get: %q", out)
	}
	out := mustRun(t, cfg, "stats")
	if !strings.Contains(out, "pacientes") || !strings.Contains(out, "especialidades") {
		t.Fatalf("stats: %q", out)
	}
	if strings.Contains(out, "No se pudo cargar") {
		t.Fatalf("stats partial: %q", out)
	}
	if out := mustRun(t, cfg, "citas", "opciones"); !strings.Contains(out, "consultorio") {
		t.Fatalf("opciones: %q", out)
	}
	if _, err := run(t, cfg, "consultorios", "get", "999"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestCLI_PacienteProxima(t *testing.T) {
	cfg := newTestConfig(t)
	login(t, cfg, mockapi.DemoPacienteEmail, "paciente")

	out := mustRun(t, cfg, "citas", "proxima")
	if !strings.Contains(out, "programada") {
		t.Fatalf("proxima: %q", out)
	}
	if _, err := run(t, cfg, "stats"); !errors.Is(err, errRol) {
		t.Fatalf("stats as paciente: %v", err)
	}
}

func TestCLI_RequiresSession(t *testing.T) {
	cfg := newTestConfig(t)
	if _, err := run(t, cfg, "citas", "list"); !errors.Is(err, errNoSession) {
		t.Fatalf("got %v", err)
	}
	if out := mustRun(t, cfg, "menu"); !strings.Contains(out, "Sin sesión") {
		t.Fatalf("menu: %q", out)
	}
}

func TestCLI_LoginRejectsUnknownTipo(t *testing.T) {
	cfg := newTestConfig(t)
	if _, err := run(t, cfg, "login", "--email", "x@test.com", "--password", "x", "--tipo", "gerente"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCLI_WatchCitas(t *testing.T) {
	cfg := newTestConfig(t)
	login(t, cfg, mockapi.DemoMedicoEmail, "medico")

	out := mustRun(t, cfg, "watch", "citas", "--interval", "1h", "--count", "1")
	if !strings.Contains(out, "---") || !strings.Contains(out, "ESTADO") {
		t.Fatalf("watch: %q", out)
	}
}

func TestFailure_ServerKindAddsHint(t *testing.T) {
	err := failure(resource.Result[int]{Message: "boom", Kind: httpclient.KindServer})
	if err.Error() != "boom\n"+msgServidor {
		t.Fatalf("got %q", err)
	}
	err = failure(resource.Result[int]{Kind: httpclient.KindNetwork})
	if err.Error() != "Error inesperado" {
		t.Fatalf("got %q", err)
	}
}

func TestUserMessage_MapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errNoSession, msgNoSession},
		{fmt.Errorf("whoami: %w", errNoSession), msgNoSession},
		{errRol, msgRol},
		{errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		if got := userMessage(tc.err); got != tc.want {
			t.Errorf("userMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
