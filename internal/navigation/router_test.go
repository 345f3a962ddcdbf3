package navigation

import "testing"

func TestDashboardFor(t *testing.T) {
	cases := map[Role]Dashboard{
		RoleAdmin:       AdminDashboard,
		RoleMedico:      MedicoDashboard,
		RolePaciente:    PacienteDashboard,
		"":              PacienteDashboard,
		"superuser":     PacienteDashboard,
		"administrador": AdminDashboard,
	}
	for r, want := range cases {
		if got := DashboardFor(r); got != want {
			t.Errorf("DashboardFor(%q) = %s want %s", r, got, want)
		}
	}
}

func TestCanAccess_ExactRoleMatch(t *testing.T) {
	cases := []struct {
		role   Role
		screen Screen
		want   bool
	}{
		{RoleMedico, MisCitasMedico, true},
		{RoleMedico, ReportesMedico, true},
		{RoleMedico, AgendarCita, false},
		{RolePaciente, AgendarCita, true},
		{RolePaciente, MiAgendaMedico, false},
		{RoleAdmin, Administradores, true},
		{RoleAdmin, Estadisticas, true},
		{RoleAdmin, MisCitasMedico, false},
		{RoleAdmin, AgendarCita, false},
		{RoleAdmin, Perfil, true},
		{RolePaciente, Administradores, false},
		{RoleMedico, Perfil, true},
		{RolePaciente, Login, false},
	}
	for _, tc := range cases {
		if got := CanAccess(tc.role, tc.screen); got != tc.want {
			t.Errorf("CanAccess(%s, %s) = %v want %v", tc.role, tc.screen, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	if r := Resolve(Status{Loading: true}); !r.Splash {
		t.Fatalf("loading should show splash, got %+v", r)
	}
	r := Resolve(Status{})
	if !r.Public || len(r.Screens) != 3 || r.Screens[0] != Inicio {
		t.Fatalf("anonymous should get public stack, got %+v", r)
	}
	r = Resolve(Status{Authenticated: true, Role: RoleMedico})
	if r.Dashboard != MedicoDashboard || r.Title != "Panel Médico" || r.Public {
		t.Fatalf("unexpected %+v", r)
	}
	r = Resolve(Status{Authenticated: true, Role: "desconocido"})
	if r.Dashboard != PacienteDashboard {
		t.Fatalf("unknown role should fall back to paciente, got %+v", r)
	}
}

func TestResolveScreen(t *testing.T) {
	if ResolveScreen(RoleMedico, MisCitas) != MisCitasMedico {
		t.Fatal("medico MisCitas")
	}
	if ResolveScreen(RolePaciente, MisCitas) != MisCitasPaciente {
		t.Fatal("paciente MisCitas")
	}
	if ResolveScreen(RoleAdmin, Citas) != Citas {
		t.Fatal("non-alias must pass through")
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole(" Medico ") != RoleMedico || ParseRole("x") != "" {
		t.Fatal("unexpected ParseRole")
	}
	if !RoleAdmin.Valid() || Role("administrador").Valid() {
		t.Fatal("unexpected Valid")
	}
}
