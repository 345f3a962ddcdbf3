package navigation

type Dashboard string

const (
	AdminDashboard    Dashboard = "AdminDashboard"
	MedicoDashboard   Dashboard = "MedicoDashboard"
	PacienteDashboard Dashboard = "PacienteDashboard"
)

func (d Dashboard) Title() string {
	switch d {
	case AdminDashboard:
		return "Panel Admin"
	case MedicoDashboard:
		return "Panel Médico"
	default:
		return "Panel Paciente"
	}
}

type Screen string

const (
	// públicas
	Splash   Screen = "Splash"
	Inicio   Screen = "Inicio"
	Login    Screen = "Login"
	Registro Screen = "Register"

	// gestión (admin)
	Citas           Screen = "Citas"
	Pacientes       Screen = "Pacientes"
	Medicos         Screen = "Medicos"
	Especialidades  Screen = "Especialidades"
	Consultorios    Screen = "Consultorios"
	EPS             Screen = "Eps"
	Administradores Screen = "Administradores"
	Estadisticas    Screen = "Estadisticas"

	// cualquier usuario con sesión
	Perfil            Screen = "Perfil"
	EditarPerfil      Screen = "EditarPerfil"
	CambiarContrasena Screen = "CambiarContrasena"

	// alias que se resuelve según rol
	MisCitas Screen = "MisCitas"

	// médico
	MisCitasMedico Screen = "MisCitasMedico"
	MiAgendaMedico Screen = "MiAgendaMedico"
	ReportesMedico Screen = "ReportesMedico"

	// paciente
	AgendarCita      Screen = "AgendarCita"
	MisCitasPaciente Screen = "MisCitasPaciente"
	Historial        Screen = "Historial"
	Emergencias      Screen = "Emergencias"
)

var (
	publicScreens  = []Screen{Inicio, Login, Registro}
	profileScreens = []Screen{Perfil, EditarPerfil, CambiarContrasena}

	byRole = map[Role][]Screen{
		RoleAdmin:    {Citas, Pacientes, Medicos, Especialidades, Consultorios, EPS, Administradores, Estadisticas},
		RoleMedico:   {MisCitas, MisCitasMedico, MiAgendaMedico, ReportesMedico, Pacientes},
		RolePaciente: {MisCitas, AgendarCita, MisCitasPaciente, Historial, Emergencias},
	}
)

// DashboardFor: cualquier rol no reconocido (o vacío) cae en el de paciente.
func DashboardFor(r Role) Dashboard {
	switch ParseRole(string(r)) {
	case RoleAdmin:
		return AdminDashboard
	case RoleMedico:
		return MedicoDashboard
	default:
		return PacienteDashboard
	}
}

// ScreensFor devuelve las pantallas alcanzables por el rol (sin las públicas).
func ScreensFor(r Role) []Screen {
	role := ParseRole(string(r))
	if role == "" {
		role = RolePaciente
	}
	out := make([]Screen, 0, len(byRole[role])+len(profileScreens))
	out = append(out, byRole[role]...)
	out = append(out, profileScreens...)
	return out
}

func PublicScreens() []Screen {
	return append([]Screen(nil), publicScreens...)
}

// CanAccess: coincidencia exacta de rol para las pantallas de cada rol.
func CanAccess(r Role, s Screen) bool {
	for _, x := range ScreensFor(r) {
		if x == s {
			return true
		}
	}
	return false
}

// ResolveScreen traduce el alias MisCitas a la variante del rol.
func ResolveScreen(r Role, s Screen) Screen {
	if s != MisCitas {
		return s
	}
	if ParseRole(string(r)) == RoleMedico {
		return MisCitasMedico
	}
	return MisCitasPaciente
}

// Status es lo mínimo de la sesión que el router necesita.
type Status struct {
	Loading       bool
	Authenticated bool
	Role          Role
}

// Route es lo que se monta: splash, stack público o dashboard + pantallas.
type Route struct {
	Splash    bool
	Public    bool
	Dashboard Dashboard
	Title     string
	Screens   []Screen
}

func Resolve(st Status) Route {
	switch {
	case st.Loading:
		return Route{Splash: true, Screens: []Screen{Splash}}
	case !st.Authenticated:
		return Route{Public: true, Screens: PublicScreens()}
	}
	d := DashboardFor(st.Role)
	return Route{Dashboard: d, Title: d.Title(), Screens: ScreensFor(st.Role)}
}
