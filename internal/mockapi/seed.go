package mockapi

import (
	"context"
	"fmt"

	"eps-citas/internal/domain/catalog"
	"eps-citas/internal/domain/citas"
	"eps-citas/internal/ports/records"
)

// DemoPassword es la contraseña de todas las cuentas sembradas.
const DemoPassword = "123456"

// Cuentas demo.
const (
	DemoAdminEmail    = "admin@test.com"
	DemoMedicoEmail   = "doc@test.com"
	DemoPacienteEmail = "paciente@test.com"
)

// Seed carga datos de ejemplo. No hace nada si ya hay administradores, así se puede
// llamar en cada arranque contra Postgres.
func (s *Server) Seed(ctx context.Context) error {
	admins, err := s.repo.List(ctx, colAdministradores)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return nil
	}

	hashed, err := s.hash(DemoPassword)
	if err != nil {
		return err
	}

	create := func(col string, v any) (int64, error) {
		rec, err := toRecord(v)
		if err != nil {
			return 0, err
		}
		if _, isUser := rec["email"]; isUser && col != colEPS {
			rec["password"] = hashed
			rec["activo"] = true
		}
		out, err := s.repo.Create(ctx, col, rec)
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", col, err)
		}
		return out.ID(), nil
	}

	esp := map[string]int64{}
	for _, e := range []catalog.Especialidad{
		{Nombre: "Medicina General", Descripcion: "Atención primaria"},
		{Nombre: "Cardiología", Descripcion: "Corazón y sistema circulatorio"},
		{Nombre: "Pediatría", Descripcion: "Atención infantil"},
		{Nombre: "Dermatología", Descripcion: "Piel"},
	} {
		id, err := create(colEspecialidades, e)
		if err != nil {
			return err
		}
		esp[e.Nombre] = id
	}

	consultorio, err := create(colConsultorios, catalog.Consultorio{Nombre: "Consultorio 101", Ubicacion: "Piso 1, Torre A", Telefono: "6011111111", Numero: "101", Piso: "1", Edificio: "A"})
	if err != nil {
		return err
	}
	if _, err := create(colConsultorios, catalog.Consultorio{Nombre: "Consultorio 202", Ubicacion: "Piso 2, Torre B", Telefono: "6012222222", Numero: "202", Piso: "2", Edificio: "B"}); err != nil {
		return err
	}

	var epsID int64
	for i, e := range catalog.SampleEPS() {
		e.ID = 0
		id, err := create(colEPS, e)
		if err != nil {
			return err
		}
		if i == 0 {
			epsID = id
		}
	}

	if _, err := create(colAdministradores, catalog.Administrador{Nombre: "Admin", Apellido: "EPS", Email: DemoAdminEmail, Telefono: "3000000000"}); err != nil {
		return err
	}

	doc, err := create(colMedicos, catalog.Medico{
		Nombre: "Juan", Apellido: "Pérez", Email: DemoMedicoEmail, Telefono: "3001111111",
		NumeroLicencia: "MED-001", EspecialidadID: esp["Medicina General"],
	})
	if err != nil {
		return err
	}
	if _, err := create(colMedicos, catalog.Medico{
		Nombre: "María", Apellido: "López", Email: "maria.lopez@test.com", Telefono: "3002222222",
		NumeroLicencia: "MED-002", EspecialidadID: esp["Cardiología"],
	}); err != nil {
		return err
	}

	paciente, err := create(colPacientes, catalog.Paciente{
		Nombre: "Ana", Apellido: "Gómez", Email: DemoPacienteEmail, Telefono: "3103333333",
		FechaNacimiento: "1990-05-12", TipoDocumento: "CC", NumeroDocumento: "1010101010",
		Direccion: "Calle 1 #2-3", EPSID: &epsID,
	})
	if err != nil {
		return err
	}
	otro, err := create(colPacientes, catalog.Paciente{
		Nombre: "Carlos", Apellido: "Ruiz", Email: "carlos.ruiz@test.com", Telefono: "3104444444",
		FechaNacimiento: "1985-11-02", TipoDocumento: "CC", NumeroDocumento: "2020202020",
		Direccion: "Carrera 4 #5-6", EPSID: &epsID,
	})
	if err != nil {
		return err
	}

	today := citas.FechaOf(s.now())
	day := func(offset int) string { return citas.FechaOf(today.Time().AddDate(0, 0, offset)).String() }
	seedCitas := []records.Record{
		{"paciente_id": paciente, "medico_id": doc, "especialidad_id": esp["Medicina General"], "consultorio_id": consultorio,
			"fecha": day(1), "hora": "09:00:00", "motivo": "Control general", "estado": string(citas.EstadoProgramada)},
		{"paciente_id": paciente, "medico_id": doc, "especialidad_id": esp["Medicina General"], "consultorio_id": consultorio,
			"fecha": day(2), "hora": "10:30:00", "motivo": "Revisión de exámenes", "estado": string(citas.EstadoConfirmada)},
		{"paciente_id": otro, "medico_id": doc, "especialidad_id": esp["Medicina General"],
			"fecha": day(-3), "hora": "08:00:00", "motivo": "Dolor de cabeza", "estado": string(citas.EstadoCompletada),
			"observaciones": "Se formula analgésico"},
		{"paciente_id": otro, "medico_id": doc, "especialidad_id": esp["Medicina General"],
			"fecha": day(-1), "hora": "15:00:00", "motivo": "Chequeo", "estado": string(citas.EstadoCancelada)},
	}
	for _, c := range seedCitas {
		if _, err := s.repo.Create(ctx, colCitas, c); err != nil {
			return fmt.Errorf("seed citas: %w", err)
		}
	}

	s.log.Info("demo data seeded", map[string]any{"citas": len(seedCitas)})
	return nil
}
