package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxDB is the subset of pgxpool.Pool used by the repository; pgxmock
// implements it for tests.
type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database. The
// clients foreign key is ON DELETE CASCADE, so client deletion clears the
// client's appointments at the storage layer as well.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for tests.
func NewPostgresRepositoryWithDB(db pgxDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const apptColumns = `id, client_id, date, treatment, doctor, notes, created_at, updated_at`

// Add inserts a new row and returns it with the generated id.
func (r *PostgresRepository) Add(ctx context.Context, appt *Appointment) (*Appointment, error) {
	stored := *appt
	stored.ID = uuid.New().String()
	stored.Date = stored.Date.UTC()

	query := `
		INSERT INTO appointments (id, client_id, date, treatment, doctor, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		stored.ID,
		stored.ClientID,
		stored.Date,
		string(stored.Treatment),
		stored.Doctor,
		stored.Notes,
	).Scan(&stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return &stored, nil
}

// GetByID fetches an appointment by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// Update replaces the row matching appt.ID.
func (r *PostgresRepository) Update(ctx context.Context, appt *Appointment) (*Appointment, error) {
	stored := *appt
	stored.Date = stored.Date.UTC()

	query := `
		UPDATE appointments
		SET date=$1, treatment=$2, doctor=$3, notes=$4, updated_at=NOW()
		WHERE id=$5
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		stored.Date,
		string(stored.Treatment),
		stored.Doctor,
		stored.Notes,
		stored.ID,
	).Scan(&stored.CreatedAt, &stored.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: update failed: %w", err)
	}
	return &stored, nil
}

// Delete removes the row. Deleting an unknown id is a no-op.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	return nil
}

// DeleteByClient removes every appointment referencing the client.
func (r *PostgresRepository) DeleteByClient(ctx context.Context, clientID string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE client_id = $1`, clientID)
	if err != nil {
		return 0, fmt.Errorf("appointments: cascade delete failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ByClient returns the client's appointments, most recent first.
func (r *PostgresRepository) ByClient(ctx context.Context, clientID string) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE client_id = $1 ORDER BY date DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("appointments: by client failed: %w", err)
	}
	return collectAppointments(rows)
}

// OnDay returns the appointments on the given UTC calendar day, ascending.
func (r *PostgresRepository) OnDay(ctx context.Context, day time.Time) ([]*Appointment, error) {
	start := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	rows, err := r.db.Query(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE date >= $1 AND date < $2 ORDER BY date`, start, end)
	if err != nil {
		return nil, fmt.Errorf("appointments: on day failed: %w", err)
	}
	return collectAppointments(rows)
}

// All returns a full snapshot ordered by date ascending.
func (r *PostgresRepository) All(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+apptColumns+` FROM appointments ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var treatment string
	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.Date,
		&treatment,
		&a.Doctor,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Treatment = Treatment(treatment)
	return &a, nil
}
