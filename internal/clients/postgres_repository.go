package clients

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

// PostgresRepository stores clients in the relational database.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for tests.
func NewPostgresRepositoryWithDB(db pgxDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const clientColumns = `id, given_name, family_name, birth_date, phone, email, address, medical_notes, created_at, updated_at`

// Create inserts a new row and returns the persisted client.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateClientRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO clients (id, given_name, family_name, birth_date, phone, email, address, medical_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.GivenName,
		req.FamilyName,
		req.BirthDate,
		req.Phone,
		req.Email,
		req.Address,
		req.MedicalNotes,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("clients: insert failed: %w", err)
	}

	return &Client{
		ID:           id,
		GivenName:    req.GivenName,
		FamilyName:   req.FamilyName,
		BirthDate:    req.BirthDate,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		MedicalNotes: req.MedicalNotes,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// GetByID fetches a client by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("clients: select failed: %w", err)
	}
	return client, nil
}

// Update applies the set fields and returns the updated row.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdateClientRequest) (*Client, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(current)

	query := `
		UPDATE clients
		SET given_name=$1, family_name=$2, birth_date=$3, phone=$4, email=$5, address=$6, medical_notes=$7, updated_at=NOW()
		WHERE id=$8
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		current.GivenName,
		current.FamilyName,
		current.BirthDate,
		current.Phone,
		current.Email,
		current.Address,
		current.MedicalNotes,
		id,
	).Scan(&current.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("clients: update failed: %w", err)
	}
	return current, nil
}

// Delete removes the row. The appointments FK is ON DELETE CASCADE, so the
// client's appointments go with it. Deleting an unknown id is a no-op.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clients: delete failed: %w", err)
	}
	return nil
}

// List returns all clients ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY family_name, given_name`)
	if err != nil {
		return nil, fmt.Errorf("clients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("clients: scan failed: %w", err)
		}
		out = append(out, client)
	}
	return out, rows.Err()
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.GivenName,
		&c.FamilyName,
		&c.BirthDate,
		&c.Phone,
		&c.Email,
		&c.Address,
		&c.MedicalNotes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
