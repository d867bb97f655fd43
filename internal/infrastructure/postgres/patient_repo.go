package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"
	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the unique index
// on patients.email. The index, not the ExistsByEmail pre-check, is what
// rejects concurrent duplicate creates.
const uniqueViolation = "23505"

type PatientRepository struct {
	pool *pgxpool.Pool
}

func NewPatientRepository(pool *pgxpool.Pool) *PatientRepository {
	return &PatientRepository{pool: pool}
}

type executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *PatientRepository) executor(ctx context.Context) executor {
	if tx := GetTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	const sql = `
		INSERT INTO patients (
			id, name, email, phone_number,
			date_of_birth, registered_date, priority,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.executor(ctx).Exec(ctx, sql,
		p.ID, p.Name, p.Email, p.PhoneNumber,
		p.DateOfBirth, p.RegisteredDate, p.Priority,
		p.CreatedAt, p.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.Conflict("a patient with email %s already exists", p.Email)
		}
		return apperror.Unavailable("insert patient", err)
	}

	return nil
}

func (r *PatientRepository) Update(ctx context.Context, p *patient.Patient) error {
	const sql = `
		UPDATE patients
		SET name = $2, email = $3, phone_number = $4,
		    date_of_birth = $5, priority = $6, updated_at = NOW()
		WHERE id = $1
	`

	cmdTag, err := r.executor(ctx).Exec(ctx, sql,
		p.ID, p.Name, p.Email, p.PhoneNumber, p.DateOfBirth, p.Priority)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.Conflict("a patient with email %s already exists", p.Email)
		}
		return apperror.Unavailable("update patient", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperror.NotFound("patient not found with id %s", p.ID)
	}

	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM patients WHERE id = $1`

	cmdTag, err := r.executor(ctx).Exec(ctx, sql, id)
	if err != nil {
		return apperror.Unavailable("delete patient", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperror.NotFound("patient not found with id %s", id)
	}

	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*patient.Patient, error) {
	const sql = `
		SELECT id, name, email, phone_number,
		       date_of_birth, registered_date, priority,
		       created_at, updated_at
		FROM patients
		WHERE id = $1
	`

	var p patient.Patient
	err := r.pool.QueryRow(ctx, sql, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.PhoneNumber,
		&p.DateOfBirth, &p.RegisteredDate, &p.Priority,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("patient not found with id %s", id)
		}
		return nil, apperror.Unavailable("get patient by id", err)
	}

	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context) ([]*patient.Patient, error) {
	const sql = `
		SELECT id, name, email, phone_number,
		       date_of_birth, registered_date, priority,
		       created_at, updated_at
		FROM patients
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, apperror.Unavailable("list patients", err)
	}
	defer rows.Close()

	var patients []*patient.Patient
	for rows.Next() {
		p := &patient.Patient{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Email, &p.PhoneNumber,
			&p.DateOfBirth, &p.RegisteredDate, &p.Priority,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}

	return patients, nil
}

func (r *PatientRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id)
}

func (r *PatientRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1)`, email)
}

func (r *PatientRepository) ExistsByEmailExcluding(ctx context.Context, email, id string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1 AND id <> $2)`, email, id)
}

func (r *PatientRepository) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var row interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	} = r.pool

	if tx := GetTx(ctx); tx != nil {
		row = tx
	}

	var exists bool
	if err := row.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, apperror.Unavailable("exists query", err)
	}
	return exists, nil
}
