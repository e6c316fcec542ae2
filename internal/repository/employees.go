package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func (r *Repository) GetEmployeeByID(id int64) (*domain.Employee, error) {
	query := `
		SELECT username, password_hash, full_name, email, role, is_active, created_at, version
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	employee := &domain.Employee{
		ID: id,
	}

	dst := []any{&employee.Username, &employee.PasswordHash, &employee.FullName, &employee.Email, &employee.Role, &employee.IsActive, &employee.CreatedAt, &employee.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return employee, nil
}

func (r *Repository) GetEmployeeByUsername(username string) (*domain.Employee, error) {
	query := `
		SELECT id, password_hash, full_name, email, role, is_active, created_at, version
		FROM users WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	employee := &domain.Employee{
		Username: username,
	}

	dst := []any{&employee.ID, &employee.PasswordHash, &employee.FullName, &employee.Email, &employee.Role, &employee.IsActive, &employee.CreatedAt, &employee.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return employee, nil
}

func (r *Repository) UpdateEmployee(employee *domain.Employee) error {
	query := `
		UPDATE users
		SET
			password_hash = $1,
			full_name = $2,
			email = $3,
			role = $4,
			is_active = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING username, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{employee.PasswordHash, employee.FullName, employee.Email, employee.Role, employee.IsActive, employee.ID, employee.Version}
	dst := []any{&employee.Username, &employee.CreatedAt, &employee.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllEmployees() ([]*domain.Employee, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, is_active, created_at, version
		FROM users ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		employee := &domain.Employee{}
		dst := []any{&employee.ID, &employee.Username, &employee.PasswordHash, &employee.FullName, &employee.Email, &employee.Role, &employee.IsActive, &employee.CreatedAt, &employee.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (r *Repository) DeleteEmployee(id int64) error {
	query := `
		DELETE FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateEmployee(employee *domain.Employee) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, full_name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, version
	`

	args := []any{employee.Username, employee.PasswordHash, employee.FullName, employee.Email, employee.Role}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&employee.ID, &employee.IsActive, &employee.CreatedAt, &employee.Version); err != nil {
		return err
	}

	return nil
}
