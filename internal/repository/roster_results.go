package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// InsertRosterResult 写入计划的排班结果，计划之前的结果会被覆盖
func (r *Repository) InsertRosterResult(result *domain.RosterResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的排班结果删除
	query := `DELETE FROM roster_results WHERE roster_plan_id = $1`
	if _, err := tx.ExecContext(ctx, query, result.RosterPlanID); err != nil {
		return err
	}

	query = `
		INSERT INTO roster_results (roster_plan_id, cost, is_perfect)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`
	args := []any{result.RosterPlanID, result.Cost, result.IsPerfect}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&result.ID, &result.CreatedAt, &result.Version); err != nil {
		return err
	}

	for _, day := range result.Days {
		query := `
			INSERT INTO roster_result_days (roster_result_id, day, employee_id)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, result.ID, day.Day, day.EmployeeID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRosterResultByPlanID(planID int64) (*domain.RosterResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			rr.id,
			rr.cost,
			rr.is_perfect,
			rr.created_at,
			rr.version,
			rrd.day,
			rrd.employee_id
		FROM roster_results rr
		LEFT JOIN roster_result_days rrd ON rr.id = rrd.roster_result_id
		WHERE rr.roster_plan_id = $1
		ORDER BY rrd.day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result *domain.RosterResult
	for rows.Next() {
		var row struct {
			ID        int64
			Cost      float64
			IsPerfect bool
			CreatedAt time.Time
			Version   int32

			Day        sql.NullInt32
			EmployeeID sql.NullInt64
		}

		dst := []any{&row.ID, &row.Cost, &row.IsPerfect, &row.CreatedAt, &row.Version, &row.Day, &row.EmployeeID}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if result == nil {
			result = &domain.RosterResult{
				ID:           row.ID,
				RosterPlanID: planID,
				Cost:         row.Cost,
				IsPerfect:    row.IsPerfect,
				Days:         make([]domain.RosterResultDay, 0),
				CreatedAt:    row.CreatedAt,
				Version:      row.Version,
			}
		}

		if !row.Day.Valid {
			continue
		}

		day := domain.RosterResultDay{Day: row.Day.Int32}
		if row.EmployeeID.Valid {
			employeeID := row.EmployeeID.Int64
			day.EmployeeID = &employeeID
		}
		result.Days = append(result.Days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		return nil, sql.ErrNoRows
	}

	return result, nil
}
