package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

const (
	dayKindFree                 = "free"
	dayKindSingleShiftForbidden = "single_shift_forbidden"
)

const selectRosterPlans = `
	SELECT
		rp.id,
		rp.name,
		rp.description,
		rp.year,
		rp.month,
		rp.created_at,
		rp.version,
		rpd.day,
		rpd.kind
	FROM roster_plans rp
	LEFT JOIN roster_plan_days rpd ON rp.id = rpd.roster_plan_id
`

// scanRosterPlans 将一行一天的查询结果组装为排班计划，保持查询的顺序
func scanRosterPlans(rows *sql.Rows) ([]*domain.RosterPlan, error) {
	plans := make([]*domain.RosterPlan, 0)
	plansMap := make(map[int64]*domain.RosterPlan)

	for rows.Next() {
		var row struct {
			ID          int64
			Name        string
			Description string
			Year        int32
			Month       int32
			CreatedAt   time.Time
			Version     int32

			Day  sql.NullInt32
			Kind sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Description,
			&row.Year,
			&row.Month,
			&row.CreatedAt,
			&row.Version,
			&row.Day,
			&row.Kind,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		plan, exists := plansMap[row.ID]
		if !exists {
			plan = &domain.RosterPlan{
				ID:                       row.ID,
				Name:                     row.Name,
				Description:              row.Description,
				Year:                     row.Year,
				Month:                    row.Month,
				FreeDays:                 make([]int32, 0),
				SingleShiftForbiddenDays: make([]int32, 0),
				CreatedAt:                row.CreatedAt,
				Version:                  row.Version,
			}
			plansMap[row.ID] = plan
			plans = append(plans, plan)
		}

		// 计划没有任何特殊日期
		if !row.Day.Valid {
			continue
		}

		switch row.Kind.String {
		case dayKindFree:
			plan.FreeDays = append(plan.FreeDays, row.Day.Int32)
		case dayKindSingleShiftForbidden:
			plan.SingleShiftForbiddenDays = append(plan.SingleShiftForbiddenDays, row.Day.Int32)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *Repository) GetAllRosterPlans() ([]*domain.RosterPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := selectRosterPlans + `ORDER BY rp.year DESC, rp.month DESC, rp.id, rpd.day`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRosterPlans(rows)
}

func (r *Repository) GetRosterPlanByID(id int64) (*domain.RosterPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := selectRosterPlans + `WHERE rp.id = $1 ORDER BY rpd.day`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans, err := scanRosterPlans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, sql.ErrNoRows
	}

	return plans[0], nil
}

func insertRosterPlanDays(ctx context.Context, tx *sql.Tx, plan *domain.RosterPlan) error {
	query := `
		INSERT INTO roster_plan_days (roster_plan_id, day, kind)
		VALUES ($1, $2, $3)
	`

	for _, day := range plan.FreeDays {
		if _, err := tx.ExecContext(ctx, query, plan.ID, day, dayKindFree); err != nil {
			return err
		}
	}
	for _, day := range plan.SingleShiftForbiddenDays {
		if _, err := tx.ExecContext(ctx, query, plan.ID, day, dayKindSingleShiftForbidden); err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) CreateRosterPlan(plan *domain.RosterPlan) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO roster_plans (name, description, year, month)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	args := []any{plan.Name, plan.Description, plan.Year, plan.Month}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&plan.ID, &plan.CreatedAt, &plan.Version); err != nil {
		return err
	}

	if err := insertRosterPlanDays(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// UpdateRosterPlan 更新计划并整体替换它的特殊日期，版本号不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateRosterPlan(plan *domain.RosterPlan) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE roster_plans
		SET
			name = $1,
			description = $2,
			year = $3,
			month = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`
	args := []any{plan.Name, plan.Description, plan.Year, plan.Month, plan.ID, plan.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&plan.Version); err != nil {
		return err
	}

	query = `DELETE FROM roster_plan_days WHERE roster_plan_id = $1`
	if _, err := tx.ExecContext(ctx, query, plan.ID); err != nil {
		return err
	}

	if err := insertRosterPlanDays(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteRosterPlan(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `DELETE FROM roster_plans WHERE id = $1`
	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
