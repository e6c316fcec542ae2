package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

const (
	dayKindUnavailable = "unavailable"
	dayKindFixed       = "fixed"
)

// GetRosterEntriesByPlanID 返回计划中所有员工的排班需求，按员工 ID 升序排列
func (r *Repository) GetRosterEntriesByPlanID(planID int64) ([]*domain.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			re.id,
			re.employee_id,
			re.days_to_work_total,
			re.days_to_work_at_free_day,
			re.max_length_of_shift,
			re.wished_length_of_shift,
			re.additional_free_days_between_shifts,
			red.day,
			red.kind
		FROM roster_entries re
		LEFT JOIN roster_entry_days red ON re.id = red.roster_entry_id
		WHERE re.roster_plan_id = $1
		ORDER BY re.employee_id, red.day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.RosterEntry, 0)
	entriesMap := make(map[int64]*domain.RosterEntry)

	for rows.Next() {
		var row struct {
			ID                              int64
			EmployeeID                      int64
			DaysToWorkTotal                 float64
			DaysToWorkAtFreeDay             float64
			MaxLengthOfShift                float64
			WishedLengthOfShift             float64
			AdditionalFreeDaysBetweenShifts sql.NullFloat64

			Day  sql.NullInt32
			Kind sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.EmployeeID,
			&row.DaysToWorkTotal,
			&row.DaysToWorkAtFreeDay,
			&row.MaxLengthOfShift,
			&row.WishedLengthOfShift,
			&row.AdditionalFreeDaysBetweenShifts,
			&row.Day,
			&row.Kind,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		entry, exists := entriesMap[row.ID]
		if !exists {
			entry = &domain.RosterEntry{
				ID:                  row.ID,
				RosterPlanID:        planID,
				EmployeeID:          row.EmployeeID,
				DaysToWorkTotal:     row.DaysToWorkTotal,
				DaysToWorkAtFreeDay: row.DaysToWorkAtFreeDay,
				MaxLengthOfShift:    row.MaxLengthOfShift,
				WishedLengthOfShift: row.WishedLengthOfShift,
				UnavailableDays:     make([]int32, 0),
				FixedDays:           make([]int32, 0),
			}
			if row.AdditionalFreeDaysBetweenShifts.Valid {
				additional := row.AdditionalFreeDaysBetweenShifts.Float64
				entry.AdditionalFreeDaysBetweenShifts = &additional
			}
			entriesMap[row.ID] = entry
			entries = append(entries, entry)
		}

		if !row.Day.Valid {
			continue
		}

		switch row.Kind.String {
		case dayKindUnavailable:
			entry.UnavailableDays = append(entry.UnavailableDays, row.Day.Int32)
		case dayKindFixed:
			entry.FixedDays = append(entry.FixedDays, row.Day.Int32)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func insertRosterEntryDays(ctx context.Context, tx *sql.Tx, entryID int64, days []int32, kind string) error {
	query := `
		INSERT INTO roster_entry_days (roster_entry_id, day, kind)
		VALUES ($1, $2, $3)
	`
	for _, day := range days {
		if _, err := tx.ExecContext(ctx, query, entryID, day, kind); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceRosterEntries 删除计划原有的所有需求并写入新的需求
func (r *Repository) ReplaceRosterEntries(planID int64, entries []*domain.RosterEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `DELETE FROM roster_entries WHERE roster_plan_id = $1`
	if _, err := tx.ExecContext(ctx, query, planID); err != nil {
		return err
	}

	for _, entry := range entries {
		query := `
			INSERT INTO roster_entries (
				roster_plan_id,
				employee_id,
				days_to_work_total,
				days_to_work_at_free_day,
				max_length_of_shift,
				wished_length_of_shift,
				additional_free_days_between_shifts
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`

		entry.RosterPlanID = planID
		args := []any{
			planID,
			entry.EmployeeID,
			entry.DaysToWorkTotal,
			entry.DaysToWorkAtFreeDay,
			entry.MaxLengthOfShift,
			entry.WishedLengthOfShift,
			entry.AdditionalFreeDaysBetweenShifts,
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
			return err
		}

		if err := insertRosterEntryDays(ctx, tx, entry.ID, entry.UnavailableDays, dayKindUnavailable); err != nil {
			return err
		}
		if err := insertRosterEntryDays(ctx, tx, entry.ID, entry.FixedDays, dayKindFixed); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
