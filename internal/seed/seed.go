package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// 表头中必须出现的列
var requiredHeaders = []string{"NetID", "姓名", "邮箱", "总值班天数", "休息日值班天数"}

// Record 是表格中的一行，对应一个员工在本月的需求
type Record struct {
	Username string
	FullName string
	Email    string
	Entry    domain.RosterEntry
}

// ParseRosterCSV 解析员工需求表，日期列形如 "1, 2, 15"，可选列为空时使用默认值
func ParseRosterCSV(reader io.Reader) ([]Record, error) {
	csvReader := csv.NewReader(reader)

	// 读取表头
	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	for _, required := range requiredHeaders {
		found := false
		for _, header := range headers {
			if header == required {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("没有找到列 %s", required)
		}
	}

	records := make([]Record, 0)
	seen := make(map[string]bool)
	line := 1
	for {
		row, err := csvReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		fields := make(map[string]string)
		for i, value := range row {
			fields[headers[i]] = strings.TrimSpace(value)
		}

		record, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		if seen[record.Username] {
			return nil, fmt.Errorf("第 %d 行: NetID %s 重复出现", line, record.Username)
		}
		seen[record.Username] = true

		records = append(records, record)
	}

	return records, nil
}

func parseRecord(fields map[string]string) (Record, error) {
	record := Record{
		Username: fields["NetID"],
		FullName: fields["姓名"],
		Email:    fields["邮箱"],
	}
	if record.Username == "" {
		return record, errors.New("没有找到NetID")
	}

	var err error
	entry := &record.Entry
	if entry.DaysToWorkTotal, err = parseNumber(fields["总值班天数"], 0); err != nil {
		return record, fmt.Errorf("总值班天数: %w", err)
	}
	if entry.DaysToWorkAtFreeDay, err = parseNumber(fields["休息日值班天数"], 0); err != nil {
		return record, fmt.Errorf("休息日值班天数: %w", err)
	}
	if entry.MaxLengthOfShift, err = parseNumber(fields["最长连班天数"], 0); err != nil {
		return record, fmt.Errorf("最长连班天数: %w", err)
	}
	if entry.WishedLengthOfShift, err = parseNumber(fields["期望连班天数"], 0); err != nil {
		return record, fmt.Errorf("期望连班天数: %w", err)
	}
	if value := fields["额外休息天数"]; value != "" {
		additional, err := parseNumber(value, 0)
		if err != nil {
			return record, fmt.Errorf("额外休息天数: %w", err)
		}
		entry.AdditionalFreeDaysBetweenShifts = &additional
	}
	if entry.UnavailableDays, err = parseDays(fields["不可用日期"]); err != nil {
		return record, fmt.Errorf("不可用日期: %w", err)
	}
	if entry.FixedDays, err = parseDays(fields["固定日期"]); err != nil {
		return record, fmt.Errorf("固定日期: %w", err)
	}

	return record, nil
}

func parseNumber(value string, fallback float64) (float64, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func parseDays(value string) ([]int32, error) {
	days := make([]int32, 0)
	for _, day := range strings.Split(value, ",") {
		day = strings.TrimSpace(day)
		if day == "" {
			continue
		}

		dayInt, err := strconv.Atoi(day)
		if err != nil {
			return nil, fmt.Errorf("转换天数失败: %s", day)
		}
		days = append(days, int32(dayInt))
	}
	return days, nil
}

// SeedRosterFromCSV 从员工需求表中导入员工和排班需求，不存在的员工会以 password 为初始密码新建
func SeedRosterFromCSV(r *repository.Repository, path string, plan *domain.RosterPlan, password string, defaultMaxLengthOfShift float64) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	records, err := ParseRosterCSV(file)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("表格中没有任何员工")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// 插入员工，已存在的员工直接复用
	entries := make([]*domain.RosterEntry, 0, len(records))
	for _, record := range records {
		employee, err := r.GetEmployeeByUsername(record.Username)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("获取员工 %s 失败: %w", record.Username, err)
			}

			employee = &domain.Employee{
				Username:     record.Username,
				PasswordHash: string(passwordHash),
				FullName:     record.FullName,
				Email:        record.Email,
				Role:         domain.RoleEmployee,
			}
			if err := r.CreateEmployee(employee); err != nil {
				return fmt.Errorf("插入员工 %s 失败: %w", record.Username, err)
			}
			slog.Info("插入员工", "username", employee.Username, "id", employee.ID)
		}

		entry := record.Entry
		entry.EmployeeID = employee.ID
		entries = append(entries, &entry)
	}

	// 写入数据库之前先确认需求之间没有矛盾
	if err := utils.ValidateRosterPlanDays(plan); err != nil {
		return err
	}
	if err := utils.ValidateRosterEntries(plan, entries, defaultMaxLengthOfShift); err != nil {
		return err
	}

	if err := r.CreateRosterPlan(plan); err != nil {
		return fmt.Errorf("插入排班计划失败: %w", err)
	}
	if err := r.ReplaceRosterEntries(plan.ID, entries); err != nil {
		return fmt.Errorf("插入排班需求失败: %w", err)
	}

	slog.Info("插入数据完成", slog.Int64("plan_id", plan.ID), slog.Int("employees", len(entries)))
	return nil
}
