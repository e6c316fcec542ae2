package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var year int
	var month int
	var path string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机员工, 2: 插入随机排班计划及需求, 3: 从表格导入员工需求)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.IntVar(&year, "year", time.Now().Year(), "排班计划所在的年份")
	flag.IntVar(&month, "month", int(time.Now().Month()), "排班计划所在的月份")
	flag.StringVar(&path, "file", "./internal/seed/data/roster.csv", "员工需求表的路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	if month < 1 || month > 12 {
		slog.Error("请输入合法的月份", slog.Int("month", month))
		return
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的员工数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				employee, err := utils.GenerateRandomEmployee(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机员工", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateEmployee(employee); err != nil {
					slog.Error("无法插入员工", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入员工成功", slog.Int("count", n-cnt))
		}
	case 2:
		// 随机选出若干在职员工参与排班
		employees, err := repo.GetAllEmployees()
		if err != nil {
			slog.Error("无法获取所有员工", slog.String("error", err.Error()))
			return
		}

		employeeIDs := make([]int64, 0)
		for _, employee := range employees {
			if employee.IsActive && employee.Role == domain.RoleEmployee {
				employeeIDs = append(employeeIDs, employee.ID)
			}
		}
		rand.Shuffle(len(employeeIDs), func(i, j int) {
			employeeIDs[i], employeeIDs[j] = employeeIDs[j], employeeIDs[i]
		})
		employeeIDs = employeeIDs[:min(len(employeeIDs), cfg.Seed.EmployeeCount)]
		if len(employeeIDs) == 0 {
			slog.Error("没有可以参与排班的员工，请先插入员工")
			return
		}

		plan := utils.GenerateRandomRosterPlan(int32(year), int32(month))
		entries := utils.GenerateRandomRosterEntries(plan, employeeIDs)
		if err := utils.ValidateRosterEntries(plan, entries, cfg.Search.DefaultMaxLengthOfShift); err != nil {
			slog.Error("生成的排班需求不合法", slog.String("error", err.Error()))
			return
		}

		if err := repo.CreateRosterPlan(plan); err != nil {
			slog.Error("无法插入排班计划", slog.String("error", err.Error()))
			return
		}
		if err := repo.ReplaceRosterEntries(plan.ID, entries); err != nil {
			slog.Error("无法插入排班需求", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入排班计划成功", slog.Int64("plan_id", plan.ID), slog.Int("employees", len(entries)))
	case 3:
		plan := &domain.RosterPlan{
			Name:        fmt.Sprintf("%d 年 %d 月值班表", year, month),
			Description: "从员工需求表导入",
			Year:        int32(year),
			Month:       int32(month),
		}
		plan.FreeDays = utils.WeekendDays(plan.Year, plan.Month, plan.LengthOfMonth())
		plan.SingleShiftForbiddenDays = make([]int32, 0)

		if err := seed.SeedRosterFromCSV(repo, path, plan, cfg.Seed.User.Password, cfg.Search.DefaultMaxLengthOfShift); err != nil {
			slog.Error("导入员工需求失败", slog.String("error", err.Error()))
			return
		}
	default:
		slog.Error("指定的操作非法")
	}
}
