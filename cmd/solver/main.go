package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}
	if err := cfg.SearchParameters().Validate(); err != nil {
		logger.Error("排班搜索参数不合法", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	redisCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(redisCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	// 排班完成后需要向邮件队列投递通知
	if _, err := worker.DeclareQueue(ch, cfg.RabbitMQ.EmailQueue); err != nil {
		logger.Error("无法声明队列", "queue", cfg.RabbitMQ.EmailQueue, "error", err)
		return
	}

	/**********************************************
	 * 启动排班 worker
	 **********************************************/
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("排班 worker 已启动，正在等待任务...", "queue", cfg.RabbitMQ.RosterQueue, "workers", cfg.Search.Workers)
	if err := worker.New(cfg, repo, rdb, ch, logger).Run(ctx); err != nil {
		logger.Error("排班 worker 异常退出", "error", err)
		return
	}
	logger.Info("排班 worker 已关闭")
}
