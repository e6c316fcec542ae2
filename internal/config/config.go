package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
		EmployeeCount int `env:"EMPLOYEE_COUNT" envDefault:"6"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		EmailQueue     string `env:"EMAIL_QUEUE" envDefault:"email_queue"`
		RosterQueue    string `env:"ROSTER_QUEUE" envDefault:"roster_queue"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		LockMargin          int    `env:"LOCK_MARGIN" envDefault:"900"` // 排班任务锁在搜索时长之外额外保留的时间
		ProgressExpiration  int    `env:"PROGRESS_EXPIRATION" envDefault:"86400"`
	} `envPrefix:"REDIS_"`
	Search struct {
		Workers                         int     `env:"WORKERS" envDefault:"50"`
		Concurrency                     int     `env:"CONCURRENCY" envDefault:"0"` // 0 表示不限制
		TabuListLength                  int     `env:"TABU_LIST_LENGTH" envDefault:"15"`
		SolutionListLength              int     `env:"SOLUTION_LIST_LENGTH" envDefault:"20"`
		NeighborhoodSampleSize          int     `env:"NEIGHBORHOOD_SAMPLE_SIZE" envDefault:"100"`
		MaxIterationsWithoutImprovement int     `env:"MAX_ITERATIONS_WITHOUT_IMPROVEMENT" envDefault:"30000"`
		RetriesPerSolution              int     `env:"RETRIES_PER_SOLUTION" envDefault:"2000"`
		PenaltyForbiddenShift           float64 `env:"PENALTY_FORBIDDEN_SHIFT" envDefault:"10000"`
		PenaltyMandatoryBlock           float64 `env:"PENALTY_MANDATORY_BLOCK" envDefault:"300"`
		WeightNormalDay                 int64   `env:"WEIGHT_NORMAL_DAY" envDefault:"1"`
		WeightFreeDay                   int64   `env:"WEIGHT_FREE_DAY" envDefault:"32"`
		WeightFixedDay                  int64   `env:"WEIGHT_FIXED_DAY" envDefault:"1000"`
		DefaultMaxLengthOfShift         float64 `env:"DEFAULT_MAX_LENGTH_OF_SHIFT" envDefault:"31"`
		Timeout                         int     `env:"TIMEOUT" envDefault:"600"` // 10 分钟
		Seed                            int64   `env:"SEED" envDefault:"0"`
	} `envPrefix:"SEARCH_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// SearchParameters 返回排班搜索使用的参数
func (cfg *Config) SearchParameters() scheduler.Parameters {
	return scheduler.Parameters{
		Workers:                         cfg.Search.Workers,
		Concurrency:                     cfg.Search.Concurrency,
		TabuListLength:                  cfg.Search.TabuListLength,
		SolutionListLength:              cfg.Search.SolutionListLength,
		NeighborhoodSampleSize:          cfg.Search.NeighborhoodSampleSize,
		MaxIterationsWithoutImprovement: cfg.Search.MaxIterationsWithoutImprovement,
		RetriesPerSolution:              cfg.Search.RetriesPerSolution,
		PenaltyForbiddenShift:           cfg.Search.PenaltyForbiddenShift,
		PenaltyMandatoryBlock:           cfg.Search.PenaltyMandatoryBlock,
		WeightNormalDay:                 cfg.Search.WeightNormalDay,
		WeightFreeDay:                   cfg.Search.WeightFreeDay,
		WeightFixedDay:                  cfg.Search.WeightFixedDay,
		Seed:                            cfg.Search.Seed,
	}
}

// RosterLockTTL 返回排班任务锁的过期时间，覆盖排队等待或者一次完整的搜索
func (cfg *Config) RosterLockTTL() time.Duration {
	return time.Duration(cfg.Search.Timeout+cfg.Redis.LockMargin) * time.Second
}
