package scheduler

import (
	"errors"
	"fmt"
)

const (
	// NoEmployee 表示某天没有安排任何员工
	NoEmployee = -1
	// Unset 表示员工的某项节奏参数未设置
	Unset = -1
	// OptimalCost 为最优解的代价，搜索到该代价后立即停止
	OptimalCost = 0.0
	// DefaultMaxLengthOfShift 为未指定最大连班天数时的默认值
	DefaultMaxLengthOfShift = 31
	// intervalForOneDay 表示两段连班之间只休息了一天
	intervalForOneDay = 2
)

var ErrInvalidParameters = errors.New("搜索参数不合法")

// 禁忌搜索及匹配参数
type Parameters struct {
	Workers                         int     // 并行搜索的数量
	Concurrency                     int     // 同时运行的搜索数量上限，<= 0 表示不限制
	TabuListLength                  int     // 禁忌表长度
	SolutionListLength              int     // 历史解列表长度
	NeighborhoodSampleSize          int     // 每轮采样的邻域大小
	MaxIterationsWithoutImprovement int     // 无改进时的最大迭代次数
	RetriesPerSolution              int     // 每个历史解可被重新使用的次数
	PenaltyForbiddenShift           float64 // 非法班次惩罚
	PenaltyMandatoryBlock           float64 // 禁止单日班惩罚
	WeightNormalDay                 int64   // 普通日匹配权重
	WeightFreeDay                   int64   // 休息日匹配权重
	WeightFixedDay                  int64   // 固定日额外权重
	Seed                            int64   // 随机种子，为 0 时使用当前时间
}

func DefaultParameters() Parameters {
	return Parameters{
		Workers:                         50,
		Concurrency:                     0,
		TabuListLength:                  15,
		SolutionListLength:              20,
		NeighborhoodSampleSize:          100,
		MaxIterationsWithoutImprovement: 30000,
		RetriesPerSolution:              2000,
		PenaltyForbiddenShift:           10000,
		PenaltyMandatoryBlock:           300,
		WeightNormalDay:                 1,
		WeightFreeDay:                   32,
		WeightFixedDay:                  1000,
	}
}

func (p Parameters) Validate() error {
	switch {
	case p.Workers < 1:
		return fmt.Errorf("%w: Workers 必须大于 0（当前为 %d）", ErrInvalidParameters, p.Workers)
	case p.TabuListLength < 0:
		return fmt.Errorf("%w: TabuListLength 不能为负数（当前为 %d）", ErrInvalidParameters, p.TabuListLength)
	case p.SolutionListLength < 1:
		return fmt.Errorf("%w: SolutionListLength 必须大于 0（当前为 %d）", ErrInvalidParameters, p.SolutionListLength)
	case p.NeighborhoodSampleSize < 1:
		return fmt.Errorf("%w: NeighborhoodSampleSize 必须大于 0（当前为 %d）", ErrInvalidParameters, p.NeighborhoodSampleSize)
	case p.MaxIterationsWithoutImprovement < 1:
		return fmt.Errorf("%w: MaxIterationsWithoutImprovement 必须大于 0（当前为 %d）", ErrInvalidParameters, p.MaxIterationsWithoutImprovement)
	case p.RetriesPerSolution < 0:
		return fmt.Errorf("%w: RetriesPerSolution 不能为负数（当前为 %d）", ErrInvalidParameters, p.RetriesPerSolution)
	case p.PenaltyForbiddenShift < 0 || p.PenaltyMandatoryBlock < 0:
		return fmt.Errorf("%w: 惩罚值不能为负数", ErrInvalidParameters)
	case p.WeightNormalDay <= 0 || p.WeightFreeDay <= 0 || p.WeightFixedDay <= 0:
		return fmt.Errorf("%w: 匹配权重必须大于 0", ErrInvalidParameters)
	}
	return nil
}
