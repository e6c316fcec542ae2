package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
)

// TabuSearch 是单个搜索 goroutine 的禁忌搜索，所有状态均为私有
type TabuSearch struct {
	input     *Input
	params    Parameters
	validator *MoveValidator
	tabuList  *TabuList
	history   *SolutionList
	rng       *rand.Rand
	logger    *slog.Logger
}

func NewTabuSearch(input *Input, params Parameters, rng *rand.Rand, logger *slog.Logger) *TabuSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &TabuSearch{
		input:     input,
		params:    params,
		validator: NewMoveValidator(input),
		tabuList:  NewTabuList(params.TabuListLength),
		history:   NewSolutionList(params.SolutionListLength),
		rng:       rng,
		logger:    logger,
	}
}

// Run 从 initial 开始搜索，返回搜索过程中代价最低的解
// ctx 被取消、找到最优解、连续多轮没有改进或者无路可走时结束
func (t *TabuSearch) Run(ctx context.Context, initial *Solution) *Solution {
	best := initial
	current := best.Clone()
	t.logger.Debug("初始解的代价", slog.Float64("cost", best.Cost()))

	for withoutImprovement := 0; withoutImprovement < t.params.MaxIterationsWithoutImprovement; withoutImprovement++ {
		if ctx.Err() != nil || best.Cost() <= OptimalCost {
			return best
		}

		move, ok := t.bestNeighbor(current, best.Cost())
		if !ok {
			// 陷入僵局，从历史解中重新出发
			restarted, ok := t.restart()
			if !ok {
				return best
			}
			current = restarted
			continue
		}

		t.tabuList.Add(move)
		current.Apply(move)

		if current.Cost() < best.Cost() {
			best = current.Clone()
			t.history.Add(best)
			withoutImprovement = -1
			t.logger.Debug("找到更优的解", slog.Float64("cost", best.Cost()))
		}
	}

	return best
}

// restart 取出最近一个还有重试机会的历史解并清空禁忌表，没有可用的历史解时返回 false
func (t *TabuSearch) restart() (*Solution, bool) {
	previous := t.history.Previous()
	if previous == nil {
		return nil, false
	}
	t.tabuList.Reset()
	return previous.Clone(), true
}

// bestNeighbor 随机采样邻域，返回代价最低的可选 Move
// 处于禁忌表中的 Move 只有在优于当前最优解时才可选
func (t *TabuSearch) bestNeighbor(current *Solution, bestCost float64) (Move, bool) {
	days := t.input.LengthOfMonth()
	if days < 2 {
		return Move{}, false
	}

	var chosen Move
	chosenCost := 0.0
	found := false

	for k := 0; k < t.params.NeighborhoodSampleSize; k++ {
		from := t.rng.Intn(days)
		to := t.rng.Intn(days - 1)
		if to >= from {
			to++
		}
		move := NewMove(from, to)

		if t.validator.IsForbidden(current, move) {
			continue
		}

		cost := current.costWith(move)
		if t.tabuList.Contains(move) && cost >= bestCost {
			continue
		}

		if !found || cost < chosenCost {
			chosen, chosenCost, found = move, cost, true
		}
	}

	return chosen, found
}
