package scheduler

// SolutionList 保存最近接受的改进解，搜索陷入僵局时用来重新出发
type SolutionList struct {
	solutions []*Solution
	next      int
}

func NewSolutionList(capacity int) *SolutionList {
	if capacity < 1 {
		capacity = 1
	}
	return &SolutionList{
		solutions: make([]*Solution, capacity),
	}
}

func (l *SolutionList) Add(s *Solution) {
	l.solutions[l.next] = s
	l.next = (l.next + 1) % len(l.solutions)
}

// Previous 从最近加入的解开始往前查找，返回第一个还有重试机会的解，找不到时返回 nil
func (l *SolutionList) Previous() *Solution {
	for i := 1; i <= len(l.solutions); i++ {
		s := l.solutions[l.index(l.next-i)]
		if s == nil {
			return nil
		}
		if s.tryRetry() {
			return s
		}
	}
	return nil
}

func (l *SolutionList) index(i int) int {
	n := len(l.solutions)
	return ((i % n) + n) % n
}
