package scheduler

// TabuList 是定长的先进先出禁忌表，用环形缓冲区加 map 实现 O(1) 的查询
type TabuList struct {
	moves    []Move
	set      map[Move]int // Move -> 在环中出现的次数
	next     int
	size     int
	capacity int
}

func NewTabuList(capacity int) *TabuList {
	if capacity < 0 {
		capacity = 0
	}
	return &TabuList{
		moves:    make([]Move, capacity),
		set:      make(map[Move]int, capacity),
		capacity: capacity,
	}
}

func (t *TabuList) Add(m Move) {
	if t.capacity == 0 {
		return
	}

	// 环满时淘汰最早加入的 Move
	if t.size == t.capacity {
		oldest := t.moves[t.next]
		if t.set[oldest]--; t.set[oldest] == 0 {
			delete(t.set, oldest)
		}
	} else {
		t.size++
	}

	t.moves[t.next] = m
	t.set[m]++
	t.next = (t.next + 1) % t.capacity
}

func (t *TabuList) Contains(m Move) bool {
	_, ok := t.set[m]
	return ok
}

func (t *TabuList) Len() int {
	return t.size
}

func (t *TabuList) Reset() {
	clear(t.set)
	t.next = 0
	t.size = 0
}
