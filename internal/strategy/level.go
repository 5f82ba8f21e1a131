package strategy

import (
	"container/heap"
)

// LevelOrder pops the obligation with the lowest frame level first. Items
// of equal level come out in insertion order.
type LevelOrder struct {
	queue levelQueue
	seq   int
}

func NewLevelOrder() *LevelOrder {
	return &LevelOrder{}
}

func (lo *LevelOrder) Size() int {
	return lo.queue.Len()
}

func (lo *LevelOrder) HasNext() bool {
	return lo.queue.Len() > 0
}

func (lo *LevelOrder) Pop() (Item, error) {
	if lo.queue.Len() == 0 {
		return Item{}, ErrEmpty
	}
	return heap.Pop(&lo.queue).(entry).item, nil
}

func (lo *LevelOrder) Push(items ...Item) error {
	for _, item := range items {
		heap.Push(&lo.queue, entry{item: item, seq: lo.seq})
		lo.seq++
	}
	return nil
}

type entry struct {
	item Item
	seq  int
}

// levelQueue implements heap.Interface.
type levelQueue []entry

func (q levelQueue) Len() int { return len(q) }

func (q levelQueue) Less(i, j int) bool {
	if q[i].item.Level != q[j].item.Level {
		return q[i].item.Level < q[j].item.Level
	}
	return q[i].seq < q[j].seq
}

func (q levelQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *levelQueue) Push(x interface{}) { *q = append(*q, x.(entry)) }

func (q *levelQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}
