package strategy

// DFS pops the most recently pushed obligation first.
type DFS struct {
	items []Item
}

func NewDFS() *DFS {
	return &DFS{
		items: make([]Item, 0),
	}
}

func (dfs *DFS) Size() int {
	return len(dfs.items)
}

func (dfs *DFS) HasNext() bool {
	return len(dfs.items) > 0
}

func (dfs *DFS) Pop() (Item, error) {
	if len(dfs.items) <= 0 {
		return Item{}, ErrEmpty
	}
	item := dfs.items[len(dfs.items)-1]
	dfs.items = dfs.items[:len(dfs.items)-1]
	return item, nil
}

func (dfs *DFS) Push(items ...Item) error {
	dfs.items = append(dfs.items, items...)
	return nil
}
