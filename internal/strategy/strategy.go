// Package strategy implements the orders in which pending proof
// obligations are processed.
package strategy

import (
	"github.com/pkg/errors"
)

const (
	OrderLevel = "level"
	OrderDFS   = "dfs"
)

// ErrEmpty is returned by Pop on an empty queue.
var ErrEmpty = errors.New("obligation queue is empty")

// Item is a queued obligation: Ref indexes the obligation arena, Level is
// its frame level.
type Item struct {
	Ref   int
	Level int
}

type Strategy interface {
	Size() int
	HasNext() bool
	Pop() (Item, error)
	Push(...Item) error
}

// New returns the strategy registered under order.
func New(order string) (Strategy, error) {
	switch order {
	case "", OrderLevel:
		return NewLevelOrder(), nil
	case OrderDFS:
		return NewDFS(), nil
	}
	return nil, errors.Errorf("unknown search order %q", order)
}
