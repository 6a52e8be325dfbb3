package core

import (
	"sort"

	"github.com/guidepost/launchpad/pkg/structs"
)

// nextTodo resolves which workflow step follows the given order.
//
// Entries are walked in ascending TaskOrder. An order of zero (or less)
// means nothing has run yet, so the first entry is next. When the order
// isn't found, or belongs to the last entry, there is no next step and
// nil is returned.
func nextTodo(todos []structs.TaskTodo, currentOrder int64) *structs.TaskTodo {
	if len(todos) == 0 {
		return nil
	}

	sorted := make([]structs.TaskTodo, len(todos))
	copy(sorted, todos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TaskOrder < sorted[j].TaskOrder })

	if currentOrder <= 0 {
		next := sorted[0]
		return &next
	}
	for i := range sorted {
		if sorted[i].TaskOrder != currentOrder {
			continue
		}
		if i == len(sorted)-1 {
			return nil
		}
		next := sorted[i+1]
		return &next
	}
	return nil
}
