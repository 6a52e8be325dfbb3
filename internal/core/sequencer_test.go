package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guidepost/launchpad/pkg/structs"
)

func TestNextTodo(t *testing.T) {
	todos := []structs.TaskTodo{
		{TaskOrder: 2, ApplicationID: "app-b"},
		{TaskOrder: 1, ApplicationID: "app-a"},
		{TaskOrder: 3, ApplicationID: "app-c"},
	}

	cases := []struct {
		Name         string
		Todos        []structs.TaskTodo
		CurrentOrder int64
		Expect       string
	}{
		{"NothingRunYetTakesLowestOrder", todos, 0, "app-a"},
		{"NegativeOrderTakesLowestOrder", todos, -5, "app-a"},
		{"MiddleAdvancesInOrder", todos, 1, "app-b"},
		{"OrdersSortedNotListed", todos, 2, "app-c"},
		{"LastOrderIsFinal", todos, 3, ""},
		{"UnknownOrderIsFinal", todos, 7, ""},
		{"EmptyListIsFinal", []structs.TaskTodo{}, 0, ""},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			got := nextTodo(c.Todos, c.CurrentOrder)

			if c.Expect == "" {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.Equal(t, c.Expect, got.ApplicationID)
			}
		})
	}
}

func TestNextTodoDoesNotMutateInput(t *testing.T) {
	todos := []structs.TaskTodo{
		{TaskOrder: 3, ApplicationID: "app-c"},
		{TaskOrder: 1, ApplicationID: "app-a"},
	}

	nextTodo(todos, 0)

	assert.Equal(t, int64(3), todos[0].TaskOrder)
	assert.Equal(t, int64(1), todos[1].TaskOrder)
}
