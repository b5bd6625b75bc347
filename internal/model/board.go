package model

import (
	"fmt"
	"sort"
)

// Priority is a task urgency level.
type Priority int

// Task priorities.
const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// Valid reports whether p is one of the known levels.
func (p Priority) Valid() bool { return p >= PriorityLow && p <= PriorityHigh }

// Label returns the display label of p.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Baixa"
	case PriorityMedium:
		return "Média"
	case PriorityHigh:
		return "Alta"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Color returns the display color of p.
func (p Priority) Color() string {
	switch p {
	case PriorityLow:
		return "#059669"
	case PriorityMedium:
		return "#EA580C"
	case PriorityHigh:
		return "#DC2626"
	}
	return ""
}

// ColumnPalette is the default column color cycle.
var ColumnPalette = [...]string{"#2563EB", "#64748B", "#059669", "#7C3AED", "#DC2626", "#EA580C"}

// ColumnColor returns the palette color for the column at position i.
func ColumnColor(i int) string {
	if i < 0 {
		i = -i
	}
	return ColumnPalette[i%len(ColumnPalette)]
}

// OrderOf returns a task's sort key; an absent order sorts as 0.
func OrderOf(t Task) int {
	if t.Order == nil {
		return 0
	}
	return *t.Order
}

// SortColumns orders columns ascending by Order; ties keep their relative order.
func SortColumns(cols []Column) {
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
}

// SortTasks orders tasks ascending by Order; ties keep their relative order.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return OrderOf(tasks[i]) < OrderOf(tasks[j]) })
}

// Decorate assembles a fully loaded board: columns sorted and colored by position,
// each column's tasks sorted.
func Decorate(b *Board, cols []Column, tasks []Task) {
	byColumn := make(map[string][]Task, len(cols))
	for _, t := range tasks {
		k := t.ColumnID.String()
		byColumn[k] = append(byColumn[k], t)
	}
	out := make([]Column, len(cols))
	copy(out, cols)
	SortColumns(out)
	for i := range out {
		ts := byColumn[out[i].ID.String()]
		SortTasks(ts)
		out[i].Tasks = Loaded(ts)
		out[i].Color = ColumnColor(i)
	}
	b.Columns = Loaded(out)
}

// NextColumnOrder returns the order a new column appended to b receives.
func NextColumnOrder(b *Board) int {
	if b == nil {
		return 1
	}
	return b.Columns.Len() + 1
}
