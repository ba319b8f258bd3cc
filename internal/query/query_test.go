package query

import (
	"math"
	"testing"
)

func TestPageRequestOffset(t *testing.T) {
	tests := []struct {
		name string
		page PageRequest
		want int64
	}{
		{"first page", PageRequest{Page: 0, Size: 20}, 0},
		{"later page", PageRequest{Page: 3, Size: 10}, 30},
		{"negative page", PageRequest{Page: -1, Size: 10}, 0},
		{"zero size", PageRequest{Page: 5, Size: 0}, 0},
		{"huge product clamps", PageRequest{Page: math.MaxInt, Size: math.MaxInt}, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.Offset(); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNodeEmpty(t *testing.T) {
	if !(Node{}).Empty() {
		t.Error("zero node must be empty")
	}
	if !(Node{Groups: []Node{{}, {Or: true}}}).Empty() {
		t.Error("node with only empty groups must be empty")
	}
	if (Node{Conds: []Cond{{Field: "email", Op: OpEq, Value: "x"}}}).Empty() {
		t.Error("node with a condition must not be empty")
	}
	if (Node{Groups: []Node{{Conds: []Cond{{Field: "email"}}}}}).Empty() {
		t.Error("node with a populated group must not be empty")
	}
}
