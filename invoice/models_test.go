package invoice

import (
	"testing"

	"github.com/xraph/factoring/types"
)

func TestCollectible(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusOpen, true},
		{StatusListed, true},
		{StatusSettled, false},
		{StatusDeleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			inv := &Invoice{Status: tt.status}
			if got := inv.Collectible(); got != tt.want {
				t.Errorf("Collectible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverdue(t *testing.T) {
	const due = int64(1633845600) // 2021-10-10 08:00 UTC

	tests := []struct {
		name   string
		status Status
		now    int64
		want   bool
	}{
		{"open before due date", StatusOpen, due - 1, false},
		{"open at due date", StatusOpen, due, false},
		{"open past due date", StatusOpen, due + 1, true},
		{"listed past due date", StatusListed, due + 1, true},
		{"settled past due date", StatusSettled, due + 1, false},
		{"deleted past due date", StatusDeleted, due + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{Status: tt.status, DueDate: due, Total: types.USD(100)}
			if got := inv.Overdue(tt.now); got != tt.want {
				t.Errorf("Overdue(%d) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
