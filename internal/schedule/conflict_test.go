package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/spacebook/internal/domain"
)

func TestCheckConflict(t *testing.T) {
	existing := []domain.TimeRange{{Start: at(10, 0), End: at(11, 0)}}

	tests := []struct {
		name     string
		proposed domain.TimeRange
		admit    bool
	}{
		{"adjacent after", domain.TimeRange{Start: at(11, 0), End: at(12, 0)}, true},
		{"adjacent before", domain.TimeRange{Start: at(9, 0), End: at(10, 0)}, true},
		{"partial overlap", domain.TimeRange{Start: at(10, 30), End: at(11, 30)}, false},
		{"identical", domain.TimeRange{Start: at(10, 0), End: at(11, 0)}, false},
		{"enclosing", domain.TimeRange{Start: at(9, 0), End: at(12, 0)}, false},
		{"enclosed", domain.TimeRange{Start: at(10, 15), End: at(10, 45)}, false},
		{"disjoint", domain.TimeRange{Start: at(13, 0), End: at(14, 0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := CheckConflict(existing, tt.proposed)
			assert.Equal(t, tt.admit, v.Admit)
			if !tt.admit {
				assert.Equal(t, existing[0], v.Conflicting)
			}
		})
	}
}

func TestCheckConflictEmptyLedgerAdmits(t *testing.T) {
	assert.True(t, CheckConflict(nil, domain.TimeRange{Start: at(8, 0), End: at(9, 0)}).Admit)
}

func TestCapacityAllows(t *testing.T) {
	assert.True(t, CapacityAllows(10, 10))
	assert.False(t, CapacityAllows(10, 11))
}
