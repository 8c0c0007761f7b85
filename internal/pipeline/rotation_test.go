package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotationIndex(t *testing.T) {
	tests := []struct {
		runID int64
		n     int
		want  int
	}{
		{0, 3, 0},
		{1, 3, 1},
		{5, 3, 2},
		{6, 3, 0},
		{-1, 3, 2},
		{7, 0, 0},
		{7, -2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RotationIndex(tt.runID, tt.n), "runID=%d n=%d", tt.runID, tt.n)
	}
}

func TestTemplateFor(t *testing.T) {
	id, page := templateFor(4, []string{"a", "b", "c"}, 3)
	assert.Equal(t, "b", id)
	assert.Equal(t, 2, page)

	id, page = templateFor(4, []string{"a"}, 0)
	assert.Equal(t, "a", id)
	assert.Equal(t, 1, page)

	id, page = templateFor(4, nil, 5)
	assert.Empty(t, id)
	assert.Equal(t, 1, page)
}
