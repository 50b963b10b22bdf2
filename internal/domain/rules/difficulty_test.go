package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifficultyForClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 1, DifficultyFor(0).Level)
	assert.Equal(t, 1, DifficultyFor(-7).Level)
	assert.Equal(t, MaxDifficultyLevel(), DifficultyFor(99).Level)
	assert.Equal(t, 3, DifficultyFor(3).Level)
}

func TestDifficultyTableIsMonotonic(t *testing.T) {
	for level := 2; level <= MaxDifficultyLevel(); level++ {
		prev, cur := DifficultyFor(level-1), DifficultyFor(level)
		assert.LessOrEqual(t, cur.MaxInterval, prev.MaxInterval, "level %d", level)
		assert.GreaterOrEqual(t, cur.MaxConcurrent, prev.MaxConcurrent, "level %d", level)
		assert.Less(t, cur.MinInterval, cur.MaxInterval, "level %d", level)
	}
}

func TestRaiseDifficultyCaps(t *testing.T) {
	assert.Equal(t, 2, RaiseDifficulty(1))
	assert.Equal(t, MaxDifficultyLevel(), RaiseDifficulty(MaxDifficultyLevel()))
	assert.Equal(t, 1, RaiseDifficulty(-1))
}
