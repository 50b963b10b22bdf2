package rules

// Difficulty is one row of the difficulty table.
type Difficulty struct {
	Level         int
	MinInterval   float64 // seconds between interference spawns
	MaxInterval   float64
	MaxConcurrent int
}

var difficultyTable = []Difficulty{
	{Level: 1, MinInterval: 8, MaxInterval: 12, MaxConcurrent: 1},
	{Level: 2, MinInterval: 7, MaxInterval: 10, MaxConcurrent: 1},
	{Level: 3, MinInterval: 6, MaxInterval: 9, MaxConcurrent: 2},
	{Level: 4, MinInterval: 5, MaxInterval: 8, MaxConcurrent: 2},
	{Level: 5, MinInterval: 4, MaxInterval: 7, MaxConcurrent: 3},
}

// MaxDifficultyLevel is the highest level in the table.
func MaxDifficultyLevel() int {
	return len(difficultyTable)
}

// DifficultyFor looks up a level, clamping out-of-range values to the nearest valid row.
func DifficultyFor(level int) Difficulty {
	if level < 1 {
		level = 1
	}
	if level > len(difficultyTable) {
		level = len(difficultyTable)
	}
	return difficultyTable[level-1]
}

// RaiseDifficulty returns the next level, capped at the table maximum.
func RaiseDifficulty(level int) int {
	if level >= MaxDifficultyLevel() {
		return MaxDifficultyLevel()
	}
	if level < 1 {
		return 1
	}
	return level + 1
}
