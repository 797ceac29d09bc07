package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeAndFilters(t *testing.T) {
	problems := []Problem{
		{Title: "A", Platform: "LeetCode", Topic: "array", Difficulty: "Easy"},
		{Title: "B", Platform: "LeetCode", Topic: "dynamic-programming", Difficulty: "Hard"},
		{Title: "C", Platform: "Codeforces", Topic: "dp", Difficulty: "800"},
		{Title: "D", Platform: "CodeChef"},
	}

	s := Summarize(problems)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, map[string]int{"LeetCode": 2, "Codeforces": 1, "CodeChef": 1}, s.ByPlatform)
	assert.Equal(t, 1, s.ByTopic["Unknown"])
	assert.Equal(t, 1, s.ByDifficulty["Unknown"])

	assert.Len(t, FilterByPlatform(problems, "leetcode"), 2)
	assert.Len(t, FilterByTopic(problems, "DP"), 1)
	assert.Len(t, FilterByTopic(problems, "dynamic"), 1)
}
