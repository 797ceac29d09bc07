package engine

import "strings"

// Summary 题库统计
type Summary struct {
	Total        int            `json:"total"`
	ByPlatform   map[string]int `json:"by_platform"`
	ByTopic      map[string]int `json:"by_topic"`
	ByDifficulty map[string]int `json:"by_difficulty"`
}

// Summarize 按平台、主题、难度统计题目数
func Summarize(problems []Problem) Summary {
	s := Summary{
		Total:        len(problems),
		ByPlatform:   make(map[string]int),
		ByTopic:      make(map[string]int),
		ByDifficulty: make(map[string]int),
	}
	for _, p := range problems {
		s.ByPlatform[orUnknown(p.Platform)]++
		s.ByTopic[orUnknown(p.Topic)]++
		s.ByDifficulty[orUnknown(p.Difficulty)]++
	}
	return s
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

// FilterByPlatform 按平台过滤（忽略大小写）
func FilterByPlatform(problems []Problem, platform string) []Problem {
	var out []Problem
	for _, p := range problems {
		if strings.EqualFold(p.Platform, platform) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByTopic 按主题子串过滤（忽略大小写）
func FilterByTopic(problems []Problem, topic string) []Problem {
	topic = strings.ToLower(topic)
	var out []Problem
	for _, p := range problems {
		if strings.Contains(strings.ToLower(p.Topic), topic) {
			out = append(out, p)
		}
	}
	return out
}
