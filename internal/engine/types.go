package engine

// Problem 题库中的一道题目，也是 /search 返回的单条结果
type Problem struct {
	Title      string  `json:"title"`
	Link       string  `json:"link"`
	Difficulty string  `json:"difficulty"`
	Platform   string  `json:"platform,omitempty"`
	Language   string  `json:"language,omitempty"`
	Topic      string  `json:"topic,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// SearchRequest 搜索请求，三个字段原样透传，空字符串表示不过滤
type SearchRequest struct {
	Query      string `json:"query"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}
