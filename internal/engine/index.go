package engine

import (
	"math"
	"sort"
	"strings"
)

// DefaultLimit 未指定数量时返回的结果数
const DefaultLimit = 5

// sparseVector 词项编号到权重的稀疏向量
type sparseVector map[int]float64

// Index 基于题目标题的 TF-IDF 索引，构建后只读
type Index struct {
	problems []Problem
	vocab    map[string]int
	idf      []float64
	vectors  []sparseVector
}

// NewIndex 构建索引
// idf 采用平滑公式 ln((1+n)/(1+df))+1，每行向量做 L2 归一化
func NewIndex(problems []Problem) *Index {
	ix := &Index{
		problems: append([]Problem(nil), problems...),
		vocab:    make(map[string]int),
	}

	docs := make([][]string, len(ix.problems))
	var df []int
	for i, p := range ix.problems {
		docs[i] = Tokenize(p.Title)
		seen := make(map[int]bool)
		for _, tok := range docs[i] {
			id, ok := ix.vocab[tok]
			if !ok {
				id = len(ix.vocab)
				ix.vocab[tok] = id
				df = append(df, 0)
			}
			if !seen[id] {
				seen[id] = true
				df[id]++
			}
		}
	}

	n := float64(len(ix.problems))
	ix.idf = make([]float64, len(df))
	for id, d := range df {
		ix.idf[id] = math.Log((1+n)/(1+float64(d))) + 1
	}

	ix.vectors = make([]sparseVector, len(docs))
	for i, tokens := range docs {
		ix.vectors[i] = ix.vectorize(tokens)
	}

	return ix
}

// Len 返回索引中的题目数
func (ix *Index) Len() int {
	return len(ix.problems)
}

// Problems 返回题目副本
func (ix *Index) Problems() []Problem {
	return append([]Problem(nil), ix.problems...)
}

// vectorize 计算归一化的 tf-idf 向量，未登录词忽略
func (ix *Index) vectorize(tokens []string) sparseVector {
	vec := make(sparseVector)
	for _, tok := range tokens {
		if id, ok := ix.vocab[tok]; ok {
			vec[id]++
		}
	}

	var norm float64
	for id, tf := range vec {
		w := tf * ix.idf[id]
		vec[id] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for id := range vec {
		vec[id] /= norm
	}
	return vec
}

func dot(a, b sparseVector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var sum float64
	for id, w := range a {
		sum += w * b[id]
	}
	return sum
}

// matchFilter 空过滤条件匹配所有题目，否则忽略大小写比较
func matchFilter(filter, value string) bool {
	return filter == "" || strings.EqualFold(filter, value)
}

// Search 按余弦相似度检索，只返回得分大于 0 且满足过滤条件的题目
func (ix *Index) Search(req SearchRequest, limit int) []Problem {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := ix.vectorize(Tokenize(req.Query))
	results := []Problem{}
	if len(query) == 0 {
		return results
	}

	for i, p := range ix.problems {
		score := dot(query, ix.vectors[i])
		if score <= 0 {
			continue
		}
		if !matchFilter(req.Difficulty, p.Difficulty) || !matchFilter(req.Language, p.Language) {
			continue
		}
		p.Score = score
		results = append(results, p)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
