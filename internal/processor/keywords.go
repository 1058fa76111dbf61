package processor

import (
	"sort"
	"strings"
	"unicode"
)

// 标题分词用的停用词表；长度 <=3 的 token 另有统一过滤
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "have": {}, "has": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "about": {}, "after": {}, "before": {}, "over": {},
	"under": {}, "into": {}, "your": {}, "their": {}, "they": {}, "them": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "been": {},
	"being": {}, "more": {}, "most": {}, "than": {}, "then": {}, "there": {},
	"here": {}, "just": {}, "also": {}, "says": {}, "said": {}, "news": {},
	"amid": {}, "如何": {}, "这个": {}, "我们": {},
}

// Tokenize 小写分词，丢掉停用词和长度 <=3 的 token
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := fields[:0]
	for _, w := range fields {
		if len([]rune(w)) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// TopKeywords 统计一批文本里的高频词，按频次倒序取前 limit 个；
// 频次相同按字典序，保证结果稳定
func TopKeywords(texts []string, limit int) []string {
	counts := make(map[string]int)
	for _, t := range texts {
		for _, w := range Tokenize(t) {
			counts[w]++
		}
	}
	return topNByCount(counts, limit)
}

func topNByCount(counts map[string]int, limit int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
