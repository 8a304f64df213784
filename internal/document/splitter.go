package document

import (
	"strings"
)

// SplitterConfig 分段器配置
type SplitterConfig struct {
	MaxSegmentLength int // 每段最大字符数（按空格连接后的长度）
	MaxSegments      int // 最大段数（0表示不限制）
}

// DefaultSplitterConfig 返回默认分段器配置
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		MaxSegmentLength: 1000,
		MaxSegments:      30,
	}
}

// WordSplitter 按词贪心打包的文本分段器
// 把文本按空白切成词序列，依次装入当前段；当再装一个词会使
// 空格连接后的长度超过上限时关闭当前段，用该词另起一段。
// 长度是字符意义上的近似预算，不是模型的token数。
type WordSplitter struct {
	config SplitterConfig
}

// NewWordSplitter 创建新的按词分段器
func NewWordSplitter(config SplitterConfig) *WordSplitter {
	return &WordSplitter{
		config: config,
	}
}

// Split 将文本分割成长度受限的文本段
// 词的相对顺序保持不变；空文本返回空序列；
// 单个超长词仍会独立成段（不报错）
func (s *WordSplitter) Split(text string) ([]Segment, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []Segment{}, nil
	}

	var chunks []string
	var current []string
	currentLen := 0 // current用单个空格连接后的长度

	for _, word := range words {
		if len(current) > 0 && currentLen+1+len(word) > s.config.MaxSegmentLength {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{word}
			currentLen = len(word)
			continue
		}
		if len(current) > 0 {
			currentLen++
		}
		current = append(current, word)
		currentLen += len(word)
	}

	// 收尾：最后一个段即使不满也要输出
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	chunks = LimitSegments(chunks, s.config.MaxSegments)

	segments := make([]Segment, len(chunks))
	for i, chunk := range chunks {
		segments[i] = Segment{
			Text:  chunk,
			Index: i,
		}
	}

	return segments, nil
}

// LimitSegments 截断段序列到最大数量，控制生成成本
// 超出部分被静默丢弃；maxCount为0表示不限制
func LimitSegments(segments []string, maxCount int) []string {
	if maxCount > 0 && len(segments) > maxCount {
		return segments[:maxCount]
	}
	return segments
}
