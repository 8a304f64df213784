package quizgen

// Aggregator 测验片段聚合器
// 按合并顺序拼接各片段的题目，形成最终的测验
// 结果中的Name和Description保持空值，由上层调用方填写
type Aggregator struct {
	questions []Question
}

// NewAggregator 创建新的测验片段聚合器
func NewAggregator() *Aggregator {
	return &Aggregator{
		questions: make([]Question, 0),
	}
}

// Merge 合并一个测验片段
// nil片段或没有题目的片段直接跳过
func (a *Aggregator) Merge(fragment *Fragment) {
	if fragment == nil {
		return
	}
	a.questions = append(a.questions, fragment.Questions...)
}

// Empty 判断聚合结果是否不含任何题目
func (a *Aggregator) Empty() bool {
	return len(a.questions) == 0
}

// QuestionCount 返回已聚合的题目数量
func (a *Aggregator) QuestionCount() int {
	return len(a.questions)
}

// Result 返回聚合后的完整测验
func (a *Aggregator) Result() *Quiz {
	return &Quiz{
		Questions: a.questions,
	}
}
