package quizgen

// Quiz 测验数据结构，同时也是模型返回片段的解码目标
// 聚合结果中的Name和Description由上层调用方填写，聚合器不会设置它们
type Quiz struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Fragment 单个文本段生成的测验片段
type Fragment = Quiz

// Question 测验题目
type Question struct {
	Text    string   `json:"questionText"`
	Answers []Answer `json:"answers"`
}

// Answer 题目选项
type Answer struct {
	Text      string `json:"answerText"`
	IsCorrect bool   `json:"isCorrect"`
}
