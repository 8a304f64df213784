package models

import "errors"

var (
	// ErrQuizNotFound 测验不存在错误
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrEmptyDocument 文档没有可提取的文本内容
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrGenerationFailed 模型调用失败，整个生成流程中止
	ErrGenerationFailed = errors.New("quiz generation failed")

	// ErrNoQuizData 所有文本段都没有产出可用的测验数据
	ErrNoQuizData = errors.New("no valid quiz data")
)
