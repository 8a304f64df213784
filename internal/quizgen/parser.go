package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrFragmentParse 模型回复无法解析为测验片段时返回的错误
// 该错误表示单个文本段的软失败，调用方应跳过该段并继续处理
var ErrFragmentParse = errors.New("failed to parse quiz fragment")

// StripCodeFence 去除模型回复外层的Markdown代码围栏
// 支持带语言标记的围栏(如```json)，没有围栏时原样返回
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// 去掉开头围栏所在行（含可能的语言标记）
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		// 围栏后没有换行，去掉语言标记后就是空内容
		trimmed = ""
	}

	// 去掉结尾围栏
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")

	return strings.TrimSpace(trimmed)
}

// ParseFragment 将模型回复解码为测验片段
// 先去除代码围栏，再按JSON解码，解码失败返回ErrFragmentParse
func ParseFragment(text string) (*Fragment, error) {
	cleaned := StripCodeFence(text)

	var fragment Fragment
	if err := json.Unmarshal([]byte(cleaned), &fragment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFragmentParse, err)
	}

	return &fragment, nil
}
