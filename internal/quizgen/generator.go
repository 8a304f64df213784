package quizgen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fyerfyer/doc-quiz-system/internal/llm"
)

// DefaultQuizTemplate 默认测验生成提示词模板
// 包含变量：
// {{.Segment}} - 文档文本段
const DefaultQuizTemplate = `请你作为一个出题助手，基于下面提供的文本内容生成若干道单项或多项选择题。
题目必须严格依据文本内容，不要引入文本之外的知识，不要猜测或编造信息。

文本内容:
{{.Segment}}

请只输出一个JSON对象，不要输出任何其他内容，JSON结构如下:
{
  "name": "",
  "description": "",
  "questions": [
    {
      "questionText": "题目内容",
      "answers": [
        {"answerText": "选项内容", "isCorrect": true},
        {"answerText": "选项内容", "isCorrect": false}
      ]
    }
  ]
}`

// GeneratorConfig 测验生成器配置
type GeneratorConfig struct {
	// 提示词模板
	Template string
	// 最大Token数
	MaxTokens int
	// 温度参数
	Temperature float32
	// 单段生成超时时间
	Timeout time.Duration
}

// DefaultGeneratorConfig 默认生成器配置
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Template:    DefaultQuizTemplate,
		MaxTokens:   2048,
		Temperature: 0.3,
		Timeout:     60 * time.Second,
	}
}

// Generator 基于大模型的测验片段生成器
// 每个文本段独立调用一次模型，调用之间不共享任何上下文
type Generator struct {
	Client llm.Client       // 大模型客户端
	config *GeneratorConfig // 配置
	mu     sync.RWMutex     // 配置互斥锁
}

// NewGenerator 创建新的测验片段生成器
func NewGenerator(client llm.Client, opts ...GeneratorOption) *Generator {
	cfg := DefaultGeneratorConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Generator{
		Client: client,
		config: cfg,
	}
}

// GeneratorOption 生成器配置选项函数类型
type GeneratorOption func(*GeneratorConfig)

// WithTemplate 设置提示词模板
func WithTemplate(template string) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.Template = template
	}
}

// WithMaxTokens 设置最大Token数
func WithMaxTokens(tokens int) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.MaxTokens = tokens
	}
}

// WithTemperature 设置温度参数
func WithTemperature(temp float32) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.Temperature = temp
	}
}

// WithTimeout 设置单段生成超时时间
func WithTimeout(timeout time.Duration) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.Timeout = timeout
	}
}

// Generate 为单个文本段生成测验片段的原始文本
// 返回模型的原始回复，解码由ParseFragment完成
func (g *Generator) Generate(ctx context.Context, segment string) (string, error) {
	if segment == "" {
		return "", llm.NewLLMError(llm.ErrCodeEmptyPrompt, "segment cannot be empty")
	}

	g.mu.RLock()
	cfg := g.config
	g.mu.RUnlock()

	// 创建带超时的上下文
	ctxWithTimeout, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// 构建提示词
	prompt := g.buildPrompt(segment)

	// 调用大模型生成测验片段
	response, err := g.Client.Generate(
		ctxWithTimeout,
		prompt,
		llm.WithGenerateMaxTokens(cfg.MaxTokens),
		llm.WithGenerateTemperature(cfg.Temperature),
	)

	if err != nil {
		return "", fmt.Errorf("failed to generate quiz fragment: %w", err)
	}

	return response.Text, nil
}

// buildPrompt 构建测验生成提示词
func (g *Generator) buildPrompt(segment string) string {
	g.mu.RLock()
	template := g.config.Template
	g.mu.RUnlock()

	// 简单的模板替换
	return strings.ReplaceAll(template, "{{.Segment}}", segment)
}

// SetTemplate 设置自定义提示词模板
func (g *Generator) SetTemplate(template string) *Generator {
	g.mu.Lock()
	g.config.Template = template
	g.mu.Unlock()
	return g
}
