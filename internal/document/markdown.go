package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser Markdown文档解析器
type MarkdownParser struct{}

// NewMarkdownParser 创建新的Markdown解析器
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// Parse 解析Markdown文件并提取文本内容
func (p *MarkdownParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open markdown file: %v", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader 从Reader解析Markdown内容
// 先渲染为HTML，再从HTML中剥离标签得到纯文本
func (p *MarkdownParser) ParseReader(r io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown content: %v", err)
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse(content)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	htmlContent := markdown.Render(doc, renderer)

	return stripHTMLTags(string(htmlContent)), nil
}

// stripHTMLTags 从HTML中剥离标签，返回空白规范化后的纯文本
func stripHTMLTags(content string) string {
	var builder strings.Builder
	inTag := false

	for _, char := range content {
		switch {
		case char == '<':
			inTag = true
			// 标签位置补一个空格，避免相邻文本粘连
			builder.WriteByte(' ')
		case char == '>':
			inTag = false
		case !inTag:
			builder.WriteRune(char)
		}
	}

	// 连续空白折叠为单个空格
	return strings.Join(strings.Fields(builder.String()), " ")
}
