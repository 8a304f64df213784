package model

import (
	"time"

	"github.com/fyerfyer/doc-quiz-system/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// QuizCreateResponse 测验创建响应
type QuizCreateResponse struct {
	QuizID   string `json:"quiz_id"`  // 测验ID
	FileName string `json:"filename"` // 源文档文件名
	Status   string `json:"status"`   // 生成状态
}

// AnswerItem 题目选项
type AnswerItem struct {
	Text      string `json:"answerText"` // 选项内容
	IsCorrect bool   `json:"isCorrect"`  // 是否为正确答案
}

// QuestionItem 测验题目
type QuestionItem struct {
	Text    string       `json:"questionText"` // 题干
	Answers []AnswerItem `json:"answers"`      // 选项列表
}

// QuizDetailResponse 测验详情响应
type QuizDetailResponse struct {
	QuizID        string         `json:"quiz_id"`                // 测验ID
	Name          string         `json:"name"`                   // 测验名称
	Description   string         `json:"description"`            // 测验描述
	FileName      string         `json:"filename"`               // 源文档文件名
	Status        string         `json:"status"`                 // 生成状态
	Error         string         `json:"error,omitempty"`        // 错误信息（如果失败）
	SegmentCount  int            `json:"segment_count"`          // 参与生成的文本段数
	QuestionCount int            `json:"question_count"`         // 题目数量
	Questions     []QuestionItem `json:"questions"`              // 题目列表
	CreatedAt     time.Time      `json:"created_at"`             // 创建时间
	GeneratedAt   *time.Time     `json:"generated_at,omitempty"` // 生成完成时间
}

// QuizInfo 测验列表项
type QuizInfo struct {
	QuizID        string    `json:"quiz_id"`        // 测验ID
	Name          string    `json:"name"`           // 测验名称
	FileName      string    `json:"filename"`       // 源文档文件名
	Status        string    `json:"status"`         // 生成状态
	QuestionCount int       `json:"question_count"` // 题目数量
	CreatedAt     time.Time `json:"created_at"`     // 创建时间
}

// QuizListResponse 测验列表响应
type QuizListResponse struct {
	Total    int64      `json:"total"`     // 总记录数
	Page     int        `json:"page"`      // 当前页码
	PageSize int        `json:"page_size"` // 每页记录数
	Quizzes  []QuizInfo `json:"quizzes"`   // 测验列表
}

// QuizDeleteResponse 测验删除响应
type QuizDeleteResponse struct {
	QuizID  string `json:"quiz_id"` // 测验ID
	Deleted bool   `json:"deleted"` // 是否已删除
}

// NewQuizDetailResponse 从数据模型构建测验详情响应
func NewQuizDetailResponse(quiz *models.Quiz) *QuizDetailResponse {
	questions := make([]QuestionItem, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers := make([]AnswerItem, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, AnswerItem{
				Text:      a.Text,
				IsCorrect: a.IsCorrect,
			})
		}
		questions = append(questions, QuestionItem{
			Text:    q.Text,
			Answers: answers,
		})
	}

	return &QuizDetailResponse{
		QuizID:        quiz.ID,
		Name:          quiz.Name,
		Description:   quiz.Description,
		FileName:      quiz.SourceFileName,
		Status:        string(quiz.Status),
		Error:         quiz.Error,
		SegmentCount:  quiz.SegmentCount,
		QuestionCount: quiz.QuestionCount,
		Questions:     questions,
		CreatedAt:     quiz.CreatedAt,
		GeneratedAt:   quiz.GeneratedAt,
	}
}

// NewQuizInfo 从数据模型构建测验列表项
func NewQuizInfo(quiz *models.Quiz) QuizInfo {
	return QuizInfo{
		QuizID:        quiz.ID,
		Name:          quiz.Name,
		FileName:      quiz.SourceFileName,
		Status:        string(quiz.Status),
		QuestionCount: quiz.QuestionCount,
		CreatedAt:     quiz.CreatedAt,
	}
}
