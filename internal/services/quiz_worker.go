package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-quiz-system/pkg/taskqueue"
)

// QuizTaskHandler 测验生成任务处理器
// 消费队列中的生成任务并交给测验服务执行
type QuizTaskHandler struct {
	service *QuizService
	logger  *logrus.Logger
}

// NewQuizTaskHandler 创建测验生成任务处理器
func NewQuizTaskHandler(service *QuizService, logger *logrus.Logger) *QuizTaskHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &QuizTaskHandler{
		service: service,
		logger:  logger,
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *QuizTaskHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskQuizGenerate}
}

// ProcessTask 处理测验生成任务
func (h *QuizTaskHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.QuizGeneratePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", taskqueue.ErrInvalidPayload, err)
	}

	if payload.QuizID == "" {
		return fmt.Errorf("%w: quiz_id is empty", taskqueue.ErrInvalidPayload)
	}

	h.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"quiz_id": payload.QuizID,
	}).Info("Processing quiz generation task")

	return h.service.ProcessQuiz(ctx, payload.QuizID)
}
