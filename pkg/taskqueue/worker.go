package taskqueue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Worker 基于asynq的任务工作者
// 从队列消费任务并分发给注册的处理器
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	queue    Queue
	handlers map[TaskType]Handler
	logger   *logrus.Logger
}

// NewWorker 创建任务工作者实例
func NewWorker(cfg *Config, queue Queue, logger *logrus.Logger) *Worker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
		},
	)

	return &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		queue:    queue,
		handlers: make(map[TaskType]Handler),
		logger:   logger,
	}
}

// RegisterHandler 注册任务处理器
// 同一个处理器可以声明支持多种任务类型
func (w *Worker) RegisterHandler(handler Handler) {
	for _, taskType := range handler.GetTaskTypes() {
		w.handlers[taskType] = handler
		w.mux.HandleFunc(string(taskType), w.dispatch)
	}
}

// Start 启动工作者，开始处理任务
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Stop 停止工作者并等待进行中的任务结束
func (w *Worker) Stop() {
	w.server.Shutdown()
}

// dispatch 从Redis加载任务数据并调用对应的处理器
func (w *Worker) dispatch(ctx context.Context, t *asynq.Task) error {
	taskID := string(t.Payload())

	task, err := w.queue.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	handler, ok := w.handlers[task.Type]
	if !ok {
		return fmt.Errorf("no handler registered for task type %s", task.Type)
	}

	if err := w.queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, ""); err != nil {
		w.logger.WithError(err).WithField("task_id", taskID).Warn("Failed to mark task as processing")
	}

	if err := handler.ProcessTask(ctx, task); err != nil {
		if updateErr := w.queue.UpdateTaskStatus(ctx, taskID, StatusFailed, err.Error()); updateErr != nil {
			w.logger.WithError(updateErr).WithField("task_id", taskID).Warn("Failed to mark task as failed")
		}
		return err
	}

	if err := w.queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, ""); err != nil {
		w.logger.WithError(err).WithField("task_id", taskID).Warn("Failed to mark task as completed")
	}

	w.logger.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": task.Type,
		"quiz_id":   task.QuizID,
	}).Info("Task processed successfully")

	return nil
}
