package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-quiz-system/internal/cache"
	"github.com/fyerfyer/doc-quiz-system/internal/document"
	"github.com/fyerfyer/doc-quiz-system/internal/models"
	"github.com/fyerfyer/doc-quiz-system/internal/quizgen"
	"github.com/fyerfyer/doc-quiz-system/internal/repository"
	"github.com/fyerfyer/doc-quiz-system/pkg/storage"
	"github.com/fyerfyer/doc-quiz-system/pkg/taskqueue"
)

// QuizService 测验服务
// 负责协调文档解析、分段、逐段生成和结果聚合
type QuizService struct {
	storage      storage.Storage           // 文件存储服务
	splitter     document.Splitter         // 文本分段器
	generator    *quizgen.Generator        // 测验片段生成器
	repo         repository.QuizRepository // 测验元数据存储
	cache        cache.Cache               // 缓存
	taskQueue    taskqueue.Queue           // 任务队列
	asyncEnabled bool                      // 是否启用异步处理
	timeout      time.Duration             // 处理超时时间
	cacheTTL     time.Duration             // 测验详情缓存时间
	logger       *logrus.Logger            // 日志记录器
}

// QuizOption 测验服务配置选项
type QuizOption func(*QuizService)

// NewQuizService 创建一个新的测验服务
func NewQuizService(
	storage storage.Storage,
	splitter document.Splitter,
	generator *quizgen.Generator,
	repo repository.QuizRepository,
	opts ...QuizOption,
) *QuizService {
	srv := &QuizService{
		storage:      storage,
		splitter:     splitter,
		generator:    generator,
		repo:         repo,
		timeout:      time.Minute * 10,
		cacheTTL:     time.Hour,
		logger:       logrus.New(),
		asyncEnabled: false,
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) QuizOption {
	return func(s *QuizService) {
		s.timeout = timeout
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) QuizOption {
	return func(s *QuizService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache 设置缓存
func WithCache(c cache.Cache) QuizOption {
	return func(s *QuizService) {
		s.cache = c
	}
}

// WithCacheTTL 设置测验详情缓存时间
func WithCacheTTL(ttl time.Duration) QuizOption {
	return func(s *QuizService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithTaskQueue 设置任务队列并启用异步处理
func WithTaskQueue(queue taskqueue.Queue) QuizOption {
	return func(s *QuizService) {
		s.taskQueue = queue
		s.asyncEnabled = queue != nil
	}
}

// CreateQuiz 保存上传的文档并启动测验生成
// 异步模式下立即返回pending状态的测验，同步模式下阻塞到生成结束
func (s *QuizService) CreateQuiz(ctx context.Context, reader io.Reader, filename string, name string, description string) (*models.Quiz, error) {
	if filename == "" {
		return nil, errors.New("filename cannot be empty")
	}

	// 保存源文档
	fileInfo, err := s.storage.Save(reader, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	// 创建测验记录
	quiz := &models.Quiz{
		Name:           name,
		Description:    description,
		SourceFileID:   fileInfo.ID,
		SourceFileName: fileInfo.Name,
		Status:         models.QuizStatusPending,
	}
	if err := s.repo.Create(quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"quiz_id":   quiz.ID,
		"file_id":   fileInfo.ID,
		"file_name": fileInfo.Name,
	}).Info("Quiz created, starting generation")

	// 异步模式下将生成任务加入队列
	if s.asyncEnabled && s.taskQueue != nil {
		payload := taskqueue.QuizGeneratePayload{
			QuizID:   quiz.ID,
			FileID:   fileInfo.ID,
			FileName: fileInfo.Name,
		}
		if _, err := s.taskQueue.Enqueue(ctx, taskqueue.TaskQuizGenerate, quiz.ID, payload); err != nil {
			s.failQuiz(quiz.ID, fmt.Sprintf("failed to enqueue generation task: %v", err))
			return nil, fmt.Errorf("failed to enqueue generation task: %w", err)
		}
		return quiz, nil
	}

	// 同步模式下直接生成
	if err := s.ProcessQuiz(ctx, quiz.ID); err != nil {
		return nil, err
	}

	return s.GetQuiz(ctx, quiz.ID)
}

// ProcessQuiz 执行测验生成流程
// 模型调用失败中止整个流程，单段解析失败只跳过该段
func (s *QuizService) ProcessQuiz(ctx context.Context, quizID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	quiz, err := s.repo.GetByID(quizID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(quizID, models.QuizStatusProcessing, ""); err != nil {
		s.logger.WithError(err).Warn("Failed to mark quiz as processing")
	}

	// 提取文档文本
	content, err := s.extractContent(quiz)
	if err != nil {
		s.failQuiz(quizID, err.Error())
		return err
	}

	// 文本分段
	segments, err := s.splitter.Split(content)
	if err != nil {
		s.failQuiz(quizID, fmt.Sprintf("failed to split content: %v", err))
		return fmt.Errorf("failed to split content: %w", err)
	}

	// 没有可用的文本段时不调用模型，直接结束
	if len(segments) == 0 {
		s.failQuiz(quizID, models.ErrEmptyDocument.Error())
		return models.ErrEmptyDocument
	}

	// 逐段生成并聚合
	aggregator := quizgen.NewAggregator()
	for _, segment := range segments {
		raw, err := s.generator.Generate(ctx, segment.Text)
		if err != nil {
			// 模型调用失败是致命错误，中止整个流程
			s.failQuiz(quizID, fmt.Sprintf("generation failed at segment %d: %v", segment.Index, err))
			return fmt.Errorf("%w: segment %d: %v", models.ErrGenerationFailed, segment.Index, err)
		}

		fragment, err := quizgen.ParseFragment(raw)
		if err != nil {
			if errors.Is(err, quizgen.ErrFragmentParse) {
				// 单段解析失败只跳过该段
				s.logger.WithFields(logrus.Fields{
					"quiz_id": quizID,
					"segment": segment.Index,
				}).WithError(err).Warn("Skipping unparseable quiz fragment")
				continue
			}
			s.failQuiz(quizID, fmt.Sprintf("unexpected parse error: %v", err))
			return err
		}

		aggregator.Merge(fragment)
	}

	// 所有段都没有产出题目
	if aggregator.Empty() {
		s.failQuiz(quizID, models.ErrNoQuizData.Error())
		return models.ErrNoQuizData
	}

	// 保存生成结果
	if err := s.repo.SaveResult(quizID, aggregator.Result(), len(segments)); err != nil {
		s.failQuiz(quizID, fmt.Sprintf("failed to save quiz result: %v", err))
		return fmt.Errorf("failed to save quiz result: %w", err)
	}

	s.invalidateCache(quizID)

	s.logger.WithFields(logrus.Fields{
		"quiz_id":        quizID,
		"segment_count":  len(segments),
		"question_count": aggregator.QuestionCount(),
	}).Info("Quiz generation completed successfully")

	return nil
}

// GetQuiz 获取测验详情，优先读取缓存
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	if s.cache != nil {
		var cached models.Quiz
		if found, err := cache.GetJSON(s.cache, cache.QuizKey(quizID), &cached); err == nil && found {
			return &cached, nil
		}
	}

	quiz, err := s.repo.GetByID(quizID)
	if err != nil {
		return nil, err
	}

	// 只缓存已完成的测验，进行中的状态会变化
	if s.cache != nil && quiz.Status == models.QuizStatusCompleted {
		if err := cache.SetJSON(s.cache, cache.QuizKey(quizID), quiz, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache quiz")
		}
	}

	return quiz, nil
}

// ListQuizzes 列出测验，支持分页和筛选
func (s *QuizService) ListQuizzes(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Quiz, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(offset, limit, filters)
}

// DeleteQuiz 删除测验及其源文档
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID string) error {
	quiz, err := s.repo.GetByID(quizID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	// 源文档删除失败不影响测验删除结果
	if quiz.SourceFileID != "" {
		if err := s.storage.Delete(quiz.SourceFileID); err != nil {
			s.logger.WithError(err).WithField("file_id", quiz.SourceFileID).Warn("Failed to delete source document")
		}
	}

	s.invalidateCache(quizID)
	return nil
}

// extractContent 从存储中取回文档并提取纯文本
func (s *QuizService) extractContent(quiz *models.Quiz) (string, error) {
	reader, err := s.storage.Get(quiz.SourceFileID)
	if err != nil {
		return "", fmt.Errorf("failed to get source document: %w", err)
	}
	defer reader.Close()

	parser, err := document.ParserFactory(quiz.SourceFileName)
	if err != nil {
		return "", fmt.Errorf("failed to create parser for %s: %w", quiz.SourceFileName, err)
	}

	content, err := parser.ParseReader(reader, quiz.SourceFileName)
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}

	return content, nil
}

// failQuiz 将测验标记为失败
func (s *QuizService) failQuiz(quizID string, errorMsg string) {
	if err := s.repo.UpdateStatus(quizID, models.QuizStatusFailed, errorMsg); err != nil {
		s.logger.WithError(err).WithField("quiz_id", quizID).Error("Failed to mark quiz as failed")
	}
	s.invalidateCache(quizID)
}

// invalidateCache 清除测验的缓存项
func (s *QuizService) invalidateCache(quizID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(cache.QuizKey(quizID)); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate quiz cache")
	}
}
