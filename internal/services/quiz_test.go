package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-quiz-system/internal/cache"
	"github.com/fyerfyer/doc-quiz-system/internal/document"
	"github.com/fyerfyer/doc-quiz-system/internal/llm"
	"github.com/fyerfyer/doc-quiz-system/internal/models"
	"github.com/fyerfyer/doc-quiz-system/internal/quizgen"
	"github.com/fyerfyer/doc-quiz-system/internal/repository"
	"github.com/fyerfyer/doc-quiz-system/pkg/storage"
)

// scriptedClient 按预设脚本逐次返回回复的客户端
type scriptedClient struct {
	replies []string
	errs    []error
	calls   int
}

func (c *scriptedClient) Generate(ctx context.Context, prompt string, options ...llm.GenerateOption) (*llm.Response, error) {
	idx := c.calls
	c.calls++

	if idx < len(c.errs) && c.errs[idx] != nil {
		return nil, c.errs[idx]
	}

	reply := ""
	if idx < len(c.replies) {
		reply = c.replies[idx]
	}
	return &llm.Response{
		Text:       reply,
		ModelName:  c.Name(),
		FinishTime: time.Now(),
	}, nil
}

func (c *scriptedClient) Name() string {
	return "scripted"
}

// fragmentJSON 构造单题的测验片段JSON
func fragmentJSON(questionText string) string {
	return fmt.Sprintf(`{
		"name": "",
		"description": "",
		"questions": [
			{
				"questionText": %q,
				"answers": [
					{"answerText": "yes", "isCorrect": true},
					{"answerText": "no", "isCorrect": false}
				]
			}
		]
	}`, questionText)
}

func setupQuizService(t *testing.T, client llm.Client) (*QuizService, repository.QuizRepository) {
	dbName := fmt.Sprintf("file:quizsvc_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")
	require.NoError(t, db.AutoMigrate(&models.Quiz{}, &models.Question{}, &models.Answer{}))

	repo := repository.NewQuizRepositoryWithDB(db)

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err, "Failed to create local storage")

	// 小分段上限，便于在测试中产生多个文本段
	splitter := document.NewWordSplitter(document.SplitterConfig{
		MaxSegmentLength: 20,
		MaxSegments:      10,
	})

	memCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)

	service := NewQuizService(
		store,
		splitter,
		quizgen.NewGenerator(client),
		repo,
		WithCache(memCache),
		WithTimeout(time.Minute),
	)

	return service, repo
}

func TestQuizService_CreateQuiz_Success(t *testing.T) {
	client := &scriptedClient{
		replies: []string{
			fragmentJSON("question from segment one"),
			fragmentJSON("question from segment two"),
			fragmentJSON("question from segment three"),
		},
	}
	service, _ := setupQuizService(t, client)

	// 文本长度超过分段上限，会被切成多个文本段
	content := "alpha beta gamma delta epsilon zeta eta theta"
	quiz, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader(content),
		"notes.txt",
		"My Quiz",
		"quiz about greek letters",
	)
	require.NoError(t, err, "CreateQuiz should succeed")

	assert.Equal(t, models.QuizStatusCompleted, quiz.Status)
	assert.Equal(t, "My Quiz", quiz.Name)
	assert.Equal(t, "quiz about greek letters", quiz.Description)
	assert.True(t, client.calls >= 2, "Each segment should trigger its own model call")
	assert.Equal(t, client.calls, quiz.SegmentCount)
	assert.Equal(t, len(quiz.Questions), quiz.QuestionCount)
	assert.NotNil(t, quiz.GeneratedAt)

	// 题目按分段顺序保存
	require.True(t, len(quiz.Questions) >= 2)
	assert.Equal(t, "question from segment one", quiz.Questions[0].Text)
	assert.Equal(t, "question from segment two", quiz.Questions[1].Text)
	require.Len(t, quiz.Questions[0].Answers, 2)
	assert.True(t, quiz.Questions[0].Answers[0].IsCorrect)
}

func TestQuizService_CreateQuiz_FencedReply(t *testing.T) {
	client := &scriptedClient{
		replies: []string{
			"```json\n" + fragmentJSON("fenced question") + "\n```",
		},
	}
	service, _ := setupQuizService(t, client)

	quiz, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader("short text"),
		"notes.txt",
		"", "",
	)
	require.NoError(t, err)

	assert.Equal(t, models.QuizStatusCompleted, quiz.Status)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "fenced question", quiz.Questions[0].Text)
}

func TestQuizService_CreateQuiz_SkipsUnparseableSegment(t *testing.T) {
	client := &scriptedClient{
		replies: []string{
			fragmentJSON("valid question"),
			"sorry, I cannot produce a quiz for this text",
			fragmentJSON("another valid question"),
		},
	}
	service, _ := setupQuizService(t, client)

	content := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"
	quiz, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader(content),
		"notes.txt",
		"", "",
	)
	require.NoError(t, err, "Unparseable segment should be skipped, not fail the quiz")

	assert.Equal(t, models.QuizStatusCompleted, quiz.Status)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "valid question", quiz.Questions[0].Text)
	assert.Equal(t, "another valid question", quiz.Questions[1].Text)
}

func TestQuizService_CreateQuiz_GenerationFailureAbortsAll(t *testing.T) {
	client := &scriptedClient{
		replies: []string{
			fragmentJSON("question before the failure"),
		},
		errs: []error{
			nil,
			llm.NewLLMError(llm.ErrCodeServerError, llm.ErrMsgServerError),
		},
	}
	service, repo := setupQuizService(t, client)

	content := "alpha beta gamma delta epsilon zeta eta theta"
	_, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader(content),
		"notes.txt",
		"", "",
	)
	require.Error(t, err, "Model failure should abort the whole pipeline")
	assert.True(t, errors.Is(err, models.ErrGenerationFailed))

	// 失败的测验不保留任何题目，包括失败前已生成的片段
	quizzes, _, listErr := repo.List(0, 10, nil)
	require.NoError(t, listErr)
	require.Len(t, quizzes, 1)

	failed, getErr := repo.GetByID(quizzes[0].ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.QuizStatusFailed, failed.Status)
	assert.NotEmpty(t, failed.Error)
	assert.Empty(t, failed.Questions)
	assert.Equal(t, 0, failed.QuestionCount)
}

func TestQuizService_CreateQuiz_AllSegmentsUnparseable(t *testing.T) {
	client := &scriptedClient{
		replies: []string{
			"garbage one",
			"garbage two",
		},
	}
	service, repo := setupQuizService(t, client)

	content := "alpha beta gamma delta epsilon zeta eta theta"
	_, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader(content),
		"notes.txt",
		"", "",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoQuizData))

	quizzes, _, listErr := repo.List(0, 10, nil)
	require.NoError(t, listErr)
	require.Len(t, quizzes, 1)
	assert.Equal(t, models.QuizStatusFailed, quizzes[0].Status)
}

func TestQuizService_CreateQuiz_EmptyDocument(t *testing.T) {
	client := &scriptedClient{}
	service, _ := setupQuizService(t, client)

	_, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader("   \n\t  "),
		"notes.txt",
		"", "",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyDocument))
	assert.Equal(t, 0, client.calls, "Empty document must not trigger model calls")
}

func TestQuizService_CreateQuiz_UnsupportedFileType(t *testing.T) {
	client := &scriptedClient{}
	service, _ := setupQuizService(t, client)

	_, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader("binary data"),
		"image.png",
		"", "",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, document.ErrUnsupportedType))
	assert.Equal(t, 0, client.calls)
}

func TestQuizService_GetQuiz(t *testing.T) {
	client := &scriptedClient{
		replies: []string{fragmentJSON("cached question")},
	}
	service, repo := setupQuizService(t, client)

	quiz, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader("short text"),
		"notes.txt",
		"", "",
	)
	require.NoError(t, err)

	t.Run("FromRepository", func(t *testing.T) {
		got, err := service.GetQuiz(context.Background(), quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, quiz.ID, got.ID)
		require.Len(t, got.Questions, 1)
	})

	t.Run("FromCache", func(t *testing.T) {
		// 第一次读取已写入缓存，删除数据库记录后仍可命中
		require.NoError(t, repo.Delete(quiz.ID))

		got, err := service.GetQuiz(context.Background(), quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, quiz.ID, got.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := service.GetQuiz(context.Background(), "no-such-quiz")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrQuizNotFound))
	})
}

func TestQuizService_ListQuizzes(t *testing.T) {
	client := &scriptedClient{
		replies: []string{
			fragmentJSON("q1"),
			fragmentJSON("q2"),
		},
	}
	service, _ := setupQuizService(t, client)

	for i := 0; i < 2; i++ {
		_, err := service.CreateQuiz(
			context.Background(),
			strings.NewReader("short text"),
			"notes.txt",
			fmt.Sprintf("quiz-%d", i), "",
		)
		require.NoError(t, err)
	}

	quizzes, total, err := service.ListQuizzes(context.Background(), 0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, quizzes, 2)

	quizzes, total, err = service.ListQuizzes(context.Background(), 0, 10, map[string]interface{}{
		"status": models.QuizStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, quizzes, 2)
}

func TestQuizService_DeleteQuiz(t *testing.T) {
	client := &scriptedClient{
		replies: []string{fragmentJSON("to be deleted")},
	}
	service, _ := setupQuizService(t, client)

	quiz, err := service.CreateQuiz(
		context.Background(),
		strings.NewReader("short text"),
		"notes.txt",
		"", "",
	)
	require.NoError(t, err)

	require.NoError(t, service.DeleteQuiz(context.Background(), quiz.ID))

	_, err = service.GetQuiz(context.Background(), quiz.ID)
	assert.True(t, errors.Is(err, models.ErrQuizNotFound))

	err = service.DeleteQuiz(context.Background(), quiz.ID)
	assert.True(t, errors.Is(err, models.ErrQuizNotFound))
}
