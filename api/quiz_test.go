package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-quiz-system/api/handler"
	"github.com/fyerfyer/doc-quiz-system/internal/document"
	"github.com/fyerfyer/doc-quiz-system/internal/llm"
	"github.com/fyerfyer/doc-quiz-system/internal/models"
	"github.com/fyerfyer/doc-quiz-system/internal/quizgen"
	"github.com/fyerfyer/doc-quiz-system/internal/repository"
	"github.com/fyerfyer/doc-quiz-system/internal/services"
	"github.com/fyerfyer/doc-quiz-system/pkg/storage"
)

// stubClient 返回固定回复序列的客户端
type stubClient struct {
	replies []string
	err     error
	calls   int
}

func (c *stubClient) Generate(ctx context.Context, prompt string, options ...llm.GenerateOption) (*llm.Response, error) {
	idx := c.calls
	c.calls++

	if c.err != nil {
		return nil, c.err
	}

	reply := ""
	if idx < len(c.replies) {
		reply = c.replies[idx]
	}
	return &llm.Response{Text: reply, ModelName: c.Name(), FinishTime: time.Now()}, nil
}

func (c *stubClient) Name() string {
	return "stub"
}

func quizReply(questionText string) string {
	return fmt.Sprintf(`{"name":"","description":"","questions":[{"questionText":%q,"answers":[{"answerText":"yes","isCorrect":true},{"answerText":"no","isCorrect":false}]}]}`, questionText)
}

func setupTestRouter(t *testing.T, client llm.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:quizapi_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Quiz{}, &models.Question{}, &models.Answer{}))

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	service := services.NewQuizService(
		store,
		document.NewWordSplitter(document.DefaultSplitterConfig()),
		quizgen.NewGenerator(client),
		repository.NewQuizRepositoryWithDB(db),
	)

	return SetupRouter(handler.NewQuizHandler(service))
}

// uploadRequest 构建multipart上传请求
func uploadRequest(t *testing.T, filename string, content string, fields map[string]string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func doRequest(router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestCreateQuizAPI(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := &stubClient{replies: []string{quizReply("api question")}}
		router := setupTestRouter(t, client)

		req := uploadRequest(t, "notes.txt", "some document text", map[string]string{
			"name":        "API Quiz",
			"description": "made via api",
		})
		w, resp := doRequest(router, req)

		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
		data := resp["data"].(map[string]interface{})
		assert.NotEmpty(t, data["quiz_id"])
		assert.Equal(t, "notes.txt", data["filename"])
		assert.Equal(t, "completed", data["status"])
	})

	t.Run("MissingFile", func(t *testing.T) {
		router := setupTestRouter(t, &stubClient{})

		req := uploadRequest(t, "", "", map[string]string{"name": "no file"})
		w, resp := doRequest(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp["message"], "required")
	})

	t.Run("UnsupportedFileType", func(t *testing.T) {
		client := &stubClient{}
		router := setupTestRouter(t, client)

		req := uploadRequest(t, "image.png", "binary", nil)
		w, _ := doRequest(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, client.calls)
	})

	t.Run("GenerationFailure", func(t *testing.T) {
		client := &stubClient{err: llm.NewLLMError(llm.ErrCodeServerError, llm.ErrMsgServerError)}
		router := setupTestRouter(t, client)

		req := uploadRequest(t, "notes.txt", "some document text", nil)
		w, resp := doRequest(router, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, resp["message"], "generation failed")
	})

	t.Run("NoQuizData", func(t *testing.T) {
		client := &stubClient{replies: []string{"not json at all"}}
		router := setupTestRouter(t, client)

		req := uploadRequest(t, "notes.txt", "some document text", nil)
		w, _ := doRequest(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("EmptyDocument", func(t *testing.T) {
		client := &stubClient{}
		router := setupTestRouter(t, client)

		req := uploadRequest(t, "notes.txt", "   ", nil)
		w, _ := doRequest(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, client.calls)
	})
}

func TestGetQuizAPI(t *testing.T) {
	client := &stubClient{replies: []string{quizReply("detail question")}}
	router := setupTestRouter(t, client)

	req := uploadRequest(t, "notes.txt", "some document text", map[string]string{"name": "Detail Quiz"})
	w, resp := doRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	quizID := resp["data"].(map[string]interface{})["quiz_id"].(string)

	t.Run("Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/quizzes/"+quizID, nil)
		w, resp := doRequest(router, req)

		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "Detail Quiz", data["name"])
		assert.Equal(t, "completed", data["status"])

		questions := data["questions"].([]interface{})
		require.Len(t, questions, 1)
		question := questions[0].(map[string]interface{})
		assert.Equal(t, "detail question", question["questionText"])

		answers := question["answers"].([]interface{})
		require.Len(t, answers, 2)
		assert.Equal(t, true, answers[0].(map[string]interface{})["isCorrect"])
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/quizzes/nonexistent", nil)
		w, _ := doRequest(router, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListQuizzesAPI(t *testing.T) {
	client := &stubClient{replies: []string{quizReply("q1"), quizReply("q2")}}
	router := setupTestRouter(t, client)

	for i := 0; i < 2; i++ {
		req := uploadRequest(t, "notes.txt", "some document text", map[string]string{
			"name": fmt.Sprintf("quiz-%d", i),
		})
		w, _ := doRequest(router, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes?page=1&page_size=10", nil)
	w, resp := doRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	assert.Len(t, data["quizzes"].([]interface{}), 2)

	t.Run("StatusFilter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/quizzes?status=failed", nil)
		w, resp := doRequest(router, req)

		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, float64(0), data["total"])
	})
}

func TestDeleteQuizAPI(t *testing.T) {
	client := &stubClient{replies: []string{quizReply("to delete")}}
	router := setupTestRouter(t, client)

	req := uploadRequest(t, "notes.txt", "some document text", nil)
	w, resp := doRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	quizID := resp["data"].(map[string]interface{})["quiz_id"].(string)

	deleteReq := httptest.NewRequest(http.MethodDelete, "/api/quizzes/"+quizID, nil)
	w, resp = doRequest(router, deleteReq)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["data"].(map[string]interface{})["deleted"])

	getReq := httptest.NewRequest(http.MethodGet, "/api/quizzes/"+quizID, nil)
	w, _ = doRequest(router, getReq)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAPI(t *testing.T) {
	router := setupTestRouter(t, &stubClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w, resp := doRequest(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}
