package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-quiz-system/api/middleware"
	"github.com/fyerfyer/doc-quiz-system/api/model"
	"github.com/fyerfyer/doc-quiz-system/internal/document"
	"github.com/fyerfyer/doc-quiz-system/internal/models"
	"github.com/fyerfyer/doc-quiz-system/internal/services"
)

// QuizHandler 处理测验相关的API请求
type QuizHandler struct {
	quizService *services.QuizService // 测验服务
	logger      *logrus.Logger        // 日志记录器
}

// NewQuizHandler 创建新的测验处理器
func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		logger:      middleware.GetLogger(),
	}
}

// CreateQuiz 上传文档并生成测验
// POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req model.QuizCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("document file is required"))
		return
	}

	filename := req.File.Filename
	if !isSupportedFileType(filename) {
		middleware.HandleError(c, middleware.NewValidationError(
			"unsupported file type, only .pdf, .md, .markdown and .txt are accepted"))
		return
	}

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithError(err).WithField("filename", filename).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("failed to open uploaded file"))
		return
	}
	defer file.Close()

	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), file, filename, req.Name, req.Description)
	if err != nil {
		h.handleGenerationError(c, err, filename)
		return
	}

	resp := model.QuizCreateResponse{
		QuizID:   quiz.ID,
		FileName: quiz.SourceFileName,
		Status:   string(quiz.Status),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetQuiz 获取测验详情
// GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	var req model.QuizGetRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("quiz ID is required"))
		return
	}

	quiz, err := h.quizService.GetQuiz(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrQuizNotFound) {
			middleware.HandleError(c, middleware.NewNotFoundError("quiz not found"))
			return
		}
		h.logger.WithError(err).WithField("quiz_id", req.ID).Error("Failed to get quiz")
		middleware.HandleError(c, middleware.NewInternalError("failed to get quiz"))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewQuizDetailResponse(quiz)))
}

// ListQuizzes 获取测验列表
// GET /api/quizzes
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	var req model.QuizListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid query parameters"))
		return
	}

	filters := make(map[string]interface{})
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.FileID != "" {
		filters["file_id"] = req.FileID
	}
	if req.StartTime != nil {
		filters["start_time"] = req.StartTime.Format(time.RFC3339)
	}
	if req.EndTime != nil {
		filters["end_time"] = req.EndTime.Format(time.RFC3339)
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()
	offset := (page - 1) * pageSize

	quizzes, total, err := h.quizService.ListQuizzes(c.Request.Context(), offset, pageSize, filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list quizzes")
		middleware.HandleError(c, middleware.NewInternalError("failed to list quizzes"))
		return
	}

	infos := make([]model.QuizInfo, 0, len(quizzes))
	for _, quiz := range quizzes {
		infos = append(infos, model.NewQuizInfo(quiz))
	}

	resp := model.QuizListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Quizzes:  infos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteQuiz 删除测验
// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	var req model.QuizDeleteRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("quiz ID is required"))
		return
	}

	if err := h.quizService.DeleteQuiz(c.Request.Context(), req.ID); err != nil {
		if errors.Is(err, models.ErrQuizNotFound) {
			middleware.HandleError(c, middleware.NewNotFoundError("quiz not found"))
			return
		}
		h.logger.WithError(err).WithField("quiz_id", req.ID).Error("Failed to delete quiz")
		middleware.HandleError(c, middleware.NewInternalError("failed to delete quiz"))
		return
	}

	h.logger.WithField("quiz_id", req.ID).Info("Quiz deleted successfully")

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.QuizDeleteResponse{
		QuizID:  req.ID,
		Deleted: true,
	}))
}

// handleGenerationError 将生成流程的错误映射为API错误
// 响应中只携带错误分类，不包含文档内容或提示词
func (h *QuizHandler) handleGenerationError(c *gin.Context, err error, filename string) {
	h.logger.WithError(err).WithField("filename", filename).Error("Quiz generation failed")

	switch {
	case errors.Is(err, document.ErrUnsupportedType):
		middleware.HandleError(c, middleware.NewValidationError("unsupported document type"))
	case errors.Is(err, models.ErrEmptyDocument):
		middleware.HandleError(c, middleware.NewBusinessError("document has no extractable text"))
	case errors.Is(err, models.ErrNoQuizData):
		middleware.HandleError(c, middleware.NewBusinessError("no quiz questions could be generated from this document"))
	case errors.Is(err, models.ErrGenerationFailed):
		middleware.HandleError(c, middleware.NewInternalError("quiz generation failed"))
	default:
		middleware.HandleError(c, middleware.NewInternalError("failed to create quiz"))
	}
}

// isSupportedFileType 检查文件扩展名是否受支持
func isSupportedFileType(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".md", ".markdown", ".txt":
		return true
	default:
		return false
	}
}
