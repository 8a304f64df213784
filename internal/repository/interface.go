package repository

import (
	"github.com/fyerfyer/doc-quiz-system/internal/models"
	"github.com/fyerfyer/doc-quiz-system/internal/quizgen"
)

// QuizRepository 测验仓储接口
// 负责测验及其题目、答案的存储和检索
type QuizRepository interface {
	// Create 创建测验记录，ID为空时自动生成
	Create(quiz *models.Quiz) error

	// Update 更新测验记录
	Update(quiz *models.Quiz) error

	// GetByID 根据ID获取测验，包含题目和答案
	GetByID(id string) (*models.Quiz, error)

	// List 列出测验列表，支持分页和筛选
	List(offset, limit int, filters map[string]interface{}) ([]*models.Quiz, int64, error)

	// Delete 删除测验及其所有题目和答案
	Delete(id string) error

	// UpdateStatus 更新测验生成状态
	UpdateStatus(id string, status models.QuizStatus, errorMsg string) error

	// SaveResult 保存聚合后的生成结果并将测验标记为完成
	SaveResult(id string, result *quizgen.Quiz, segmentCount int) error
}
