package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-quiz-system/internal/database"
	"github.com/fyerfyer/doc-quiz-system/internal/models"
	"github.com/fyerfyer/doc-quiz-system/internal/quizgen"
)

// quizRepository 测验仓储实现
type quizRepository struct {
	db *gorm.DB // 数据库连接
}

// NewQuizRepository 创建测验仓储实例
func NewQuizRepository() QuizRepository {
	return &quizRepository{
		db: database.MustDB(),
	}
}

// NewQuizRepositoryWithDB 使用指定的数据库连接创建测验仓储实例
func NewQuizRepositoryWithDB(db *gorm.DB) QuizRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &quizRepository{
		db: db,
	}
}

// Create 创建测验记录
func (r *quizRepository) Create(quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.New().String()
	}

	if quiz.Status == "" {
		quiz.Status = models.QuizStatusPending
	}

	return r.db.Create(quiz).Error
}

// Update 更新测验记录
func (r *quizRepository) Update(quiz *models.Quiz) error {
	if quiz.ID == "" {
		return errors.New("quiz ID cannot be empty")
	}

	return r.db.Save(quiz).Error
}

// GetByID 根据ID获取测验，预加载题目和答案并按位置排序
func (r *quizRepository) GetByID(id string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.position ASC")
		}).
		Where("id = ?", id).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrQuizNotFound, id)
		}
		return nil, err
	}
	return &quiz, nil
}

// List 列出测验列表，支持分页和筛选
func (r *quizRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := r.db.Model(&models.Quiz{})

	// 应用筛选条件
	if filters != nil {
		// 状态过滤
		if status, ok := filters["status"]; ok {
			switch s := status.(type) {
			case models.QuizStatus:
				query = query.Where("status = ?", string(s))
			case string:
				if s != "" {
					query = query.Where("status = ?", s)
				}
			}
		}

		// 源文件过滤
		if fileID, ok := filters["file_id"].(string); ok && fileID != "" {
			query = query.Where("source_file_id = ?", fileID)
		}

		// 名称模糊匹配
		if name, ok := filters["name"].(string); ok && name != "" {
			query = query.Where("name LIKE ?", "%"+name+"%")
		}

		// 时间范围过滤
		if startTime, ok := filters["start_time"].(string); ok && startTime != "" {
			query = query.Where("created_at >= ?", startTime)
		}

		if endTime, ok := filters["end_time"].(string); ok && endTime != "" {
			query = query.Where("created_at <= ?", endTime)
		}
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 应用排序、分页并执行查询
	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

// Delete 删除测验及其所有题目和答案
func (r *quizRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 查找测验下的题目ID
		var questionIDs []uint
		if err := tx.Model(&models.Question{}).
			Where("quiz_id = ?", id).
			Pluck("id", &questionIDs).Error; err != nil {
			return err
		}

		// 2. 删除答案
		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).
				Delete(&models.Answer{}).Error; err != nil {
				return err
			}
		}

		// 3. 删除题目
		if err := tx.Where("quiz_id = ?", id).
			Delete(&models.Question{}).Error; err != nil {
			return err
		}

		// 4. 删除测验记录
		return tx.Where("id = ?", id).Delete(&models.Quiz{}).Error
	})
}

// UpdateStatus 更新测验生成状态
func (r *quizRepository) UpdateStatus(id string, status models.QuizStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	// 生成完成时设置完成时间
	if status == models.QuizStatusCompleted {
		now := time.Now()
		updates["generated_at"] = &now
	}

	result := r.db.Model(&models.Quiz{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrQuizNotFound, id)
	}
	return nil
}

// SaveResult 保存聚合后的生成结果并将测验标记为完成
// 题目和答案在同一事务中写入，失败时不留下部分结果
func (r *quizRepository) SaveResult(id string, result *quizgen.Quiz, segmentCount int) error {
	if result == nil {
		return errors.New("quiz result cannot be nil")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 确认测验存在
		var quiz models.Quiz
		if err := tx.Where("id = ?", id).First(&quiz).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", models.ErrQuizNotFound, id)
			}
			return err
		}

		// 2. 按聚合顺序写入题目和答案
		for i, q := range result.Questions {
			question := models.Question{
				QuizID:   id,
				Position: i,
				Text:     q.Text,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}

			for j, a := range q.Answers {
				answer := models.Answer{
					QuestionID: question.ID,
					Position:   j,
					Text:       a.Text,
					IsCorrect:  a.IsCorrect,
				}
				if err := tx.Create(&answer).Error; err != nil {
					return err
				}
			}
		}

		// 3. 更新测验状态和统计信息
		now := time.Now()
		return tx.Model(&models.Quiz{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":         models.QuizStatusCompleted,
			"segment_count":  segmentCount,
			"question_count": len(result.Questions),
			"error":          "",
			"updated_at":     now,
			"generated_at":   &now,
		}).Error
	})
}
