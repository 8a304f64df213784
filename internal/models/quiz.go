package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizStatus 测验生成状态类型
type QuizStatus string

const (
	// QuizStatusPending 已创建，等待生成
	QuizStatusPending QuizStatus = "pending"
	// QuizStatusProcessing 生成中
	QuizStatusProcessing QuizStatus = "processing"
	// QuizStatusCompleted 生成完成
	QuizStatusCompleted QuizStatus = "completed"
	// QuizStatusFailed 生成失败
	QuizStatusFailed QuizStatus = "failed"
)

// Quiz 测验数据模型
// 存储一次文档生成任务产出的完整测验
type Quiz struct {
	ID             string         `gorm:"primaryKey"`         // 测验ID，主键
	Name           string         `gorm:"size:255"`           // 测验名称（聚合逻辑不填充，由调用方设置）
	Description    string         `gorm:"type:text"`          // 测验描述（同上）
	SourceFileID   string         `gorm:"size:50;index"`      // 源文档文件ID
	SourceFileName string         `gorm:"size:255"`           // 源文档文件名
	Status         QuizStatus     `gorm:"not null;index"`     // 生成状态
	SegmentCount   int            `gorm:"not null;default:0"` // 参与生成的文本段数
	QuestionCount  int            `gorm:"not null;default:0"` // 题目数量
	Error          string         `gorm:"type:text"`          // 错误信息（如果失败）
	Metadata       datatypes.JSON `gorm:"type:json"`          // 元数据，JSON格式
	CreatedAt      time.Time      `gorm:"not null;index"`     // 创建时间
	UpdatedAt      time.Time      `gorm:"not null"`           // 更新时间
	GeneratedAt    *time.Time     `gorm:"index"`              // 生成完成时间

	Questions []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"` // 题目列表
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (q *Quiz) BeforeCreate(tx *gorm.DB) (err error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	q.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (q *Quiz) BeforeUpdate(tx *gorm.DB) (err error) {
	q.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Quiz) TableName() string {
	return "quizzes"
}

// Question 题目数据模型
// 题目只作为某个测验的组成部分存在
type Question struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"` // 主键ID
	QuizID    string    `gorm:"not null;index"`           // 所属测验ID
	Position  int       `gorm:"not null"`                 // 题目在测验中的位置（按段处理顺序）
	Text      string    `gorm:"type:text;not null"`       // 题干文本
	CreatedAt time.Time `gorm:"not null"`                 // 创建时间

	Answers []Answer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"` // 候选答案列表
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (q *Question) BeforeCreate(tx *gorm.DB) (err error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	return nil
}

// TableName 明确指定表名
func (Question) TableName() string {
	return "questions"
}

// Answer 候选答案数据模型
// 正确性标记直接取自模型输出，不做唯一性校验
type Answer struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"` // 主键ID
	QuestionID uint   `gorm:"not null;index"`           // 所属题目ID
	Position   int    `gorm:"not null"`                 // 答案在题目中的位置
	Text       string `gorm:"type:text;not null"`       // 答案文本
	IsCorrect  bool   `gorm:"not null;default:false"`   // 是否为正确答案
}

// TableName 明确指定表名
func (Answer) TableName() string {
	return "answers"
}
