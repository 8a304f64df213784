package model

import (
	"mime/multipart"
	"time"
)

// PaginationRequest 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// QuizCreateRequest 测验创建请求
// 测验名称和描述由上传方提供，生成流程不会填充它们
type QuizCreateRequest struct {
	File        *multipart.FileHeader `form:"file" binding:"required"`         // 源文档文件
	Name        string                `form:"name" binding:"omitempty"`        // 测验名称
	Description string                `form:"description" binding:"omitempty"` // 测验描述
}

// QuizGetRequest 测验查询请求
type QuizGetRequest struct {
	ID string `uri:"id" binding:"required"` // 测验ID
}

// QuizListRequest 测验列表请求
type QuizListRequest struct {
	PaginationRequest
	Status    string     `form:"status" json:"status" binding:"omitempty"`         // 生成状态过滤
	FileID    string     `form:"file_id" json:"file_id" binding:"omitempty"`       // 源文档过滤
	StartTime *time.Time `form:"start_time" json:"start_time" binding:"omitempty"` // 开始时间
	EndTime   *time.Time `form:"end_time" json:"end_time" binding:"omitempty"`     // 结束时间
}

// QuizDeleteRequest 测验删除请求
type QuizDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 测验ID
}
