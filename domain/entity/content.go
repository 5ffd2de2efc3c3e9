package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Content 内容文档（内存模型）
type Content struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	ImageURL   string        `json:"imageUrl"`
	Period     DisplayPeriod `json:"period"`
	Yn         CommonYn      `json:"yn"`
	Memo       string        `json:"memo"`
	Components []Component   `json:"components"`
}

// ContentMetaPatch 只修改 components 以外的元数据，id 不可修改
type ContentMetaPatch struct {
	Title    *string        `json:"title,omitempty"`
	ImageURL *string        `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Period   *DisplayPeriod `json:"period,omitempty"`
	Yn       *CommonYn      `json:"yn,omitempty" validate:"omitempty,oneof=Y N"`
	Memo     *string        `json:"memo,omitempty"`
}

// Merge 合并元数据
func (c Content) Merge(p *ContentMetaPatch) Content {
	if p == nil {
		return c
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.Period != nil {
		c.Period = *p.Period
	}
	if p.Yn != nil {
		c.Yn = *p.Yn
	}
	if p.Memo != nil {
		c.Memo = *p.Memo
	}
	return c
}

// ContentRecord 数据库模型
// Document 在 PostgreSQL 下为 JSONB，在 MySQL 下为 JSON（由 datatypes.JSON 按方言决定）
type ContentRecord struct {
	ID        uint           `gorm:"primaryKey"`
	ContentID string         `gorm:"uniqueIndex;size:64"`
	Title     string         `gorm:"size:255"` // 冗余字段，列表查询用
	Document  datatypes.JSON
	Version   int64          `gorm:"default:0"`
	CreatorID string         `gorm:"index;size:64"` // Clerk user_id
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 表名
func (ContentRecord) TableName() string {
	return "contents"
}

// Decode 把 Document 解析为内存模型，ID 以 ContentID 为准
func (r *ContentRecord) Decode() (Content, error) {
	var doc Content
	if len(r.Document) > 0 {
		if err := json.Unmarshal(r.Document, &doc); err != nil {
			return Content{}, fmt.Errorf("decode document %s: %w", r.ContentID, err)
		}
	}
	doc.ID = r.ContentID
	if doc.Components == nil {
		doc.Components = []Component{}
	}
	return doc, nil
}
