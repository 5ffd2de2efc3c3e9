package entity

import (
	"encoding/json"
	"slices"
)

// ViewExtensionType "更多" 按钮点击次数用尽后的行为
type ViewExtensionType string

const (
	ViewExtensionNone    ViewExtensionType = "NONE"
	ViewExtensionLinking ViewExtensionType = "LINKING"
	ViewExtensionPage    ViewExtensionType = "PAGE"
)

// ListType 商品列表排列方式
type ListType string

const (
	ListTypeNone    ListType = "NONE"
	ListTypeColumn  ListType = "COLUMN"
	ListTypeRow     ListType = "ROW"
	ListTypeGridOne ListType = "GRID_ONE"
	ListTypeGridTwo ListType = "GRID_TWO"
)

// OrderType 商品排序方式
type OrderType string

const (
	OrderTypeHighDiscount OrderType = "HIGH_DISCOUNT"
	OrderTypeHighPrice    OrderType = "HIGH_PRICE"
	OrderTypeLowDiscount  OrderType = "LOW_DISCOUNT"
	OrderTypeLowPrice     OrderType = "LOW_PRICE"
	OrderTypeNone         OrderType = "NONE"
	OrderTypeRecent       OrderType = "RECENT"
	OrderTypeRecommend    OrderType = "RECOMMEND"
	OrderTypeReview       OrderType = "REVIEW"
)

// BadgeType 商品徽章
type BadgeType string

const (
	BadgeTypeAll     BadgeType = "ALL"
	BadgeTypeLike    BadgeType = "LIKE"
	BadgeTypeNone    BadgeType = "NONE"
	BadgeTypeRanking BadgeType = "RANKING"
)

// SortItem 商品列表中的一项，Payload 由调用方定义
type SortItem struct {
	ID      string          `json:"id" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ProductView 商品列表的展示/分页配置
// 初始展示 InitialVisibleCount 个，每次点 "更多" 追加 IncrementCount 个，
// 点击 MaxLoadMoreClicks 次后按 ExtensionType 处理
type ProductView struct {
	ID                   string            `json:"id"`
	ListType             ListType          `json:"listType"`
	BadgeType            BadgeType         `json:"badgeType"`
	OrderType            OrderType         `json:"orderType"`
	ButtonLabel          string            `json:"buttonLabel"`
	ExtensionButtonLabel string            `json:"extensionButtonLabel"`
	ButtonLinkURL        *string           `json:"buttonLinkUrl,omitempty"` // 仅 LINKING 时使用
	InitialVisibleCount  int               `json:"initialVisibleCount"`
	IncrementCount       int               `json:"incrementCount"`
	MaxLoadMoreClicks    int               `json:"maxLoadMoreClicks"`
	ExtensionType        ViewExtensionType `json:"extensionType"`
	SortItem             []SortItem        `json:"sortItem"`
}

// ProductViewPatch 商品视图局部更新
type ProductViewPatch struct {
	ListType             *ListType          `json:"listType,omitempty" validate:"omitempty,oneof=NONE COLUMN ROW GRID_ONE GRID_TWO"`
	BadgeType            *BadgeType         `json:"badgeType,omitempty" validate:"omitempty,oneof=ALL LIKE NONE RANKING"`
	OrderType            *OrderType         `json:"orderType,omitempty" validate:"omitempty,oneof=HIGH_DISCOUNT HIGH_PRICE LOW_DISCOUNT LOW_PRICE NONE RECENT RECOMMEND REVIEW"`
	ButtonLabel          *string            `json:"buttonLabel,omitempty"`
	ExtensionButtonLabel *string            `json:"extensionButtonLabel,omitempty"`
	ButtonLinkURL        *string            `json:"buttonLinkUrl,omitempty" validate:"omitempty,url"`
	InitialVisibleCount  *int               `json:"initialVisibleCount,omitempty" validate:"omitempty,min=0"`
	IncrementCount       *int               `json:"incrementCount,omitempty" validate:"omitempty,min=0"`
	MaxLoadMoreClicks    *int               `json:"maxLoadMoreClicks,omitempty" validate:"omitempty,min=0"`
	ExtensionType        *ViewExtensionType `json:"extensionType,omitempty" validate:"omitempty,oneof=NONE LINKING PAGE"`
	SortItem             []SortItem         `json:"sortItem,omitempty" validate:"omitempty,dive"`
}

// Merge 浅合并，SortItem 非 nil 时整体替换
func (v ProductView) Merge(p *ProductViewPatch) ProductView {
	if p == nil {
		return v
	}
	if p.ListType != nil {
		v.ListType = *p.ListType
	}
	if p.BadgeType != nil {
		v.BadgeType = *p.BadgeType
	}
	if p.OrderType != nil {
		v.OrderType = *p.OrderType
	}
	if p.ButtonLabel != nil {
		v.ButtonLabel = *p.ButtonLabel
	}
	if p.ExtensionButtonLabel != nil {
		v.ExtensionButtonLabel = *p.ExtensionButtonLabel
	}
	if p.ButtonLinkURL != nil {
		url := *p.ButtonLinkURL
		v.ButtonLinkURL = &url
	}
	if p.InitialVisibleCount != nil {
		v.InitialVisibleCount = *p.InitialVisibleCount
	}
	if p.IncrementCount != nil {
		v.IncrementCount = *p.IncrementCount
	}
	if p.MaxLoadMoreClicks != nil {
		v.MaxLoadMoreClicks = *p.MaxLoadMoreClicks
	}
	if p.ExtensionType != nil {
		v.ExtensionType = *p.ExtensionType
	}
	if p.SortItem != nil {
		v.SortItem = slices.Clone(p.SortItem)
	}
	return v
}
