package entity

import (
	"encoding/json"
	"slices"
	"time"
)

// CommonYn Y/N 标志
type CommonYn string

const (
	Yes CommonYn = "Y"
	No  CommonYn = "N"
)

// DisplayPeriod 展示期间
type DisplayPeriod struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ComponentType 组件类型（判别字段）
type ComponentType string

const (
	ComponentTypeBlank   ComponentType = "blank"
	ComponentTypeImage   ComponentType = "image"
	ComponentTypeProduct ComponentType = "product"
	ComponentTypeTab     ComponentType = "tab"
	ComponentTypeText    ComponentType = "text"
)

// ComponentTypes 全部合法类型，顺序固定
var ComponentTypes = []ComponentType{
	ComponentTypeBlank,
	ComponentTypeImage,
	ComponentTypeProduct,
	ComponentTypeTab,
	ComponentTypeText,
}

// Valid 是否为已知类型
func (t ComponentType) Valid() bool {
	return slices.Contains(ComponentTypes, t)
}

// TabMovingType 标签页切换方式
type TabMovingType string

const (
	TabMovingAnchor TabMovingType = "ANCHOR"
	TabMovingPaging TabMovingType = "PAGING"
)

// Body blank / image / text 组件的变体内容
type Body struct {
	ID string `json:"id"`
}

// Product 商品组件的变体内容
type Product struct {
	ID          string      `json:"id"`
	ProductView ProductView `json:"productView"`
}

// TabEntry 标签页组件内的一个标签
type TabEntry struct {
	ID          string      `json:"id"`
	TabName     string      `json:"tabName"`
	Order       int         `json:"order"`
	DisplayYn   CommonYn    `json:"displayYn"`
	ProductView ProductView `json:"productView"`
}

func (t TabEntry) EntryID() string { return t.ID }
func (t TabEntry) EntryOrder() int { return t.Order }

// WithOrder 返回修改了 order 的副本
func (t TabEntry) WithOrder(order int) TabEntry {
	t.Order = order
	return t
}

// Component 内容文档中的一个组件
// Type 是判别字段：只有与 Type 对应的变体字段有意义，其余保持为空
type Component struct {
	ID     string        `json:"id"`
	Type   ComponentType `json:"type"`
	Name   string        `json:"componentName"`
	Order  int           `json:"order"`
	Period DisplayPeriod `json:"componentPeriod"`

	Blank   *Body    `json:"blank,omitempty"`
	Image   *Body    `json:"image,omitempty"`
	Text    *Body    `json:"text,omitempty"`
	Product *Product `json:"product,omitempty"`

	// 仅 tab 类型
	StickyYn  CommonYn      `json:"stickyYn,omitempty"`
	TabMoving TabMovingType `json:"tabMoving,omitempty"`
	Tab       []TabEntry    `json:"tab,omitempty"`
}

func (c Component) EntryID() string { return c.ID }
func (c Component) EntryOrder() int { return c.Order }

// WithOrder 返回修改了 order 的副本
func (c Component) WithOrder(order int) Component {
	c.Order = order
	return c
}

// MarshalJSON tab 组件即使没有标签也输出 "tab": []
func (c Component) MarshalJSON() ([]byte, error) {
	type alias Component
	out := struct {
		alias
		Tab *[]TabEntry `json:"tab,omitempty"`
	}{alias: alias(c)}

	if c.Type == ComponentTypeTab {
		tabs := c.Tab
		if tabs == nil {
			tabs = []TabEntry{}
		}
		out.Tab = &tabs
	}
	return json.Marshal(out)
}

// ========== Patch 结构 ==========
// 指针字段为 nil 表示"未提供"。
// 没有 Type / Order 字段：通用更新路径无法修改它们。

// BodyPatch blank / image / text 变体的局部更新
type BodyPatch struct {
	ID *string `json:"id,omitempty"`
}

// ProductPatch 商品变体的局部更新，ProductView 整体替换
type ProductPatch struct {
	ID          *string      `json:"id,omitempty"`
	ProductView *ProductView `json:"productView,omitempty"`
}

// ComponentPatch 组件局部更新
// ID 只在创建时生效（作为 overrides），更新时忽略
type ComponentPatch struct {
	ID     *string        `json:"id,omitempty"`
	Name   *string        `json:"componentName,omitempty"`
	Period *DisplayPeriod `json:"componentPeriod,omitempty"`

	Blank   *BodyPatch    `json:"blank,omitempty"`
	Image   *BodyPatch    `json:"image,omitempty"`
	Text    *BodyPatch    `json:"text,omitempty"`
	Product *ProductPatch `json:"product,omitempty"`

	StickyYn  *CommonYn      `json:"stickyYn,omitempty" validate:"omitempty,oneof=Y N"`
	TabMoving *TabMovingType `json:"tabMoving,omitempty" validate:"omitempty,oneof=ANCHOR PAGING"`
	// 非 nil 时整体替换标签列表
	Tab []TabEntry `json:"tab,omitempty"`
}

// TabPatch 标签局部更新，ID 只在创建时生效
type TabPatch struct {
	ID          *string      `json:"id,omitempty"`
	TabName     *string      `json:"tabName,omitempty"`
	DisplayYn   *CommonYn    `json:"displayYn,omitempty" validate:"omitempty,oneof=Y N"`
	ProductView *ProductView `json:"productView,omitempty"`
}

// Merge 按判别字段合并 patch
// 顶层标量直接替换；对应变体对象逐字段浅合并；tab 列表整体替换。
// id / type / order 永远不会被修改。
func (c Component) Merge(p *ComponentPatch) Component {
	if p == nil {
		return c
	}

	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Period != nil {
		c.Period = *p.Period
	}

	switch c.Type {
	case ComponentTypeBlank:
		c.Blank = mergeBody(c.Blank, p.Blank)
	case ComponentTypeImage:
		c.Image = mergeBody(c.Image, p.Image)
	case ComponentTypeText:
		c.Text = mergeBody(c.Text, p.Text)
	case ComponentTypeProduct:
		if p.Product != nil {
			var product Product
			if c.Product != nil {
				product = *c.Product
			}
			if p.Product.ID != nil {
				product.ID = *p.Product.ID
			}
			if p.Product.ProductView != nil {
				product.ProductView = *p.Product.ProductView
			}
			c.Product = &product
		}
	case ComponentTypeTab:
		if p.StickyYn != nil {
			c.StickyYn = *p.StickyYn
		}
		if p.TabMoving != nil {
			c.TabMoving = *p.TabMoving
		}
		if p.Tab != nil {
			c.Tab = slices.Clone(p.Tab)
		}
	}
	return c
}

func mergeBody(current *Body, p *BodyPatch) *Body {
	if p == nil {
		return current
	}
	var body Body
	if current != nil {
		body = *current
	}
	if p.ID != nil {
		body.ID = *p.ID
	}
	return &body
}

// Merge 合并标签 patch，忽略 id（order 不在 patch 中）
func (t TabEntry) Merge(p *TabPatch) TabEntry {
	if p == nil {
		return t
	}
	if p.TabName != nil {
		t.TabName = *p.TabName
	}
	if p.DisplayYn != nil {
		t.DisplayYn = *p.DisplayYn
	}
	if p.ProductView != nil {
		t.ProductView = *p.ProductView
	}
	return t
}
