// Package operation 定义可序列化的文档变更命令。
// HTTP 与 WebSocket 两条路径共用同一套命令，最终都落到 content.Service 上执行。
package operation

import (
	"errors"
	"fmt"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
	"github.com/ShimJerry/shop-contents-manage/internal/content"
	"github.com/ShimJerry/shop-contents-manage/internal/productview"

	"github.com/go-playground/validator/v10"
)

// Kind 命令类型
type Kind string

const (
	KindUpdateMeta Kind = "update-meta"

	KindAddComponent          Kind = "add-component"
	KindUpdateComponent       Kind = "update-component"
	KindDeleteComponent       Kind = "delete-component"
	KindSwapComponentsByID    Kind = "swap-components-by-id"
	KindSwapComponentsByOrder Kind = "swap-components-by-order"

	KindAddTab          Kind = "add-tab"
	KindUpdateTab       Kind = "update-tab"
	KindDeleteTab       Kind = "delete-tab"
	KindSwapTabsByID    Kind = "swap-tabs-by-id"
	KindSwapTabsByOrder Kind = "swap-tabs-by-order"

	KindUpdateProductView      Kind = "update-product-view"
	KindUpdateProductViewItems Kind = "update-product-view-items"
)

// Operation 一条变更命令
// 不同 Kind 使用不同的字段，其余字段忽略
type Operation struct {
	Kind Kind `json:"kind" validate:"required,oneof=update-meta add-component update-component delete-component swap-components-by-id swap-components-by-order add-tab update-tab delete-tab swap-tabs-by-id swap-tabs-by-order update-product-view update-product-view-items"`

	ComponentID   string               `json:"componentId,omitempty"`
	TabID         string               `json:"tabId,omitempty"`
	ComponentType entity.ComponentType `json:"componentType,omitempty" validate:"omitempty,oneof=blank image product tab text"`

	// swap 的两个目标
	FirstID     string `json:"firstId,omitempty"`
	SecondID    string `json:"secondId,omitempty"`
	FirstOrder  int    `json:"firstOrder,omitempty"`
	SecondOrder int    `json:"secondOrder,omitempty"`

	Meta        *entity.ContentMetaPatch `json:"meta,omitempty"`
	Component   *entity.ComponentPatch   `json:"component,omitempty"`
	Tab         *entity.TabPatch         `json:"tab,omitempty"`
	ProductView *entity.ProductViewPatch `json:"productView,omitempty"`
	Items       []entity.SortItem        `json:"items,omitempty" validate:"omitempty,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 字段格式校验 + 按 Kind 检查必填字段
// 所有错误都包装 ErrInvalidOperation
func (op *Operation) Validate() error {
	if err := validate.Struct(op); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			first := validationErrs[0]
			return fmt.Errorf("%w: field %s failed on %q", domainErrors.ErrInvalidOperation, first.Namespace(), first.Tag())
		}
		return fmt.Errorf("%w: %v", domainErrors.ErrInvalidOperation, err)
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: %s requires %s", domainErrors.ErrInvalidOperation, op.Kind, field)
	}

	switch op.Kind {
	case KindUpdateMeta:
		if op.Meta == nil {
			return missing("meta")
		}
	case KindAddComponent:
		if op.ComponentType == "" {
			return missing("componentType")
		}
	case KindUpdateComponent:
		if op.ComponentID == "" {
			return missing("componentId")
		}
		if op.Component == nil {
			return missing("component")
		}
	case KindDeleteComponent, KindAddTab:
		if op.ComponentID == "" {
			return missing("componentId")
		}
	case KindSwapComponentsByID:
		if op.FirstID == "" || op.SecondID == "" {
			return missing("firstId and secondId")
		}
	case KindSwapComponentsByOrder:
		if op.FirstOrder <= 0 || op.SecondOrder <= 0 {
			return missing("positive firstOrder and secondOrder")
		}
	case KindUpdateTab:
		if op.ComponentID == "" || op.TabID == "" {
			return missing("componentId and tabId")
		}
		if op.Tab == nil {
			return missing("tab")
		}
	case KindDeleteTab:
		if op.ComponentID == "" || op.TabID == "" {
			return missing("componentId and tabId")
		}
	case KindSwapTabsByID:
		if op.ComponentID == "" {
			return missing("componentId")
		}
		if op.FirstID == "" || op.SecondID == "" {
			return missing("firstId and secondId")
		}
	case KindSwapTabsByOrder:
		if op.ComponentID == "" {
			return missing("componentId")
		}
		if op.FirstOrder <= 0 || op.SecondOrder <= 0 {
			return missing("positive firstOrder and secondOrder")
		}
	case KindUpdateProductView:
		if op.ComponentID == "" {
			return missing("componentId")
		}
		if op.ProductView == nil {
			return missing("productView")
		}
	case KindUpdateProductViewItems:
		if op.ComponentID == "" {
			return missing("componentId")
		}
	}
	return nil
}

// Apply 在文档上执行命令
// 目标组件或标签不存在时是无操作，只有组件类型未知才返回错误
func (op *Operation) Apply(svc *content.Service) error {
	components := svc.Components()

	switch op.Kind {
	case KindUpdateMeta:
		svc.UpdateContentMeta(op.Meta)
	case KindAddComponent:
		if _, err := components.AddComponent(op.ComponentType, op.Component); err != nil {
			return err
		}
	case KindUpdateComponent:
		components.UpdateComponent(op.ComponentID, op.Component)
	case KindDeleteComponent:
		components.DeleteComponent(op.ComponentID)
	case KindSwapComponentsByID:
		components.SwapPositionByID(op.FirstID, op.SecondID)
	case KindSwapComponentsByOrder:
		components.SwapPositionByOrder(op.FirstOrder, op.SecondOrder)

	case KindAddTab, KindUpdateTab, KindDeleteTab, KindSwapTabsByID, KindSwapTabsByOrder:
		manager := components.GetComponent(op.ComponentID)
		if manager == nil || manager.Tabs() == nil {
			return nil
		}
		tabs := manager.Tabs()
		switch op.Kind {
		case KindAddTab:
			tabs.AddTab(op.Tab)
		case KindUpdateTab:
			tabs.UpdateTab(op.TabID, op.Tab)
		case KindDeleteTab:
			tabs.DeleteTab(op.TabID)
		case KindSwapTabsByID:
			tabs.SwapPositionByID(op.FirstID, op.SecondID)
		case KindSwapTabsByOrder:
			tabs.SwapPositionByOrder(op.FirstOrder, op.SecondOrder)
		}

	case KindUpdateProductView:
		productview.NewService(components).UpdateProductView(op.ComponentID, op.TabID, op.ProductView)
	case KindUpdateProductViewItems:
		productview.NewService(components).UpdateProductViewItems(op.ComponentID, op.TabID, op.Items)

	default:
		return fmt.Errorf("%w: unknown kind %q", domainErrors.ErrInvalidOperation, op.Kind)
	}
	return nil
}
