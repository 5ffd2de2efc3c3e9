// Package productview 读写商品组件或标签上的商品视图配置
package productview

import (
	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	"github.com/ShimJerry/shop-contents-manage/internal/content"
)

// Service 商品视图服务
// 不持有状态，所有写入都经过组件集合的 UpdateComponent / UpdateTab
type Service struct {
	components *content.ComponentCollection
}

// NewService 构造函数
func NewService(components *content.ComponentCollection) *Service {
	return &Service{components: components}
}

// GetProductView 查询商品视图
// tabID 为空时 componentID 必须是商品组件；否则必须是 tab 组件且包含该标签
func (s *Service) GetProductView(componentID, tabID string) (entity.ProductView, bool) {
	component, ok := s.components.FindByID(componentID)
	if !ok {
		return entity.ProductView{}, false
	}

	if tabID == "" {
		if component.Type != entity.ComponentTypeProduct || component.Product == nil {
			return entity.ProductView{}, false
		}
		return component.Product.ProductView, true
	}

	if component.Type != entity.ComponentTypeTab {
		return entity.ProductView{}, false
	}
	tab, ok := content.FindByID(component.Tab, tabID)
	if !ok {
		return entity.ProductView{}, false
	}
	return tab.ProductView, true
}

// UpdateProductView 浅合并商品视图，目标不存在时返回 false 且不做任何修改
func (s *Service) UpdateProductView(componentID, tabID string, patch *entity.ProductViewPatch) bool {
	current, ok := s.GetProductView(componentID, tabID)
	if !ok {
		return false
	}
	s.write(componentID, tabID, current.Merge(patch))
	return true
}

// UpdateProductViewItems 整体替换商品列表
func (s *Service) UpdateProductViewItems(componentID, tabID string, items []entity.SortItem) bool {
	if items == nil {
		items = []entity.SortItem{}
	}
	return s.UpdateProductView(componentID, tabID, &entity.ProductViewPatch{SortItem: items})
}

func (s *Service) write(componentID, tabID string, view entity.ProductView) {
	if tabID == "" {
		s.components.UpdateComponent(componentID, &entity.ComponentPatch{
			Product: &entity.ProductPatch{ProductView: &view},
		})
		return
	}

	manager := s.components.GetComponent(componentID)
	if manager == nil || manager.Tabs() == nil {
		return
	}
	manager.Tabs().UpdateTab(tabID, &entity.TabPatch{ProductView: &view})
}
