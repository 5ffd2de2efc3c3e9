package productview

import (
	"testing"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	"github.com/ShimJerry/shop-contents-manage/internal/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// setup 一个商品组件 + 一个带标签的 tab 组件
func setup(t *testing.T) (*content.Service, *Service) {
	t.Helper()

	doc := content.NewLocalService(content.NewDefaultFactory().NewContent("doc-1"), nil)
	components := doc.Components()

	_, err := components.AddComponent(entity.ComponentTypeProduct, &entity.ComponentPatch{ID: strPtr("product-1")})
	require.NoError(t, err)
	_, err = components.AddComponent(entity.ComponentTypeTab, &entity.ComponentPatch{ID: strPtr("tab-comp")})
	require.NoError(t, err)
	components.GetComponent("tab-comp").Tabs().AddTab(&entity.TabPatch{ID: strPtr("tab-1")})
	_, err = components.AddComponent(entity.ComponentTypeImage, &entity.ComponentPatch{ID: strPtr("image-1")})
	require.NoError(t, err)

	return doc, NewService(components)
}

func TestGetProductView(t *testing.T) {
	_, svc := setup(t)

	view, ok := svc.GetProductView("product-1", "")
	assert.True(t, ok)
	assert.Equal(t, entity.ListTypeGridOne, view.ListType)

	view, ok = svc.GetProductView("tab-comp", "tab-1")
	assert.True(t, ok)
	assert.Equal(t, 10, view.InitialVisibleCount)
}

func TestGetProductView_NotFound(t *testing.T) {
	_, svc := setup(t)

	tests := []struct {
		name        string
		componentID string
		tabID       string
	}{
		{"组件不存在", "missing", ""},
		{"标签不存在", "tab-comp", "missing"},
		{"tab 组件未指定标签", "tab-comp", ""},
		{"商品组件指定标签", "product-1", "tab-1"},
		{"非商品变体", "image-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := svc.GetProductView(tt.componentID, tt.tabID)
			assert.False(t, ok)
		})
	}
}

func TestUpdateProductView_Product(t *testing.T) {
	doc, svc := setup(t)
	before, _ := svc.GetProductView("product-1", "")

	listType := entity.ListTypeGridTwo
	count := 20
	ok := svc.UpdateProductView("product-1", "", &entity.ProductViewPatch{ListType: &listType, InitialVisibleCount: &count})
	require.True(t, ok)

	after, _ := svc.GetProductView("product-1", "")
	assert.Equal(t, entity.ListTypeGridTwo, after.ListType)
	assert.Equal(t, 20, after.InitialVisibleCount)
	// 未提供的字段保持不变
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.ButtonLabel, after.ButtonLabel)

	stored := doc.GetContent().Components[0]
	assert.Equal(t, after, stored.Product.ProductView)
}

func TestUpdateProductView_Tab(t *testing.T) {
	doc, svc := setup(t)

	count := 0
	doc.Subscribe(func(entity.Content) { count++ })

	label := "more"
	ok := svc.UpdateProductView("tab-comp", "tab-1", &entity.ProductViewPatch{ButtonLabel: &label})
	require.True(t, ok)

	view, _ := svc.GetProductView("tab-comp", "tab-1")
	assert.Equal(t, "more", view.ButtonLabel)
	assert.Equal(t, 1, count)
}

func TestUpdateProductView_MissingTargetIsNoop(t *testing.T) {
	doc, svc := setup(t)
	before := doc.GetContent()

	label := "x"
	assert.False(t, svc.UpdateProductView("image-1", "", &entity.ProductViewPatch{ButtonLabel: &label}))
	assert.False(t, svc.UpdateProductView("tab-comp", "missing", &entity.ProductViewPatch{ButtonLabel: &label}))
	assert.Equal(t, before, doc.GetContent())
}

func TestUpdateProductViewItems(t *testing.T) {
	_, svc := setup(t)

	items := []entity.SortItem{{ID: "sku-2"}, {ID: "sku-1"}}
	require.True(t, svc.UpdateProductViewItems("tab-comp", "tab-1", items))

	view, _ := svc.GetProductView("tab-comp", "tab-1")
	assert.Equal(t, items, view.SortItem)

	// nil 表示清空
	require.True(t, svc.UpdateProductViewItems("tab-comp", "tab-1", nil))
	view, _ = svc.GetProductView("tab-comp", "tab-1")
	assert.Empty(t, view.SortItem)
	assert.NotNil(t, view.SortItem)
}
