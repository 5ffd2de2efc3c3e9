package content

import (
	"testing"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== Service 单元测试 ==========

func TestService_UpdateContentMeta(t *testing.T) {
	svc := NewLocalService(NewDefaultFactory().NewContent("doc-1"), nil)

	var received []entity.Content
	svc.Subscribe(func(c entity.Content) { received = append(received, c) })

	no := entity.No
	svc.UpdateContentMeta(&entity.ContentMetaPatch{Title: strPtr("봄 세일"), Yn: &no})

	doc := svc.GetContent()
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "봄 세일", doc.Title)
	assert.Equal(t, entity.No, doc.Yn)
	require.Len(t, received, 1)
	assert.Equal(t, doc, received[0])
}

func TestService_ComponentChangesNotifyDocumentOnce(t *testing.T) {
	svc := NewLocalService(NewDefaultFactory().NewContent("doc-1"), nil)

	count := 0
	svc.Subscribe(func(entity.Content) { count++ })

	_, err := svc.Components().AddComponent(entity.ComponentTypeText, &entity.ComponentPatch{ID: strPtr("c1")})
	require.NoError(t, err)
	svc.Components().UpdateComponent("c1", &entity.ComponentPatch{Name: strPtr("title")})
	svc.Components().DeleteComponent("c1")

	assert.Equal(t, 3, count)
	assert.Empty(t, svc.GetContent().Components)
}

func TestService_KeepsMetaWhenComponentsChange(t *testing.T) {
	initial := NewDefaultFactory().NewContent("doc-1")
	initial.Title = "keep me"
	svc := NewLocalService(initial, nil)

	_, err := svc.Components().AddComponent(entity.ComponentTypeBlank, nil)
	require.NoError(t, err)

	doc := svc.GetContent()
	assert.Equal(t, "keep me", doc.Title)
	assert.Len(t, doc.Components, 1)
}

func TestService_BoundToExternalState(t *testing.T) {
	// 测试场景：状态由调用方持有，Service 只通过 getter / setter 访问
	state := entity.Content{ID: "ext", Components: []entity.Component{
		{ID: "loaded", Type: entity.ComponentTypeText, Order: 1, Text: &entity.Body{ID: "body"}},
	}}
	svc := NewService(
		func() entity.Content { return state },
		func(transform func(entity.Content) entity.Content) { state = transform(state) },
		nil,
	)

	svc.Components().GetComponent("loaded").Update(&entity.ComponentPatch{Text: &entity.BodyPatch{ID: strPtr("new-body")}})

	assert.Equal(t, "new-body", state.Components[0].Text.ID)
}
