package controller

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

const testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

// ========== Mock ==========

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Upsert(user *entity.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepository) GetByID(userID string) (*entity.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepository) Delete(userID string) error {
	return m.Called(userID).Error(0)
}

type mockContentCleaner struct {
	mock.Mock
}

func (m *mockContentCleaner) DeleteContentsByCreator(creatorID string) (int, error) {
	args := m.Called(creatorID)
	return args.Int(0), args.Error(1)
}

// ========== 辅助函数 ==========

func setupWebhookRouter(t *testing.T, users *mockUserRepository, cleaner *mockContentCleaner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wc, err := NewWebhookController(users, cleaner, testWebhookSecret)
	require.NoError(t, err)
	wc.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	router := gin.New()
	router.POST("/webhook/clerk", wc.HandleClerkWebhook)
	return router
}

// signedRequest 按 Svix 规则签名
func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	wh, err := svix.NewWebhook(testWebhookSecret)
	require.NoError(t, err)

	msgID := "msg_test"
	ts := time.Now()
	signature, err := wh.Sign(msgID, ts, []byte(body))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/clerk", strings.NewReader(body))
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", strconv.FormatInt(ts.Unix(), 10))
	req.Header.Set("svix-signature", signature)
	return req
}

// ========== 测试用例 ==========

func TestWebhookController_UserCreated(t *testing.T) {
	users := new(mockUserRepository)
	cleaner := new(mockContentCleaner)
	users.On("Upsert", mock.MatchedBy(func(u *entity.User) bool {
		return u.ID == "user_1" && u.Email == "primary@example.com" && u.Name == "Jerry Shim"
	})).Return(nil).Once()

	router := setupWebhookRouter(t, users, cleaner)

	body := `{"type":"user.created","data":{"id":"user_1","first_name":"Jerry","last_name":"Shim",
		"primary_email_address_id":"idn_2",
		"email_addresses":[{"id":"idn_1","email_address":"old@example.com"},{"id":"idn_2","email_address":"primary@example.com"}]}}`

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, body))

	assert.Equal(t, http.StatusOK, w.Code)
	users.AssertExpectations(t)
	cleaner.AssertNotCalled(t, "DeleteContentsByCreator", mock.Anything)
}

func TestWebhookController_UserDeleted_RemovesContents(t *testing.T) {
	users := new(mockUserRepository)
	cleaner := new(mockContentCleaner)
	cleaner.On("DeleteContentsByCreator", "user_1").Return(2, nil).Once()
	users.On("Delete", "user_1").Return(nil).Once()

	router := setupWebhookRouter(t, users, cleaner)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, `{"type":"user.deleted","data":{"id":"user_1","deleted":true}}`))

	assert.Equal(t, http.StatusOK, w.Code)
	cleaner.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestWebhookController_UserDeleted_FailureIsRetried(t *testing.T) {
	// 测试场景：清理内容失败时返回 500，用户保留，等待 Svix 重投
	users := new(mockUserRepository)
	cleaner := new(mockContentCleaner)
	cleaner.On("DeleteContentsByCreator", "user_1").Return(0, errors.New("db down")).Once()

	router := setupWebhookRouter(t, users, cleaner)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, `{"type":"user.deleted","data":{"id":"user_1"}}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	users.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestWebhookController_RejectsBadSignature(t *testing.T) {
	users := new(mockUserRepository)
	cleaner := new(mockContentCleaner)
	router := setupWebhookRouter(t, users, cleaner)

	req := signedRequest(t, `{"type":"user.deleted","data":{"id":"user_1"}}`)
	// 篡改请求体
	tampered := httptest.NewRequest(http.MethodPost, "/webhook/clerk",
		strings.NewReader(`{"type":"user.deleted","data":{"id":"user_2"}}`))
	tampered.Header = req.Header

	w := httptest.NewRecorder()
	router.ServeHTTP(w, tampered)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleaner.AssertNotCalled(t, "DeleteContentsByCreator", mock.Anything)
	users.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestWebhookController_IgnoresOtherEvents(t *testing.T) {
	users := new(mockUserRepository)
	cleaner := new(mockContentCleaner)
	router := setupWebhookRouter(t, users, cleaner)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, `{"type":"session.created","data":{"id":"sess_1","user_id":"user_1"}}`))

	assert.Equal(t, http.StatusOK, w.Code)
	users.AssertNotCalled(t, "Upsert", mock.Anything)
}
