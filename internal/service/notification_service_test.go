package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"account-transfer-service/internal/core/domain"
	"account-transfer-service/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))
	acc, _ := domain.NewAccount("A", decimal.NewFromInt(1))

	assert.NoError(t, n.Notify(context.Background(), acc, "Money credited to A"))
	assert.Contains(t, buf.String(), `"account_id":"A"`)
	assert.Contains(t, buf.String(), `"notification":"Money credited to A"`)
}

func TestMultiNotifier_CallsAllAndJoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockNotifier(ctrl)
	second := mocks.NewMockNotifier(ctrl)
	third := mocks.NewMockNotifier(ctrl)
	acc, _ := domain.NewAccount("A", decimal.Zero)

	errFirst := errors.New("smtp down")
	errThird := errors.New("webhook down")
	first.EXPECT().Notify(gomock.Any(), acc, "msg").Return(errFirst)
	second.EXPECT().Notify(gomock.Any(), acc, "msg").Return(nil)
	third.EXPECT().Notify(gomock.Any(), acc, "msg").Return(errThird)

	m := NewMultiNotifier(first, nil, second, third)
	assert.Equal(t, 3, m.Len())

	err := m.Notify(context.Background(), acc, "msg")
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errThird)
}

func TestMultiNotifier_Empty(t *testing.T) {
	m := NewMultiNotifier()
	acc, _ := domain.NewAccount("A", decimal.Zero)
	assert.NoError(t, m.Notify(context.Background(), acc, "msg"))
}

func TestMultiNotifier_CloseClosesWebhooks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	webhook := NewWebhookNotifier("https://hooks.example.com/notify", "", &mockHTTPClient{
		doFunc: func(*http.Request) (*http.Response, error) { return okResponse(http.StatusOK), nil },
	}, []time.Duration{}, newTestLogger())
	multi := NewMultiNotifier(NewLogNotifier(zerolog.Nop()), mocks.NewMockNotifier(ctrl), webhook)

	assert.NoError(t, multi.Close(context.Background()))

	acc, _ := domain.NewAccount("A", decimal.Zero)
	assert.ErrorIs(t, webhook.Notify(context.Background(), acc, "late"), ErrWebhookNotifierClosed)
}
