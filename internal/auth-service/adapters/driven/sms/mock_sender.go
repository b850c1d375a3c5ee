package sms

import (
	"context"

	"github.com/finere-dem/MaliTrans/internal/auth-service/core/ports"
	"github.com/finere-dem/MaliTrans/internal/mylogger"
)

// MockSender logs outgoing messages instead of delivering them. It stands in
// for a real SMS gateway during development.
type MockSender struct {
	mylog mylogger.Logger
}

func NewMockSender(log mylogger.Logger) ports.ISmsSender {
	return &MockSender{mylog: log}
}

func (ms *MockSender) Send(_ context.Context, phone, message string) error {
	ms.mylog.Action("sms_send").
		WithGroup("details").
		With("phone", phone).
		With("message", message).
		Info("sms delivered (mock)")
	return nil
}
