package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MockCaregiverNotifier records alerts for tests.
type MockCaregiverNotifier struct {
	mu     sync.Mutex
	Err    error
	Alerts []Alert
}

func (m *MockCaregiverNotifier) SendMissedDoseAlert(_ context.Context, alert Alert) (Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Delivery{}, m.Err
	}
	m.Alerts = append(m.Alerts, alert)
	return Delivery{Success: true, MessageID: "mock"}, nil
}

func (m *MockCaregiverNotifier) Sent() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Alert(nil), m.Alerts...)
}

// LogLocalNotifier logs local notifications. The mobile client receives
// them through its own push channel; the server just records intent.
type LogLocalNotifier struct {
	Logger *zap.Logger
}

func (n *LogLocalNotifier) SendNow(title, body string, data map[string]string) {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("local notification",
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data))
}

// MockLocalNotifier captures local notifications for tests.
type MockLocalNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (n *MockLocalNotifier) SendNow(title, body string, _ map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, title+": "+body)
}

func (n *MockLocalNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}
