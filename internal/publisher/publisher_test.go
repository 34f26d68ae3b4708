package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/infocompass/internal/pipeline"
)

// MockJetStreamClient mocks the nats client operations we need
type MockJetStreamClient struct {
	PublishedSubject string
	PublishedData    any
	PublishError     error
}

func (m *MockJetStreamClient) Publish(_ context.Context, subject string, data any) error {
	m.PublishedSubject = subject
	m.PublishedData = data
	return m.PublishError
}

func TestNATSPublisher_PublishDigestReady(t *testing.T) {
	mock := &MockJetStreamClient{}
	pub := NewNATSPublisher(mock)

	event := pipeline.DigestEvent{
		RunID:        uuid.New(),
		Channel:      "@alpha",
		MessagesFile: "data/alpha_20240305_140709.json",
		SummaryFile:  "data/alpha_summary_20240305_140709.md",
		MessageCount: 3,
		CreatedAt:    time.Now(),
	}

	err := pub.PublishDigestReady(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.PublishedSubject != "digest.ready" {
		t.Errorf("subject = %s, want digest.ready", mock.PublishedSubject)
	}

	payload, err := json.Marshal(mock.PublishedData)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded["channel"] != "@alpha" {
		t.Errorf("channel = %v, want @alpha", decoded["channel"])
	}
	if decoded["run_id"] != event.RunID.String() {
		t.Errorf("run_id = %v, want %s", decoded["run_id"], event.RunID)
	}
}

func TestNATSPublisher_PublishError(t *testing.T) {
	mock := &MockJetStreamClient{PublishError: errors.New("no responders")}
	pub := NewNATSPublisher(mock)

	err := pub.PublishDigestReady(context.Background(), pipeline.DigestEvent{Channel: "@alpha"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, mock.PublishError) {
		t.Errorf("error %v does not wrap publish error", err)
	}
}
