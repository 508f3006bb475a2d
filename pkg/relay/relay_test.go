package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpbridge/rpbridge-go/pkg/listener"
	"github.com/rpbridge/rpbridge-go/pkg/native"
	"github.com/rpbridge/rpbridge-go/pkg/native/fake"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

type published struct {
	subject string
	payload any
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject, payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestSubject(t *testing.T) {
	assert.Equal(t, "rpbridge.round-trip.before-round-trip",
		Subject(DefaultPrefix, listener.KindRoundTrip, native.EventBeforeRoundTrip))
	assert.Equal(t, "tools.ea.import.after-import",
		Subject("tools.ea", listener.KindImport, native.EventAfterImport))
}

func TestHandlerPublishesEveryEvent(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	h := NewHandler(pub, HandlerConfig{Source: "app-1"})

	require.NoError(t, h.OnCodeGenerationCompleted(ctx))
	require.NoError(t, h.BeforeRoundTrip(ctx, []string{"g1"}))
	require.NoError(t, h.AfterRoundTrip(ctx, []string{"g1"}))
	require.NoError(t, h.AfterImport(ctx, []string{"g2", "g3"}))

	wantSubjects := []string{
		"rpbridge.code-generator.code-generation-completed",
		"rpbridge.round-trip.before-round-trip",
		"rpbridge.round-trip.after-round-trip",
		"rpbridge.import.after-import",
	}
	require.Len(t, pub.msgs, len(wantSubjects))
	for i, want := range wantSubjects {
		assert.Equal(t, want, pub.msgs[i].subject)
	}

	last, ok := pub.msgs[3].payload.(Message)
	require.True(t, ok)
	assert.Equal(t, "import", last.Kind)
	assert.Equal(t, "after-import", last.Event)
	assert.Equal(t, "app-1", last.Source)
	assert.Equal(t, []string{"g2", "g3"}, last.Elements)
	assert.False(t, last.Time.IsZero())
}

func TestHandlerReportsPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats: connection closed")}
	h := NewHandler(pub, HandlerConfig{Prefix: "x"})

	err := h.AfterImport(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x.import.after-import")
}

func TestNoopPublisher(t *testing.T) {
	h := NewHandler(nil, HandlerConfig{})
	assert.NoError(t, h.AfterImport(context.Background(), []string{"g1"}))
	assert.NoError(t, NoopPublisher{}.Close())
}

func TestNATSRelayEndToEnd(t *testing.T) {
	ctx := context.Background()
	url := startTestNATS(t)

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	msgs := make(chan *nats.Msg, 8)
	sub, err := nc.ChanSubscribe(DefaultPrefix+".>", msgs)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, nc.Flush())

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	tool := fake.NewTool()
	app := fake.NewApplication("app-1")
	l := listener.NewImportListener(tool, NewHandler(pub, HandlerConfig{Source: app.ID()}))
	defer l.Close()
	require.True(t, l.Connect(ctx, app))

	require.Equal(t, 1, tool.Fire(ctx, app, native.Notification{
		Event:    native.EventAfterImport,
		Elements: []string{"g1"},
	}))
	require.NoError(t, pub.Flush(ctx))

	select {
	case msg := <-msgs:
		assert.Equal(t, "rpbridge.import.after-import", msg.Subject)
		var got Message
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, "after-import", got.Event)
		assert.Equal(t, "app-1", got.Source)
		assert.Equal(t, []string{"g1"}, got.Elements)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed message")
	}
}

func TestNATSPublisherConnectError(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", nats.MaxReconnects(0), nats.Timeout(100*time.Millisecond))
	assert.Error(t, err)
}
