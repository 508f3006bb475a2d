package listener

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpbridge/rpbridge-go/pkg/log"
	"github.com/rpbridge/rpbridge-go/pkg/native"
	"github.com/rpbridge/rpbridge-go/pkg/native/fake"
	"github.com/rpbridge/rpbridge-go/pkg/subscription"
)

type importRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *importRecorder) AfterImport(_ context.Context, elements []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, elements)
	return nil
}

func (r *importRecorder) got() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func TestImportListenerLifecycle(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool(fake.WithFirstHandle(42))
	app := fake.NewApplication("app-1")
	h := &importRecorder{}

	l := NewImportListener(tool, h)
	defer l.Close()

	assert.Equal(t, KindImport, l.Kind())
	assert.Equal(t, []native.EventID{native.EventAfterImport}, l.Events())
	assert.False(t, l.IsConnected())

	require.True(t, l.Connect(ctx, app))
	assert.True(t, l.IsConnected())
	assert.Equal(t, native.Handle(42), l.Subscription().Handle())
	assert.Equal(t, []native.Handle{42}, tool.Active())

	n := tool.Fire(ctx, app, native.Notification{Event: native.EventAfterImport, Elements: []string{"g1", "g2"}})
	assert.Equal(t, 1, n)
	assert.Equal(t, [][]string{{"g1", "g2"}}, h.got())

	require.True(t, l.Disconnect(ctx))
	assert.Empty(t, tool.Active())
	assert.Equal(t, []native.Handle{42}, tool.UnadviseCalls())

	assert.Equal(t, 0, tool.Fire(ctx, app, native.Notification{Event: native.EventAfterImport}))
	assert.Len(t, h.got(), 1)
}

func TestConnectTwiceReportsFalse(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")

	l := NewCodeGeneratorListener(tool, CodeGeneratorHandlerFuncs{})
	defer l.Close()

	require.True(t, l.Connect(ctx, app))
	assert.False(t, l.Connect(ctx, app))
	assert.ErrorIs(t, l.Subscription().Connect(ctx, app), subscription.ErrAlreadyConnected)
	assert.Len(t, tool.AdviseCalls(), 1)
}

func TestConnectUnavailableReportsFalse(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")
	app.SetAvailable(false)

	l := NewRoundTripListener(tool, RoundTripHandlerFuncs{})
	defer l.Close()

	assert.False(t, l.Connect(ctx, app))
	assert.False(t, l.IsConnected())
	assert.ErrorIs(t, l.Subscription().Connect(ctx, app), subscription.ErrConnectionFailed)
	assert.False(t, l.Disconnect(ctx))
	assert.Empty(t, tool.UnadviseCalls())
}

func TestDisconnectFailureStillDropsHandle(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")

	l := NewImportListener(tool, ImportHandlerFuncs{})
	defer l.Close()

	require.True(t, l.Connect(ctx, app))
	tool.FailNextUnadvise(errors.New("RPC_E_DISCONNECTED"))
	assert.False(t, l.Disconnect(ctx))
	assert.False(t, l.IsConnected())
	assert.False(t, l.Disconnect(ctx))
	assert.Len(t, tool.UnadviseCalls(), 1)
}

func TestRoundTripDispatch(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")

	var order []string
	var mu sync.Mutex
	record := func(name string) func(context.Context, []string) error {
		return func(_ context.Context, elements []string) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name+":"+elements[0])
			return nil
		}
	}
	l := NewRoundTripListener(tool, RoundTripHandlerFuncs{
		BeforeRoundTripFunc: record("before"),
		AfterRoundTripFunc:  record("after"),
	})
	defer l.Close()
	require.True(t, l.Connect(ctx, app))

	tool.Fire(ctx, app, native.Notification{Event: native.EventBeforeRoundTrip, Elements: []string{"g1"}})
	tool.Fire(ctx, app, native.Notification{Event: native.EventAfterRoundTrip, Elements: []string{"g1"}})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"before:g1", "after:g1"}, order)
}

func TestUnexpectedEventIsRejected(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")

	var rec log.Recorder
	called := false
	l := NewCodeGeneratorListener(tool, CodeGeneratorHandlerFuncs{
		OnCodeGenerationCompletedFunc: func(context.Context) error { called = true; return nil },
	}, WithTrace(&rec))
	defer l.Close()
	require.True(t, l.Connect(ctx, app))

	assert.Equal(t, 0, tool.Fire(ctx, app, native.Notification{Event: native.EventAfterImport}))
	assert.False(t, called)

	errCat := log.CategoryError
	errs := rec.Select(log.Filter{Category: &errCat})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error.Message, ErrUnexpectedEvent.Error())
	assert.Equal(t, "code-generator", errs[0].Kind)
}

func TestCloseReleases(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")

	l := NewImportListener(tool, ImportHandlerFuncs{})
	require.True(t, l.Connect(ctx, app))
	require.NoError(t, l.Close())
	assert.Empty(t, tool.Active())
	assert.False(t, l.Connect(ctx, app))
	assert.ErrorIs(t, l.Subscription().Connect(ctx, app), subscription.ErrClosed)
}

func TestDroppedListenerIsReleased(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")

	func() {
		l := NewImportListener(tool, ImportHandlerFuncs{})
		require.True(t, l.Connect(ctx, app))
	}()
	require.Len(t, tool.Active(), 1)

	require.Eventually(t, func() bool {
		runtime.GC()
		return len(tool.Active()) == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, tool.UnadviseCalls(), 1)
}

func TestIndependentListeners(t *testing.T) {
	ctx := context.Background()
	tool := fake.NewTool()
	app := fake.NewApplication("app-1")

	a := NewImportListener(tool, ImportHandlerFuncs{})
	b := NewImportListener(tool, ImportHandlerFuncs{})
	defer a.Close()
	defer b.Close()

	require.True(t, a.Connect(ctx, app))
	require.True(t, b.Connect(ctx, app))
	assert.NotEqual(t, a.Subscription().Handle(), b.Subscription().Handle())
	assert.NotEqual(t, a.Subscription().ID(), b.Subscription().ID())

	require.True(t, a.Disconnect(ctx))
	assert.True(t, b.IsConnected())
	assert.Equal(t, 1, tool.Fire(ctx, app, native.Notification{Event: native.EventAfterImport}))
}

func TestNewFactory(t *testing.T) {
	tool := fake.NewTool()

	for _, tt := range []struct {
		kind    Kind
		handler any
	}{
		{KindCodeGenerator, CodeGeneratorHandlerFuncs{}},
		{KindRoundTrip, RoundTripHandlerFuncs{}},
		{KindImport, &importRecorder{}},
	} {
		l, err := New(tt.kind, tool, tt.handler)
		require.NoError(t, err, tt.kind.String())
		assert.Equal(t, tt.kind, l.Kind())
		assert.Equal(t, tt.kind.String(), l.Subscription().Kind())
		l.Close()
	}

	_, err := New(KindImport, tool, CodeGeneratorHandlerFuncs{})
	assert.ErrorIs(t, err, ErrHandlerMismatch)
	assert.ErrorContains(t, err, "listener.CodeGeneratorHandlerFuncs does not implement ImportHandler")

	_, err = New(KindUnknown, tool, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind(" Round_Trip ")
	require.NoError(t, err)
	assert.Equal(t, KindRoundTrip, got)

	_, err = ParseKind("export")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, "unknown", KindUnknown.String())
}
