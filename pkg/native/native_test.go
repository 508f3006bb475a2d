package native

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	assert.True(t, Handle(0).IsZero())
	assert.False(t, Handle(42).IsZero())
	assert.Equal(t, "0x2a", Handle(42).String())
	assert.Equal(t, "0x0", Handle(0).String())
}

func TestEventIDString(t *testing.T) {
	tests := []struct {
		id   EventID
		want string
	}{
		{EventCodeGenerationCompleted, "code-generation-completed"},
		{EventBeforeRoundTrip, "before-round-trip"},
		{EventAfterRoundTrip, "after-round-trip"},
		{EventAfterImport, "after-import"},
		{EventUnknown, "unknown"},
		{EventID(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.id.String())
	}
}

func TestParseEventID(t *testing.T) {
	for _, id := range Events() {
		got, err := ParseEventID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}

	got, err := ParseEventID(" AFTER_IMPORT ")
	require.NoError(t, err)
	assert.Equal(t, EventAfterImport, got)

	_, err = ParseEventID("project-opened")
	assert.Error(t, err)
}

func TestFuncs(t *testing.T) {
	var released Handle
	nat := Funcs[string]{
		AdviseFunc: func(ctx context.Context, source string, sink Sink) (Handle, error) {
			if source == "" {
				return 0, nil
			}
			return 7, nil
		},
		UnadviseFunc: func(ctx context.Context, h Handle) error {
			released = h
			return nil
		},
	}

	h, err := nat.Advise(context.Background(), "app", nil)
	require.NoError(t, err)
	assert.Equal(t, Handle(7), h)

	h, err = nat.Advise(context.Background(), "", nil)
	require.NoError(t, err)
	assert.True(t, h.IsZero())

	require.NoError(t, nat.Unadvise(context.Background(), 7))
	assert.Equal(t, Handle(7), released)
}

func TestSinkFunc(t *testing.T) {
	boom := errors.New("boom")
	var got Notification
	sink := SinkFunc(func(ctx context.Context, n Notification) error {
		got = n
		return boom
	})

	err := sink.Notify(context.Background(), Notification{Event: EventAfterImport, Source: "app-1"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, EventAfterImport, got.Event)
	assert.Equal(t, "app-1", got.Source)
}
