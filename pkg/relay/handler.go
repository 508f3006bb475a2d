package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpbridge/rpbridge-go/pkg/listener"
	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "rpbridge"

// Message is the JSON payload published for every notification.
type Message struct {
	Kind     string    `json:"kind"`
	Event    string    `json:"event"`
	Source   string    `json:"source,omitempty"`
	Elements []string  `json:"elements,omitempty"`
	Time     time.Time `json:"time"`
}

// Handler implements every listener handler interface by publishing each
// notification on <prefix>.<kind>.<event>.
type Handler struct {
	pub    Publisher
	prefix string
	source string
	logger *slog.Logger
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Prefix is the subject prefix. Defaults to DefaultPrefix.
	Prefix string

	// Source is copied into every message, normally the application ID.
	Source string

	// Logger receives publish failures. Nil disables logging.
	Logger *slog.Logger
}

// NewHandler creates a handler publishing through pub.
func NewHandler(pub Publisher, cfg HandlerConfig) *Handler {
	if pub == nil {
		pub = NoopPublisher{}
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{pub: pub, prefix: cfg.Prefix, source: cfg.Source, logger: cfg.Logger}
}

// Subject returns the subject for event on a kind listener.
func Subject(prefix string, kind listener.Kind, event native.EventID) string {
	return fmt.Sprintf("%s.%s.%s", prefix, kind, event)
}

// Subject returns the subject h publishes event on.
func (h *Handler) Subject(kind listener.Kind, event native.EventID) string {
	return Subject(h.prefix, kind, event)
}

func (h *Handler) publish(ctx context.Context, kind listener.Kind, event native.EventID, elements []string) error {
	subject := h.Subject(kind, event)
	msg := Message{
		Kind:     kind.String(),
		Event:    event.String(),
		Source:   h.source,
		Elements: elements,
		Time:     time.Now().UTC(),
	}
	if err := h.pub.Publish(ctx, subject, msg); err != nil {
		h.logger.Warn("relay publish failed", slog.String("subject", subject), slog.Any("error", err))
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// OnCodeGenerationCompleted publishes the event.
func (h *Handler) OnCodeGenerationCompleted(ctx context.Context) error {
	return h.publish(ctx, listener.KindCodeGenerator, native.EventCodeGenerationCompleted, nil)
}

// BeforeRoundTrip publishes the event.
func (h *Handler) BeforeRoundTrip(ctx context.Context, elements []string) error {
	return h.publish(ctx, listener.KindRoundTrip, native.EventBeforeRoundTrip, elements)
}

// AfterRoundTrip publishes the event.
func (h *Handler) AfterRoundTrip(ctx context.Context, elements []string) error {
	return h.publish(ctx, listener.KindRoundTrip, native.EventAfterRoundTrip, elements)
}

// AfterImport publishes the event.
func (h *Handler) AfterImport(ctx context.Context, elements []string) error {
	return h.publish(ctx, listener.KindImport, native.EventAfterImport, elements)
}

// Compile-time interface satisfaction checks.
var (
	_ listener.CodeGeneratorHandler = (*Handler)(nil)
	_ listener.RoundTripHandler     = (*Handler)(nil)
	_ listener.ImportHandler        = (*Handler)(nil)
)
