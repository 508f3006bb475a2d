package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/rpbridge/rpbridge-go/pkg/bridge"
	"github.com/rpbridge/rpbridge-go/pkg/listener"
	"github.com/rpbridge/rpbridge-go/pkg/log"
	"github.com/rpbridge/rpbridge-go/pkg/native"
	"github.com/rpbridge/rpbridge-go/pkg/native/fake"
	"github.com/rpbridge/rpbridge-go/pkg/subscription"
)

// gcAttempts bounds how long drop waits for the cleanup to run.
const gcAttempts = 50

// defaultTraceLines is how many events trace prints without an argument.
const defaultTraceLines = 10

// Shell runs simulator commands against a bridge on top of the fake tool.
type Shell struct {
	bridge *bridge.Bridge
	tool   *fake.Tool
	app    *fake.Application
	rec    *log.Recorder
	out    io.Writer
}

// NewShell creates a shell writing its output to out. rec is the recorder
// passed to the bridge as trace; trace prints from it.
func NewShell(b *bridge.Bridge, tool *fake.Tool, app *fake.Application, rec *log.Recorder, out io.Writer) *Shell {
	return &Shell{bridge: b, tool: tool, app: app, rec: rec, out: out}
}

// Run reads commands from rl until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, rl *readline.Instance) {
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
		if s.Exec(ctx, line) {
			return
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "connect", "c":
		s.cmdConnect(ctx, args)
	case "disconnect", "d":
		s.cmdDisconnect(ctx, args)
	case "fire", "f":
		s.cmdFire(ctx, args)
	case "status", "s":
		s.cmdStatus()
	case "drop":
		s.cmdDrop(args)
	case "availability", "avail":
		s.cmdAvailability(args)
	case "trace", "t":
		s.cmdTrace(args)
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
rpbridge simulator commands:
  Listeners:
    connect <kind>          - Advise the listener of this kind
    disconnect <kind>       - Unadvise the listener of this kind
    drop <kind>             - Abandon the listener and force a GC
    status                  - Show listener states and held handles

  Tool:
    fire <event> [guid...]  - Raise an event in the application
    availability on|off     - Toggle whether the application accepts advise

  Trace:
    trace [n]               - Show the last n lifecycle events (default 10)
    trace clear             - Forget recorded events

  Other:
    help                    - Show this help
    quit                    - Exit

Kinds:  `+kindList()+`
Events: `+eventList())
}

func kindList() string {
	names := make([]string, 0, len(listener.Kinds()))
	for _, k := range listener.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

func eventList() string {
	names := make([]string, 0, len(native.Events()))
	for _, e := range native.Events() {
		names = append(names, e.String())
	}
	return strings.Join(names, ", ")
}

func (s *Shell) listenerArg(cmd string, args []string) (listener.Listener, bool) {
	if len(args) != 1 {
		fmt.Fprintf(s.out, "Usage: %s <kind>\n", cmd)
		return nil, false
	}
	kind, err := listener.ParseKind(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, false
	}
	l, ok := s.bridge.Listener(kind)
	if !ok {
		fmt.Fprintf(s.out, "No %s listener (dropped or disabled)\n", kind)
		return nil, false
	}
	return l, true
}

func (s *Shell) cmdConnect(ctx context.Context, args []string) {
	l, ok := s.listenerArg("connect", args)
	if !ok {
		return
	}
	if err := l.Subscription().Connect(ctx, s.app); err != nil {
		fmt.Fprintf(s.out, "%s: connect failed [%s]: %v\n", l.Kind(), subscription.ErrorCode(err), err)
		return
	}
	fmt.Fprintf(s.out, "%s: connected, handle %s\n", l.Kind(), l.Subscription().Handle())
}

func (s *Shell) cmdDisconnect(ctx context.Context, args []string) {
	l, ok := s.listenerArg("disconnect", args)
	if !ok {
		return
	}
	if err := l.Subscription().Disconnect(ctx); err != nil {
		fmt.Fprintf(s.out, "%s: disconnect failed [%s]: %v\n", l.Kind(), subscription.ErrorCode(err), err)
		return
	}
	fmt.Fprintf(s.out, "%s: disconnected\n", l.Kind())
}

func (s *Shell) cmdFire(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: fire <event> [guid...]")
		return
	}
	event, err := native.ParseEventID(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	n := s.tool.Fire(ctx, s.app, native.Notification{Event: event, Elements: args[1:]})
	fmt.Fprintf(s.out, "%s delivered to %d listener(s)\n", event, n)
}

func (s *Shell) cmdStatus() {
	avail := "available"
	if !s.app.Available() {
		avail = "unavailable"
	}
	fmt.Fprintf(s.out, "Application %s (%s)\n", s.app.ID(), avail)

	for _, l := range s.bridge.Listeners() {
		sub := l.Subscription()
		fmt.Fprintf(s.out, "  %-15s %-13s", l.Kind(), sub.State())
		if sub.IsConnected() {
			fmt.Fprintf(s.out, " handle %s", sub.Handle())
		}
		fmt.Fprintln(s.out)
	}

	active := s.tool.Active()
	handles := make([]string, len(active))
	for i, h := range active {
		handles[i] = h.String()
	}
	fmt.Fprintf(s.out, "Tool holds %d handle(s): %s\n", len(active), strings.Join(handles, " "))
}

func (s *Shell) cmdDrop(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: drop <kind>")
		return
	}
	kind, err := listener.ParseKind(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	before := len(s.tool.Active())
	connected := s.abandon(kind)
	if connected < 0 {
		fmt.Fprintf(s.out, "No %s listener\n", kind)
		return
	}
	if connected == 0 {
		fmt.Fprintf(s.out, "%s: dropped (held no handle)\n", kind)
		return
	}

	for range gcAttempts {
		runtime.GC()
		if len(s.tool.Active()) < before {
			fmt.Fprintf(s.out, "%s: dropped, handle released by cleanup\n", kind)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Fprintf(s.out, "%s: dropped, cleanup still pending\n", kind)
}

// abandon detaches the listener and lets the last reference go out of scope.
// It returns -1 if there was no listener, else 1 if it held a handle.
func (s *Shell) abandon(kind listener.Kind) int {
	l, ok := s.bridge.Detach(kind)
	if !ok {
		return -1
	}
	if l.IsConnected() {
		return 1
	}
	l.Close()
	return 0
}

func (s *Shell) cmdAvailability(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: availability on|off")
		return
	}
	switch strings.ToLower(args[0]) {
	case "on":
		s.app.SetAvailable(true)
	case "off":
		s.app.SetAvailable(false)
	default:
		fmt.Fprintln(s.out, "Usage: availability on|off")
		return
	}
	fmt.Fprintf(s.out, "Application %s available: %v\n", s.app.ID(), s.app.Available())
}

func (s *Shell) cmdTrace(args []string) {
	if s.rec == nil {
		fmt.Fprintln(s.out, "Tracing is not enabled")
		return
	}
	n := defaultTraceLines
	switch {
	case len(args) == 0:
	case len(args) == 1 && strings.EqualFold(args[0], "clear"):
		s.rec.Reset()
		fmt.Fprintln(s.out, "Trace cleared")
		return
	case len(args) == 1:
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			fmt.Fprintln(s.out, "Usage: trace [n|clear]")
			return
		}
		n = v
	default:
		fmt.Fprintln(s.out, "Usage: trace [n|clear]")
		return
	}

	events := s.rec.Events()
	if len(events) > n {
		events = events[len(events)-n:]
	}
	if len(events) == 0 {
		fmt.Fprintln(s.out, "No events recorded")
		return
	}
	for _, e := range events {
		fmt.Fprintf(s.out, "%s %-15s %-12s %s\n",
			e.Timestamp.Format("15:04:05.000"), e.Kind, e.Category, traceDetail(e))
	}
}

func traceDetail(e log.Event) string {
	switch {
	case e.StateChange != nil:
		return fmt.Sprintf("%s -> %s (%s)", e.StateChange.OldState, e.StateChange.NewState, e.StateChange.Reason)
	case e.NativeCall != nil:
		d := fmt.Sprintf("%s %s", e.NativeCall.Op, native.Handle(e.NativeCall.Handle))
		if e.NativeCall.Failed {
			d += " failed"
		}
		return d
	case e.Notification != nil:
		if e.Notification.Delivered {
			return e.Notification.Event + " delivered"
		}
		return fmt.Sprintf("%s dropped: %s", e.Notification.Event, e.Notification.DropReason)
	case e.Error != nil:
		return fmt.Sprintf("%s [%s] %s", e.Error.Op, e.Error.Code, e.Error.Message)
	}
	return ""
}

// consolePublisher prints relayed notifications when no NATS server is
// configured.
type consolePublisher struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *consolePublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "-> %s %s\n", subject, data)
	return nil
}

func (p *consolePublisher) Close() error { return nil }
