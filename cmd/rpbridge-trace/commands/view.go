// Package commands implements the rpbridge-trace CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rpbridge/rpbridge-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sub:id] ORIGIN CATEGORY kind
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	subID := shortenID(event.SubscriptionID)

	fmt.Fprintf(w, "%s [sub:%s] %-7s %s", ts, subID, event.Origin.String(), event.Category.String())
	if event.Kind != "" {
		fmt.Fprintf(w, " %s", event.Kind)
	}
	if event.Source != "" {
		fmt.Fprintf(w, " @%s", event.Source)
	}
	fmt.Fprintln(w)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.NativeCall != nil:
		formatNativeCallDetails(w, event.NativeCall)
	case event.Notification != nil:
		formatNotificationDetails(w, event.Notification)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a subscription ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatNativeCallDetails(w io.Writer, nc *log.NativeCallEvent) {
	fmt.Fprintf(w, "  %s handle=%d took %s", nc.Op.String(), nc.Handle, formatDuration(nc.Duration))
	if nc.Failed {
		fmt.Fprint(w, " FAILED")
	}
	fmt.Fprintln(w)
}

func formatNotificationDetails(w io.Writer, n *log.NotificationEvent) {
	fmt.Fprintf(w, "  Event: %s\n", n.Event)
	if len(n.Elements) > 0 {
		fmt.Fprintf(w, "  Elements: %s\n", strings.Join(n.Elements, ", "))
	}
	if n.Delivered {
		if n.ProcessingTime != nil {
			fmt.Fprintf(w, "  Delivered in %s\n", formatDuration(*n.ProcessingTime))
		} else {
			fmt.Fprintln(w, "  Delivered")
		}
	} else {
		fmt.Fprintf(w, "  Dropped: %s\n", n.DropReason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Op: %s\n", err.Op)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != "" {
		fmt.Fprintf(w, "  Code: %s\n", err.Code)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryState, nil
	case "native":
		return log.CategoryNative, nil
	case "notification":
		return log.CategoryNotification, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be state, native, notification or error)", s)
	}
}

// ParseOriginFlag parses an origin string (case-insensitive).
func ParseOriginFlag(s string) (log.Origin, error) {
	switch strings.ToLower(s) {
	case "caller":
		return log.OriginCaller, nil
	case "cleanup":
		return log.OriginCleanup, nil
	case "native":
		return log.OriginNative, nil
	default:
		return 0, fmt.Errorf("invalid origin: %s (must be caller, cleanup or native)", s)
	}
}

// RunView prints every event matching filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
