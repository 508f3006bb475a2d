package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rpbridge/rpbridge-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	EventsByOrigin   map[log.Origin]int
	Subscriptions    map[string]*SubscriptionStats
	Errors           int
	Dropped          int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SubscriptionStats holds statistics for a single subscription.
type SubscriptionStats struct {
	Kind          string
	FirstSeen     time.Time
	LastSeen      time.Time
	Events        int
	Advises       int
	Unadvises     int
	Notifications int
	LastState     string
	CleanedUp     bool
}

// Leaked reports whether the subscription acquired more handles than it
// released.
func (s *SubscriptionStats) Leaked() bool {
	return s.Advises > s.Unadvises
}

// CollectStats reads every event of path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		EventsByOrigin:   make(map[log.Origin]int),
		Subscriptions:    make(map[string]*SubscriptionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.EventsByOrigin[event.Origin]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	sub, ok := s.Subscriptions[event.SubscriptionID]
	if !ok {
		sub = &SubscriptionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Subscriptions[event.SubscriptionID] = sub
	}
	sub.Events++
	if event.Timestamp.After(sub.LastSeen) {
		sub.LastSeen = event.Timestamp
	}
	if sub.Kind == "" {
		sub.Kind = event.Kind
	}
	if event.Origin == log.OriginCleanup {
		sub.CleanedUp = true
	}

	switch {
	case event.StateChange != nil:
		sub.LastState = event.StateChange.NewState
	case event.NativeCall != nil && !event.NativeCall.Failed && event.NativeCall.Handle != 0:
		switch event.NativeCall.Op {
		case log.NativeOpAdvise:
			sub.Advises++
		case log.NativeOpUnadvise:
			sub.Unadvises++
		}
	case event.NativeCall != nil && event.NativeCall.Failed && event.NativeCall.Op == log.NativeOpUnadvise:
		// The handle is dropped even when unadvise fails.
		sub.Unadvises++
	case event.Notification != nil:
		sub.Notifications++
		if !event.Notification.Delivered {
			s.Dropped++
		}
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== rpbridge Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryState, log.CategoryNative, log.CategoryNotification, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Origin:")
	for _, o := range []log.Origin{log.OriginCaller, log.OriginCleanup, log.OriginNative} {
		if count := stats.EventsByOrigin[o]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", o.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Subscriptions: %d\n", len(stats.Subscriptions))
	if len(stats.Subscriptions) > 0 {
		type subInfo struct {
			id    string
			stats *SubscriptionStats
		}
		subs := make([]subInfo, 0, len(stats.Subscriptions))
		for id, ss := range stats.Subscriptions {
			subs = append(subs, subInfo{id, ss})
		}
		sort.Slice(subs, func(i, j int) bool {
			return subs[i].stats.FirstSeen.Before(subs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range subs {
			fmt.Fprintf(w, "  [%s] %s: %d events, %d notifications, last state %s\n",
				shortenID(s.id), s.stats.Kind, s.stats.Events, s.stats.Notifications, s.stats.LastState)
			if s.stats.CleanedUp {
				fmt.Fprintln(w, "           released by cleanup")
			}
			if s.stats.Leaked() {
				fmt.Fprintf(w, "           LEAKED: %d advise, %d unadvise\n", s.stats.Advises, s.stats.Unadvises)
			}
		}
	}

	if stats.Dropped > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Dropped notifications: %d\n", stats.Dropped)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
