package mclog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"mc-bridge/internal/ledger"
	"mc-bridge/internal/onebot"
	"mc-bridge/internal/panel"
)

type state int

const (
	stateUninitialized state = iota
	stateWaitingStart
	stateStreaming
)

// LogFetcher retrieves the current full content of the server log.
type LogFetcher interface {
	FetchLog(ctx context.Context) (string, error)
}

// Sender delivers outbound gateway actions.
type Sender interface {
	Send(a onebot.Action)
}

// PanelFetcher reads the server log through the panel file API.
type PanelFetcher struct {
	Client   *panel.Client
	DaemonID string
	UUID     string
	Target   string
}

func (f PanelFetcher) FetchLog(ctx context.Context) (string, error) {
	res := f.Client.PutFile(ctx, f.DaemonID, f.UUID, f.Target)
	if res.Status != panel.StatusSuccess {
		return "", fmt.Errorf("fetch log: %s", res.Message)
	}
	content := panel.LogContent(res)
	if content == "" {
		return "", fmt.Errorf("fetch log: empty content")
	}
	return content, nil
}

// Tailer polls the server log, waits for the server-ready marker, classifies
// new lines into player events and announces them to the configured group,
// deduplicated through the durable ledger.
type Tailer struct {
	fetcher  LogFetcher
	ledger   *ledger.Ledger
	sender   Sender
	groupID  int64
	interval time.Duration

	state  state
	cursor int

	now func() time.Time
}

// NewTailer wires a tailer. A zero groupID disables notifications (events are
// still recorded in the ledger).
func NewTailer(fetcher LogFetcher, led *ledger.Ledger, sender Sender, groupID int64, interval time.Duration) *Tailer {
	return &Tailer{
		fetcher:  fetcher,
		ledger:   led,
		sender:   sender,
		groupID:  groupID,
		interval: interval,
		state:    stateUninitialized,
		cursor:   -1,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled. Fetch and parse failures are logged and
// the loop continues after the same fixed interval.
func (t *Tailer) Run(ctx context.Context) {
	log.Printf("log tailer started, polling every %s", t.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("log tailer stopped")
			return
		case <-time.After(t.interval):
		}

		content, err := t.fetcher.FetchLog(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("❌ failed to fetch server log: %v", err)
			continue
		}
		t.processFetch(content)
	}
}

func (t *Tailer) processFetch(content string) {
	lines := strings.Split(content, "\n")
	// A trailing newline yields one empty tail element; drop it so the cursor
	// counts real lines.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	// First successful fetch only establishes the baseline.
	if t.state == stateUninitialized {
		t.cursor = len(lines)
		t.state = stateWaitingStart
		log.Printf("log baseline established at %d lines, waiting for server start", len(lines))
		return
	}

	if len(lines) < t.cursor {
		// Shrunken file means the log was rotated between polls. Re-baseline
		// instead of replaying the whole file as new lines.
		log.Printf("⚠️ server log shrank from %d to %d lines, resetting cursor", t.cursor, len(lines))
		t.cursor = len(lines)
		return
	}

	// Every new line is classified regardless of state, so events that raced
	// the readiness marker are not missed.
	for _, line := range lines[t.cursor:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		t.processLine(line)
	}

	switch t.state {
	case stateWaitingStart:
		for _, line := range lines {
			if IsServerReady(line) {
				log.Printf("✅ server start detected, streaming log events")
				t.state = stateStreaming
				t.cursor = len(lines)
				break
			}
		}
	case stateStreaming:
		t.cursor = len(lines)
	}
}

func (t *Tailer) processLine(line string) {
	ev, ok := Classify(line)
	if !ok {
		return
	}

	key := ev.Key()
	fresh, err := t.ledger.RecordIfStale(key, t.now(), ledger.DedupWindow)
	if err != nil {
		log.Printf("❌ failed to record event %s: %v", key, err)
	}
	if !fresh {
		log.Printf("event %s already notified within %s, skipping", key, ledger.DedupWindow)
		return
	}

	log.Printf("player event: %s", key)
	if t.groupID == 0 {
		log.Printf("no notification group configured, skipping announcement for %s", key)
		return
	}
	t.sender.Send(onebot.GroupMessage(t.groupID, ev.Announcement()))
}
