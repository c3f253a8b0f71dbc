package mclog

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mc-bridge/internal/ledger"
	"mc-bridge/internal/onebot"
)

type fakeSender struct {
	actions []onebot.Action
}

func (f *fakeSender) Send(a onebot.Action) {
	f.actions = append(f.actions, a)
}

func (f *fakeSender) messages() []string {
	var out []string
	for _, a := range f.actions {
		msg, _ := a.Params["message"].(string)
		out = append(out, msg)
	}
	return out
}

const (
	startupLines = "[12:00:00] [Server thread/INFO] [minecraft/DedicatedServer]: Starting minecraft server\n" +
		"[12:00:01] [Server thread/INFO] [minecraft/DedicatedServer]: Preparing spawn area\n"
	readyLine = "[12:00:05] [Server thread/INFO] [minecraft/DedicatedServer]: Done (9.312s)! For help, type \"help\"\n"
	joinAlice = "[12:01:00] [Server thread/INFO] [net.minecraft.server.MinecraftServer/]: Alice joined the game\n"
	leaveBob  = "[12:02:00] [Server thread/INFO] [net.minecraft.server.MinecraftServer/]: Bob left the game\n"
)

func newTestTailer(t *testing.T, groupID int64) (*Tailer, *fakeSender) {
	t.Helper()
	led, err := ledger.New(filepath.Join(t.TempDir(), "events_storage.json"))
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	snd := &fakeSender{}
	return NewTailer(nil, led, snd, groupID, 10*time.Second), snd
}

func TestFirstFetchOnlyBaselines(t *testing.T) {
	tl, snd := newTestTailer(t, 42)

	tl.processFetch(startupLines + joinAlice)
	if len(snd.actions) != 0 {
		t.Fatalf("baseline fetch should emit nothing, got %d action(s)", len(snd.actions))
	}
	if tl.state != stateWaitingStart {
		t.Fatalf("expected waiting state after baseline, got %d", tl.state)
	}
}

func TestJoinEmitsOneGroupMessage(t *testing.T) {
	tl, snd := newTestTailer(t, 42)

	tl.processFetch(startupLines)
	tl.processFetch(startupLines + readyLine)
	if len(snd.actions) != 0 {
		t.Fatalf("ready marker alone should emit nothing, got %d", len(snd.actions))
	}
	if tl.state != stateStreaming {
		t.Fatalf("expected streaming state after ready marker")
	}

	tl.processFetch(startupLines + readyLine + joinAlice)
	if len(snd.actions) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(snd.actions))
	}
	if a := snd.actions[0]; a.Action != "send_group_msg" {
		t.Fatalf("unexpected action %q", a.Action)
	}
	if msg := snd.messages()[0]; !strings.Contains(msg, "Alice") {
		t.Fatalf("notification should mention Alice: %q", msg)
	}
}

func TestRefeedingSameContentEmitsNothing(t *testing.T) {
	tl, snd := newTestTailer(t, 42)

	tl.processFetch(startupLines)
	tl.processFetch(startupLines + readyLine + joinAlice)
	if len(snd.actions) != 1 {
		t.Fatalf("expected one notification, got %d", len(snd.actions))
	}

	tl.processFetch(startupLines + readyLine + joinAlice)
	if len(snd.actions) != 1 {
		t.Fatalf("re-fed content emitted %d extra notification(s)", len(snd.actions)-1)
	}
}

func TestDedupWindowSuppressesRepeatedEvents(t *testing.T) {
	tl, snd := newTestTailer(t, 42)

	tl.processFetch(startupLines)
	content := startupLines + readyLine + joinAlice
	tl.processFetch(content)

	// The same player joins again two minutes later: still inside the window.
	tl.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	tl.processFetch(content + joinAlice)
	if len(snd.actions) != 1 {
		t.Fatalf("event inside dedup window should be suppressed, got %d actions", len(snd.actions))
	}

	// Past the window the same key is notified again.
	tl.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	tl.processFetch(content + joinAlice + joinAlice)
	if len(snd.actions) != 2 {
		t.Fatalf("event outside dedup window should notify, got %d actions", len(snd.actions))
	}
}

func TestEventsBeforeReadyMarkerAreProcessed(t *testing.T) {
	tl, snd := newTestTailer(t, 42)

	tl.processFetch(startupLines)
	// A join races the readiness marker within one fetch window.
	tl.processFetch(startupLines + joinAlice + readyLine)
	if len(snd.actions) != 1 {
		t.Fatalf("join that raced the ready marker should be notified, got %d", len(snd.actions))
	}
}

func TestDistinctEventsNotify(t *testing.T) {
	tl, snd := newTestTailer(t, 42)

	tl.processFetch(startupLines)
	tl.processFetch(startupLines + readyLine)
	tl.processFetch(startupLines + readyLine + joinAlice + leaveBob)
	if len(snd.actions) != 2 {
		t.Fatalf("expected notifications for both events, got %d", len(snd.actions))
	}
}

func TestNoGroupConfiguredSkipsNotification(t *testing.T) {
	tl, snd := newTestTailer(t, 0)

	tl.processFetch(startupLines)
	tl.processFetch(startupLines + readyLine + joinAlice)
	if len(snd.actions) != 0 {
		t.Fatalf("no group configured should not notify, got %d", len(snd.actions))
	}
	// The event is still recorded for dedup purposes.
	if _, ok := tl.ledger.Seen("join:Alice"); !ok {
		t.Fatalf("event should be recorded even without a group")
	}
}

func TestShrunkenLogResetsCursor(t *testing.T) {
	tl, snd := newTestTailer(t, 42)

	tl.processFetch(startupLines + readyLine + joinAlice)
	tl.processFetch(startupLines + readyLine + joinAlice)
	before := len(snd.actions)

	// Rotation: the file is suddenly shorter. Nothing is replayed.
	tl.processFetch(startupLines)
	if len(snd.actions) != before {
		t.Fatalf("shrunken log should not emit, got %d new", len(snd.actions)-before)
	}

	tl.processFetch(startupLines + leaveBob)
	if len(snd.actions) != before+1 {
		t.Fatalf("expected one notification after reset, got %d new", len(snd.actions)-before)
	}
}
