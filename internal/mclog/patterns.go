package mclog

import (
	"fmt"
	"regexp"
	"strings"
)

type EventKind string

const (
	KindJoin       EventKind = "join"
	KindLogin      EventKind = "login"
	KindLeave      EventKind = "leave"
	KindDisconnect EventKind = "disconnect"
)

// Pattern pairs a log line regex with the event kind it produces. The first
// capture group is the player name.
type Pattern struct {
	Kind     EventKind
	Re       *regexp.Regexp
	Announce string
}

// Patterns is the ordered classification table, tried top to bottom; the
// first match wins.
var Patterns = []Pattern{
	{
		Kind:     KindJoin,
		Re:       regexp.MustCompile(`\[Server thread/INFO\] \[net\.minecraft\.server\.MinecraftServer/\]: (.+) joined the game`),
		Announce: "欢迎 %s 加入游戏！",
	},
	{
		Kind:     KindLogin,
		Re:       regexp.MustCompile(`\[Server thread/INFO\] \[net\.minecraft\.server\.network\.ServerLoginPacketListenerImpl/\]: (\S+)\[/[\d.:]+\] logged in with entity id`),
		Announce: "%s 正在进入游戏…",
	},
	{
		Kind:     KindLeave,
		Re:       regexp.MustCompile(`\[Server thread/INFO\] \[net\.minecraft\.server\.MinecraftServer/\]: (.+) left the game`),
		Announce: "%s 离开了游戏，再见！",
	},
	{
		Kind:     KindDisconnect,
		Re:       regexp.MustCompile(`\[Server thread/INFO\] \[net\.minecraft\.server\.network\.ServerGamePacketListenerImpl/\]: (.+) lost connection: Disconnected`),
		Announce: "%s 断开了连接，再见！",
	},
}

// readyPatterns mark the end of server startup. Either form counts.
var readyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Done \([0-9.]+s\)! For help, type "help"`),
	regexp.MustCompile(`\[Server thread/INFO\].*: Done \(`),
}

// LineEvent is a classified player event extracted from one log line.
type LineEvent struct {
	Kind   EventKind
	Player string

	announce string
}

// Key is the dedup identity of the event: "<kind>:<player>".
func (e LineEvent) Key() string {
	return fmt.Sprintf("%s:%s", e.Kind, e.Player)
}

// Announcement is the group message for the event.
func (e LineEvent) Announcement() string {
	return fmt.Sprintf(e.announce, e.Player)
}

// Classify matches a line against the pattern table.
func Classify(line string) (LineEvent, bool) {
	for _, p := range Patterns {
		m := p.Re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return LineEvent{
			Kind:     p.Kind,
			Player:   strings.TrimSpace(m[1]),
			announce: p.Announce,
		}, true
	}
	return LineEvent{}, false
}

// IsServerReady reports whether the line is a server-ready marker.
func IsServerReady(line string) bool {
	for _, re := range readyPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
