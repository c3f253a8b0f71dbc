package ai

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"mc-bridge/internal/llm"
	"mc-bridge/internal/memory"
	"mc-bridge/internal/panel"
)

const (
	incompleteTeleportReply  = "传送指令参数不完整，请指定正确的玩家和目标。"
	unparseableTeleportReply = "无法解析传送指令参数。"
)

// CommandRunner executes a console command on the game server.
type CommandRunner interface {
	ExecuteCommand(ctx context.Context, daemonID, uuid, command string) panel.Result
}

// Responder decides whether a gateway message deserves an AI reply, assembles
// the prompt with memory context, resolves tool calls against the game server
// and writes the turn back to memory.
type Responder struct {
	client       llm.Client
	systemPrompt string
	store        *memory.Store
	runner       CommandRunner
	daemonID     string
	uuid         string
}

// NewResponder builds a responder. A nil client disables AI replies entirely.
func NewResponder(client llm.Client, systemPrompt string, store *memory.Store, runner CommandRunner, daemonID, uuid string) *Responder {
	return &Responder{
		client:       client,
		systemPrompt: systemPrompt,
		store:        store,
		runner:       runner,
		daemonID:     daemonID,
		uuid:         uuid,
	}
}

func (r *Responder) Enabled() bool { return r.client != nil }

// ShouldReply replies to every private message; group messages only when the
// bot itself is mentioned.
func (r *Responder) ShouldReply(messageType, raw string, selfID int64) bool {
	if !r.Enabled() {
		return false
	}
	if messageType == "private" {
		return true
	}
	if messageType == "group" && selfID != 0 {
		return strings.Contains(raw, fmt.Sprintf("[CQ:at,qq=%d]", selfID))
	}
	return false
}

// wantsTeleport detects a transport request by keyword containment: the
// transport word plus one of the action verbs.
func wantsTeleport(raw string) bool {
	return strings.Contains(raw, "传送") && (strings.Contains(raw, "把") || strings.Contains(raw, "将"))
}

// Respond produces a reply for the user's message, or "" for no reply. All
// completion failures degrade to "" and are never propagated.
func (r *Responder) Respond(ctx context.Context, userID int64, raw string) string {
	if !r.Enabled() {
		return ""
	}
	uid := strconv.FormatInt(userID, 10)

	messages := []llm.Message{{Role: "system", Content: r.systemPrompt}}
	if r.store != nil {
		if mc := r.store.Context(uid); mc != "" {
			messages = append(messages, llm.Message{Role: "system", Content: "记忆上下文:\n" + mc})
		}
	}
	messages = append(messages, llm.Message{Role: "user", Content: raw})

	var tools []llm.Tool
	forceTool := ""
	if wantsTeleport(raw) {
		tools = []llm.Tool{llm.TeleportTool()}
		forceTool = llm.TeleportToolName
	}

	resp, err := r.client.GenerateWithTools(ctx, messages, tools, forceTool)
	if err != nil {
		log.Printf("❌ failed to get AI response: %v", err)
		return ""
	}

	// The tool-call branch below does not persist its result as memory.
	if r.store != nil && resp.Content != "" {
		if err := r.store.Append(uid, raw, resp.Content); err != nil {
			log.Printf("⚠️ failed to store memory for %s: %v", uid, err)
		}
	}

	for _, tc := range resp.ToolCalls {
		if tc.Function.Name != llm.TeleportToolName {
			continue
		}
		if tc.Function.Arguments == nil {
			return unparseableTeleportReply
		}
		from, _ := tc.Function.Arguments["player_from"].(string)
		to, _ := tc.Function.Arguments["player_to"].(string)
		if from == "" || to == "" {
			return incompleteTeleportReply
		}
		if r.runner == nil {
			break
		}
		result := r.runner.ExecuteCommand(ctx, r.daemonID, r.uuid, fmt.Sprintf("tp %s %s", from, to))
		if result.Status == panel.StatusSuccess {
			return fmt.Sprintf("已将玩家 %s 传送到 %s", from, to)
		}
		msg := result.Message
		if msg == "" {
			msg = "未知错误"
		}
		return "传送失败: " + msg
	}

	return resp.Content
}
