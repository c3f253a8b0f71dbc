package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"mc-bridge/internal/onebot"
	"mc-bridge/internal/panel"
)

// Sender delivers outbound gateway actions.
type Sender interface {
	Send(a onebot.Action)
}

// Server is the operator control surface: send-message wrappers, gateway
// status and panel proxies.
type Server struct {
	sender   Sender
	registry *onebot.Registry
	panel    *panel.Client
	server   *http.Server
	host     string
	port     int
}

func New(sender Sender, registry *onebot.Registry, panelClient *panel.Client, host string, port int) *Server {
	return &Server{
		sender:   sender,
		registry: registry,
		panel:    panelClient,
		host:     host,
		port:     port,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/send_message", s.handleSendMessage)
	mux.HandleFunc("/api/send_private_msg", s.handleSendPrivateMsg)
	mux.HandleFunc("/api/send_group_msg", s.handleSendGroupMsg)
	mux.HandleFunc("/api/send_private_message", s.handleSendPrivateMessage)
	mux.HandleFunc("/api/send_group_message", s.handleSendGroupMessage)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/files/", s.handleFiles)
	mux.HandleFunc("/api/protected_instance/command", s.handleCommand)
	return mux
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("🌐 control API listening on %s:%d", s.host, s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ failed to encode response: %v", err)
	}
}

func sentResponse(message string) map[string]string {
	return map[string]string{"status": "success", "message": message}
}

// handleSendMessage forwards a raw action envelope to the gateway.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var a onebot.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid message body", http.StatusBadRequest)
		return
	}
	s.sender.Send(a)
	writeJSON(w, sentResponse("消息已发送"))
}

func (s *Server) handleSendPrivateMsg(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("user_id")
	message := r.URL.Query().Get("message")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	s.sender.Send(onebot.SegmentedPrivateMessage(userID, message))
	writeJSON(w, sentResponse("私聊消息已发送"))
}

func (s *Server) handleSendGroupMsg(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	groupID := r.URL.Query().Get("group_id")
	message := r.URL.Query().Get("message")
	if groupID == "" {
		http.Error(w, "group_id is required", http.StatusBadRequest)
		return
	}
	s.sender.Send(onebot.SegmentedGroupMessage(groupID, message))
	writeJSON(w, sentResponse("群聊消息已发送"))
}

func (s *Server) handleSendPrivateMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		UserID  int64  `json:"user_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid message body", http.StatusBadRequest)
		return
	}
	s.sender.Send(onebot.Action{
		Action: "send_msg",
		Params: map[string]interface{}{
			"message_type": onebot.MessageTypePrivate,
			"user_id":      body.UserID,
			"message":      body.Message,
		},
	})
	writeJSON(w, sentResponse("私聊消息已发送"))
}

func (s *Server) handleSendGroupMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		GroupID int64  `json:"group_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid message body", http.StatusBadRequest)
		return
	}
	s.sender.Send(onebot.Action{
		Action: "send_msg",
		Params: map[string]interface{}{
			"message_type": onebot.MessageTypeGroup,
			"group_id":     body.GroupID,
			"message":      body.Message,
		},
	})
	writeJSON(w, sentResponse("群聊消息已发送"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := "disconnected"
	if s.registry.Connected(onebot.ConnectionName) {
		status = "connected"
	}
	writeJSON(w, map[string]string{"status": status})
}

// handleFiles proxies remote file reads: GET with the target as a query
// parameter, PUT with the target in the body (the shape the panel expects for
// read-with-body).
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	daemonID := q.Get("daemonId")
	uuid := q.Get("uuid")

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.panel.GetFile(r.Context(), daemonID, uuid, q.Get("target")))
	case http.MethodPut:
		var body struct {
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.panel.PutFile(r.Context(), daemonID, uuid, body.Target))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	writeJSON(w, s.panel.ExecuteCommand(r.Context(), q.Get("daemonId"), q.Get("uuid"), q.Get("command")))
}
