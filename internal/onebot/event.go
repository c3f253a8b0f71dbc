package onebot

// Event is the inbound OneBot envelope. Only the fields the bridge routes on
// are modelled; everything else in the frame is ignored.
type Event struct {
	PostType      string `json:"post_type"`
	MessageType   string `json:"message_type,omitempty"`
	RawMessage    string `json:"raw_message,omitempty"`
	UserID        int64  `json:"user_id,omitempty"`
	GroupID       int64  `json:"group_id,omitempty"`
	SelfID        int64  `json:"self_id,omitempty"`
	NoticeType    string `json:"notice_type,omitempty"`
	RequestType   string `json:"request_type,omitempty"`
	MetaEventType string `json:"meta_event_type,omitempty"`
}

const (
	PostTypeMessage = "message"
	PostTypeNotice  = "notice"
	PostTypeRequest = "request"
	PostTypeMeta    = "meta_event"

	MessageTypePrivate = "private"
	MessageTypeGroup   = "group"
)

// Action is the outbound OneBot envelope.
type Action struct {
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params"`
}

// Reply builds a send_msg action answering ev on the channel it arrived on.
func Reply(ev Event, text string) Action {
	params := map[string]interface{}{
		"message_type": ev.MessageType,
		"message":      text,
	}
	if ev.MessageType == MessageTypePrivate {
		params["user_id"] = ev.UserID
	}
	if ev.MessageType == MessageTypeGroup {
		params["group_id"] = ev.GroupID
	}
	return Action{Action: "send_msg", Params: params}
}

// GroupMessage builds a plain-text send_group_msg action.
func GroupMessage(groupID int64, text string) Action {
	return Action{
		Action: "send_group_msg",
		Params: map[string]interface{}{
			"group_id": groupID,
			"message":  text,
		},
	}
}

func textSegments(text string) []map[string]interface{} {
	return []map[string]interface{}{
		{"type": "text", "data": map[string]interface{}{"text": text}},
	}
}

// SegmentedPrivateMessage builds a send_private_msg action with the message
// wrapped in a text segment array, the shape the convenience endpoints use.
func SegmentedPrivateMessage(userID, text string) Action {
	return Action{
		Action: "send_private_msg",
		Params: map[string]interface{}{
			"user_id": userID,
			"message": textSegments(text),
		},
	}
}

// SegmentedGroupMessage is the group counterpart of SegmentedPrivateMessage.
func SegmentedGroupMessage(groupID, text string) Action {
	return Action{
		Action: "send_group_msg",
		Params: map[string]interface{}{
			"group_id": groupID,
			"message":  textSegments(text),
		},
	}
}
