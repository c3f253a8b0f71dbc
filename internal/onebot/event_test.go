package onebot

import "testing"

func TestReplyPrivate(t *testing.T) {
	ev := Event{
		PostType:    PostTypeMessage,
		MessageType: MessageTypePrivate,
		UserID:      1001,
	}
	a := Reply(ev, "你好")
	if a.Action != "send_msg" {
		t.Fatalf("action = %q", a.Action)
	}
	if a.Params["message_type"] != MessageTypePrivate {
		t.Errorf("message_type = %v", a.Params["message_type"])
	}
	if a.Params["user_id"] != int64(1001) {
		t.Errorf("user_id = %v", a.Params["user_id"])
	}
	if _, ok := a.Params["group_id"]; ok {
		t.Errorf("private reply must not carry group_id")
	}
	if a.Params["message"] != "你好" {
		t.Errorf("message = %v", a.Params["message"])
	}
}

func TestReplyGroup(t *testing.T) {
	ev := Event{
		PostType:    PostTypeMessage,
		MessageType: MessageTypeGroup,
		GroupID:     2002,
	}
	a := Reply(ev, "收到")
	if a.Params["group_id"] != int64(2002) {
		t.Errorf("group_id = %v", a.Params["group_id"])
	}
	if _, ok := a.Params["user_id"]; ok {
		t.Errorf("group reply must not carry user_id")
	}
}

func TestGroupMessage(t *testing.T) {
	a := GroupMessage(42, "欢迎 Alice 加入游戏！")
	if a.Action != "send_group_msg" {
		t.Fatalf("action = %q", a.Action)
	}
	if a.Params["group_id"] != int64(42) {
		t.Errorf("group_id = %v", a.Params["group_id"])
	}
	if a.Params["message"] != "欢迎 Alice 加入游戏！" {
		t.Errorf("message = %v", a.Params["message"])
	}
}

func TestSegmentedMessages(t *testing.T) {
	a := SegmentedPrivateMessage("1001", "hello")
	if a.Action != "send_private_msg" {
		t.Fatalf("action = %q", a.Action)
	}
	segs, ok := a.Params["message"].([]map[string]interface{})
	if !ok || len(segs) != 1 {
		t.Fatalf("expected one text segment, got %v", a.Params["message"])
	}
	if segs[0]["type"] != "text" {
		t.Errorf("segment type = %v", segs[0]["type"])
	}
	data, _ := segs[0]["data"].(map[string]interface{})
	if data["text"] != "hello" {
		t.Errorf("segment text = %v", data["text"])
	}

	g := SegmentedGroupMessage("2002", "hi all")
	if g.Action != "send_group_msg" {
		t.Fatalf("action = %q", g.Action)
	}
	if g.Params["group_id"] != "2002" {
		t.Errorf("group_id = %v", g.Params["group_id"])
	}
}
