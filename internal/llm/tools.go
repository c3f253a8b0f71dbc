package llm

// TeleportToolName is the single structured tool the bridge offers to the model.
const TeleportToolName = "teleport_player"

// TeleportTool returns the tool definition for moving a player to a target
// player or position on the game server.
func TeleportTool() Tool {
	return Tool{
		Type: "function",
		Function: Function{
			Name:        TeleportToolName,
			Description: "当有人说'把xxx传送到xxx'时调用此工具，用于传送玩家到指定位置或其他玩家身边",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"player_from": map[string]interface{}{
						"type":        "string",
						"description": "需要被传送的玩家名称",
					},
					"player_to": map[string]interface{}{
						"type":        "string",
						"description": "目标玩家名称或位置坐标",
					},
				},
				"required": []string{"player_from", "player_to"},
			},
		},
	}
}
