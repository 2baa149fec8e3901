package model

// SetupState 评估配置页的选择（持久化）
type SetupState struct {
	SelectedAgentIDs []string       `json:"selected_agent_ids"`
	EvaluationType   EvaluationType `json:"evaluation_type"`
	GroundTruthID    *string        `json:"ground_truth_id"`
	Region           *string        `json:"region"`
}

// HasAgent 是否选中了某个 Agent
func (s *SetupState) HasAgent(id string) bool {
	for _, a := range s.SelectedAgentIDs {
		if a == id {
			return true
		}
	}
	return false
}
