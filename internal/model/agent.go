package model

// 内置 Agent ID 常量
const (
	AgentHRCopilot    = "hr_copilot"
	AgentLegalCopilot = "legal_copilot"
	AgentPharosUDX    = "pharos_udx" // 唯一需要选择区域的 Agent
)

// Agent 可被评估的智能体
type Agent struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
}

// RequiresRegion 是否需要选择区域
func (a *Agent) RequiresRegion() bool {
	return a.ID == AgentPharosUDX
}

// AgentSummary Agent 列表项（附带最近一次运行的指标）
type AgentSummary struct {
	Agent
	LastRun *Run `json:"last_run,omitempty"`
}
