package evaluation

// 阶段状态
const (
	StepPending = "pending"
	StepActive  = "active"
	StepDone    = "done"
)

// Step 进度页上的一个阶段
type Step struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

// simulator 模拟评估进度
// 每次 tick 先按当前阶段计算总进度，再推进阶段内进度
type simulator struct {
	labels       []string
	stepIndex    int
	stepProgress float64
	progress     float64
}

func newSimulator(labels []string) *simulator {
	return &simulator{labels: labels}
}

// tick 推进一次，r 取值 [0, 1)，全部阶段结束时返回 true
func (s *simulator) tick(r float64) bool {
	if s.stepIndex >= len(s.labels) {
		s.progress = 100
		return true
	}

	s.stepProgress += r*8 + 2

	weight := 100 / float64(len(s.labels))
	total := float64(s.stepIndex)*weight + s.stepProgress/100*weight
	if total > 100 {
		total = 100
	}
	s.progress = total

	if s.stepProgress >= 100 {
		s.stepIndex++
		s.stepProgress = 0
	}
	return false
}

// currentLabel 当前阶段名称，结束后为最后一个阶段
func (s *simulator) currentLabel() string {
	if len(s.labels) == 0 {
		return ""
	}
	if s.stepIndex >= len(s.labels) {
		return s.labels[len(s.labels)-1]
	}
	return s.labels[s.stepIndex]
}

func (s *simulator) steps(completed bool) []Step {
	out := make([]Step, len(s.labels))
	for i, label := range s.labels {
		status := StepPending
		switch {
		case completed || i < s.stepIndex:
			status = StepDone
		case i == s.stepIndex:
			status = StepActive
		}
		out[i] = Step{Label: label, Status: status}
	}
	return out
}
