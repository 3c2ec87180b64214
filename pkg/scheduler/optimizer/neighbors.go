package optimizer

import (
	"hash/fnv"
	"math/rand"

	"github.com/paiban/nrp/pkg/model"
	"github.com/paiban/nrp/pkg/scheduler/penalty"
)

// MoveType 邻域移动类型
type MoveType int

const (
	MoveChange    MoveType = iota // 修改某护士某天的分配
	MoveSwap                      // 交换两名护士同一天的分配
	MoveBlockSwap                 // 交换两名护士连续多天的分配
	MoveExchange                  // 交换同一护士两天的分配
)

var moveTypeNames = [...]string{"change", "swap", "block_swap", "exchange"}

func (t MoveType) String() string {
	if int(t) < len(moveTypeNames) {
		return moveTypeNames[t]
	}
	return "unknown"
}

// Move 邻域移动操作
// Change 使用 Nurse/Day/Assign；Swap 使用 Nurse/Nurse2/Day；
// BlockSwap 使用 Nurse/Nurse2/Day..Day2；Exchange 使用 Nurse/Day/Day2
type Move struct {
	Type   MoveType
	Nurse  model.NurseID
	Nurse2 model.NurseID
	Day    model.Weekday
	Day2   model.Weekday
	Assign model.Assign
}

// Apply 把移动作用到方案上
func (m Move) Apply(out *model.Output) {
	switch m.Type {
	case MoveChange:
		out.Set(m.Nurse, m.Day, m.Assign)
	case MoveSwap:
		a, b := out.At(m.Nurse, m.Day), out.At(m.Nurse2, m.Day)
		out.Set(m.Nurse, m.Day, b)
		out.Set(m.Nurse2, m.Day, a)
	case MoveBlockSwap:
		for d := m.Day; d <= m.Day2; d++ {
			a, b := out.At(m.Nurse, d), out.At(m.Nurse2, d)
			out.Set(m.Nurse, d, b)
			out.Set(m.Nurse2, d, a)
		}
	case MoveExchange:
		a, b := out.At(m.Nurse, m.Day), out.At(m.Nurse, m.Day2)
		out.Set(m.Nurse, m.Day, b)
		out.Set(m.Nurse, m.Day2, a)
	}
}

// Mode 评估该移动时使用的惩罚模式，Change 没有专用模式
func (m Move) Mode() (penalty.Mode, bool) {
	switch m.Type {
	case MoveSwap:
		return penalty.ModeSwap, true
	case MoveBlockSwap:
		return penalty.ModeBlockSwap, true
	case MoveExchange:
		return penalty.ModeExchange, true
	}
	return penalty.Mode{}, false
}

// Key 禁忌表使用的移动哈希 (FNV-1a)
func (m Move) Key() uint64 {
	h := fnv.New64a()
	h.Write([]byte{
		byte(m.Type),
		byte(m.Nurse), byte(m.Nurse >> 8),
		byte(m.Nurse2), byte(m.Nurse2 >> 8),
		byte(m.Day), byte(m.Day2),
		byte(m.Assign.Shift), byte(m.Assign.Skill),
	})
	return h.Sum64()
}

// NeighborhoodGenerator 邻域生成器
type NeighborhoodGenerator struct {
	rng         *rand.Rand
	input       *model.Input
	moveWeights [len(moveTypeNames)]float64
	skills      [][]model.SkillID
}

// NewNeighborhoodGenerator 创建邻域生成器，rng 由调用方提供以保证可复现
func NewNeighborhoodGenerator(in *model.Input, rng *rand.Rand) *NeighborhoodGenerator {
	g := &NeighborhoodGenerator{
		rng:   rng,
		input: in,
		moveWeights: [len(moveTypeNames)]float64{
			MoveChange:    0.40, // 40% 修改
			MoveSwap:      0.30, // 30% 交换
			MoveBlockSwap: 0.15, // 15% 块交换
			MoveExchange:  0.15, // 15% 自换
		},
		skills: nurseSkills(in),
	}
	return g
}

// SetMoveWeights 设置各移动类型的选择概率，权重按顺序对应 MoveType
func (g *NeighborhoodGenerator) SetMoveWeights(weights map[MoveType]float64) {
	for t := range g.moveWeights {
		g.moveWeights[t] = weights[MoveType(t)]
	}
}

// Generate 针对当前方案生成一个移动，生成失败时返回 false
func (g *NeighborhoodGenerator) Generate(current *model.Output) (Move, bool) {
	if g.input.NurseNum() == 0 {
		return Move{}, false
	}
	switch g.selectMoveType() {
	case MoveSwap:
		return g.generateSwap(current)
	case MoveBlockSwap:
		return g.generateBlockSwap(current)
	case MoveExchange:
		return g.generateExchange(current)
	default:
		return g.generateChange(current)
	}
}

// selectMoveType 按权重选择移动类型，累加顺序固定以保证同一种子结果一致
func (g *NeighborhoodGenerator) selectMoveType() MoveType {
	total := 0.0
	for _, w := range g.moveWeights {
		total += w
	}
	if total <= 0 {
		return MoveChange
	}

	r := g.rng.Float64() * total
	cumulative := 0.0
	for t, w := range g.moveWeights {
		cumulative += w
		if r < cumulative {
			return MoveType(t)
		}
	}
	return MoveChange
}

func (g *NeighborhoodGenerator) randomNurse() model.NurseID {
	return model.NurseID(g.rng.Intn(g.input.NurseNum()))
}

func (g *NeighborhoodGenerator) randomDay() model.Weekday {
	return model.Mon + model.Weekday(g.rng.Intn(model.WeekdayNum))
}

// otherNurse 随机选另一名护士，只有一名护士时返回 false
func (g *NeighborhoodGenerator) otherNurse(n model.NurseID) (model.NurseID, bool) {
	num := g.input.NurseNum()
	if num < 2 {
		return model.NurseNone, false
	}
	other := model.NurseID(g.rng.Intn(num - 1))
	if other >= n {
		other++
	}
	return other, true
}

// generateChange 随机改为休息或护士具备技能的某个班次
func (g *NeighborhoodGenerator) generateChange(current *model.Output) (Move, bool) {
	n := g.randomNurse()
	d := g.randomDay()

	var assign model.Assign
	skills := g.skills[n]
	shift := model.ShiftID(g.rng.Intn(g.input.Scenario.ShiftTypeNum + 1))
	if shift != model.ShiftNone && len(skills) > 0 {
		assign = model.Assign{Shift: shift, Skill: skills[g.rng.Intn(len(skills))]}
	}
	if assign == current.At(n, d) {
		return Move{}, false
	}
	return Move{Type: MoveChange, Nurse: n, Day: d, Assign: assign}, true
}

// generateSwap 交换同一天的分配，当天人数表不变
func (g *NeighborhoodGenerator) generateSwap(current *model.Output) (Move, bool) {
	n := g.randomNurse()
	n2, ok := g.otherNurse(n)
	if !ok {
		return Move{}, false
	}
	d := g.randomDay()
	if current.At(n, d) == current.At(n2, d) {
		return Move{}, false
	}
	return Move{Type: MoveSwap, Nurse: n, Nurse2: n2, Day: d}, true
}

// generateBlockSwap 交换至少两天的连续区间，要求换后技能与区间边界的接续都合法
func (g *NeighborhoodGenerator) generateBlockSwap(current *model.Output) (Move, bool) {
	n := g.randomNurse()
	n2, ok := g.otherNurse(n)
	if !ok {
		return Move{}, false
	}
	start := model.Mon + model.Weekday(g.rng.Intn(model.WeekdayNum-1))
	end := start + 1 + model.Weekday(g.rng.Intn(int(model.Sun-start)))

	mv := Move{Type: MoveBlockSwap, Nurse: n, Nurse2: n2, Day: start, Day2: end}
	scratch := current.Clone()
	mv.Apply(scratch)
	for _, nurse := range []model.NurseID{n, n2} {
		if !skillsLegal(g.input, scratch, nurse, start, end) ||
			!successionLegal(g.input, scratch, nurse, start, start) ||
			!successionLegal(g.input, scratch, nurse, end+1, end+1) {
			return Move{}, false
		}
	}
	return mv, true
}

// generateExchange 交换同一护士两天的分配，要求换后相关天的接续合法
func (g *NeighborhoodGenerator) generateExchange(current *model.Output) (Move, bool) {
	n := g.randomNurse()
	d := g.randomDay()
	d2 := model.Mon + model.Weekday(g.rng.Intn(model.WeekdayNum-1))
	if d2 >= d {
		d2++
	}
	if d2 < d {
		d, d2 = d2, d
	}
	if current.At(n, d) == current.At(n, d2) {
		return Move{}, false
	}

	mv := Move{Type: MoveExchange, Nurse: n, Day: d, Day2: d2}
	scratch := current.Clone()
	mv.Apply(scratch)
	if !successionLegal(g.input, scratch, n, d, d+1) || !successionLegal(g.input, scratch, n, d2, d2+1) {
		return Move{}, false
	}
	return mv, true
}

// nurseSkills 每名护士具备的技能列表
func nurseSkills(in *model.Input) [][]model.SkillID {
	skills := make([][]model.SkillID, in.NurseNum())
	for n := range skills {
		for k := model.SkillBegin; int(k) < in.Scenario.SkillSize(); k++ {
			if in.Scenario.Nurses[n].HasSkill(k) {
				skills[n] = append(skills[n], k)
			}
		}
	}
	return skills
}

// successionLegal 检查 from..to 每天与前一天的接续，周一与历史中的最后班次比较
func successionLegal(in *model.Input, out *model.Output, n model.NurseID, from, to model.Weekday) bool {
	from = max(from, model.Mon)
	to = min(to, model.Sun)
	for d := from; d <= to; d++ {
		prev := in.History.LastShifts[n]
		if d > model.Mon {
			prev = out.At(n, d-1).Shift
		}
		cur := out.At(n, d).Shift
		if prev == model.ShiftNone || cur == model.ShiftNone {
			continue
		}
		if !in.Scenario.LegalNextShifts.Legal(prev, cur) {
			return false
		}
	}
	return true
}

// skillsLegal 检查 from..to 每天的分配技能护士都具备
func skillsLegal(in *model.Input, out *model.Output, n model.NurseID, from, to model.Weekday) bool {
	for d := from; d <= to; d++ {
		a := out.At(n, d)
		if a.IsWorking() && !in.Scenario.Nurses[n].HasSkill(a.Skill) {
			return false
		}
	}
	return true
}
