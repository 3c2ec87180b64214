package solver

import (
	"math/rand"

	"github.com/paiban/nrp/pkg/model"
)

// Tracker 保留目前见过的最优单周方案
type Tracker struct {
	rng          *rand.Rand
	useSecondary bool
	best         *model.Output
	genCount     int
}

// NewTracker 创建最优解跟踪器
// rng 必须是本次运行独占的随机源，平局时用于等概率替换
func NewTracker(rng *rand.Rand, useSecondary bool) *Tracker {
	return &Tracker{rng: rng, useSecondary: useSecondary}
}

// Consider 比较候选解，成为新的最优解时返回 true
// 目标值更小时替换；相等时若启用次目标则比较次目标，次目标也相等（或未启用）时以 1/2 概率替换
func (t *Tracker) Consider(candidate *model.Output) bool {
	if t.best == nil {
		t.best = candidate.Clone()
		t.genCount++
		return true
	}

	replace := false
	switch {
	case candidate.ObjValue < t.best.ObjValue:
		replace = true
	case candidate.ObjValue == t.best.ObjValue:
		if t.useSecondary && candidate.SecondaryObjValue != t.best.SecondaryObjValue {
			replace = candidate.SecondaryObjValue < t.best.SecondaryObjValue
		} else {
			replace = t.rng.Intn(2) == 0
		}
	}

	if replace {
		t.best.CopyFrom(candidate)
		t.genCount++
	}
	return replace
}

// Best 返回当前最优解，尚无候选时为 nil
func (t *Tracker) Best() *model.Output { return t.best }

// GenCount 最优解被替换的次数
func (t *Tracker) GenCount() int { return t.genCount }

// WorkloadSpread 次目标：本周各护士分配数的离散程度 N·Σa² - (Σa)²
// 等于 N² 倍的总体方差，越小越均衡
func WorkloadSpread(out *model.Output) model.ObjValue {
	n := model.ObjValue(out.NurseNum())
	var sum, sumSq model.ObjValue
	for i := model.NurseBegin; int(i) < out.NurseNum(); i++ {
		a := model.ObjValue(out.AssignNum(i))
		sum += a
		sumSq += a * a
	}
	return n*sumSq - sum*sum
}
