package instance

import (
	"fmt"

	apperrors "github.com/paiban/nrp/pkg/errors"
	"github.com/paiban/nrp/pkg/model"
)

// Compile 按 场景 → 周数据 → 历史 的顺序编译原始实例
// 周数据或历史引用了场景中不存在的名称时返回 LOOKUP_FAILED 错误
func Compile(rs *RawScenario, rw *RawWeekdata, rh *RawHistory) (*model.Input, error) {
	in := &model.Input{}
	if err := CompileScenario(rs, &in.Scenario, &in.Names); err != nil {
		return nil, err
	}
	if err := CompileWeekdata(rw, &in.Scenario, &in.Names, &in.Weekdata); err != nil {
		return nil, err
	}
	if err := CompileHistory(rh, &in.Scenario, &in.Names, &in.History); err != nil {
		return nil, err
	}
	return in, nil
}

// CompileScenario 编译场景并建立全部编号空间
func CompileScenario(rs *RawScenario, sc *model.ScenarioInfo, names *model.NameInfo) error {
	if rs == nil {
		return apperrors.InvalidInput("scenario", "为空")
	}
	if len(rs.Skills) > model.MaxSkillNum {
		return apperrors.InvalidInput("skills", fmt.Sprintf("技能数量 %d 超过上限 %d", len(rs.Skills), model.MaxSkillNum))
	}
	if rs.NumberOfWeeks <= 0 {
		return apperrors.InvalidInput("numberOfWeeks", "必须为正数")
	}

	*names = model.NameInfo{
		ScenarioName: rs.ID,
		ShiftNames:   []string{NameNone},
		ShiftMap:     map[string]model.ShiftID{NameNone: model.ShiftNone},
		SkillNames:   []string{NameNone},
		SkillMap:     make(map[string]model.SkillID, len(rs.Skills)),
		NurseNames:   make([]string, 0, len(rs.Nurses)),
		NurseMap:     make(map[string]model.NurseID, len(rs.Nurses)),
		ContractMap:  make(map[string]model.ContractID, len(rs.Contracts)),
	}
	*sc = model.ScenarioInfo{
		TotalWeekNum: rs.NumberOfWeeks,
		ShiftTypeNum: len(rs.ShiftTypes),
		SkillTypeNum: len(rs.Skills),
		NurseNum:     len(rs.Nurses),
	}

	for i, name := range rs.Skills {
		id := model.SkillBegin + model.SkillID(i)
		names.SkillNames = append(names.SkillNames, name)
		names.SkillMap[name] = id
	}

	sc.Shifts = make([]model.ShiftInfo, sc.ShiftSize())
	for i, st := range rs.ShiftTypes {
		id := model.ShiftBegin + model.ShiftID(i)
		names.ShiftNames = append(names.ShiftNames, st.ID)
		names.ShiftMap[st.ID] = id
		sc.Shifts[id] = model.ShiftInfo{
			MinConsecutiveShiftNum: st.MinimumNumberOfConsecutiveAssignments,
			MaxConsecutiveShiftNum: st.MaximumNumberOfConsecutiveAssignments,
		}
	}

	// 默认任意接续合法，再清除禁止项；ShiftNone 行保持全部合法
	sc.LegalNextShifts = model.NewSuccessionTable(sc.ShiftSize())
	for _, fs := range rs.ForbiddenShiftTypeSuccessions {
		prev, ok := names.ShiftMap[fs.PrecedingShiftType]
		if !ok {
			return apperrors.LookupFailed("班次", fs.PrecedingShiftType)
		}
		for _, nextName := range fs.SucceedingShiftTypes {
			next, ok := names.ShiftMap[nextName]
			if !ok {
				return apperrors.LookupFailed("班次", nextName)
			}
			if prev == model.ShiftNone || next == model.ShiftNone {
				continue
			}
			sc.LegalNextShifts.Forbid(prev, next)
		}
	}

	sc.Contracts = make([]model.ContractInfo, len(rs.Contracts))
	for i, c := range rs.Contracts {
		id := model.ContractBegin + model.ContractID(i)
		names.ContractNames = append(names.ContractNames, c.ID)
		names.ContractMap[c.ID] = id
		sc.Contracts[id] = model.ContractInfo{
			MinShiftNum:             c.MinimumNumberOfAssignments,
			MaxShiftNum:             c.MaximumNumberOfAssignments,
			MaxWorkingWeekendNum:    c.MaximumNumberOfWorkingWeekends,
			CompleteWeekend:         c.CompleteWeekends != 0,
			MinConsecutiveDayNum:    c.MinimumNumberOfConsecutiveWorkingDays,
			MaxConsecutiveDayNum:    c.MaximumNumberOfConsecutiveWorkingDays,
			MinConsecutiveDayoffNum: c.MinimumNumberOfConsecutiveDaysOff,
			MaxConsecutiveDayoffNum: c.MaximumNumberOfConsecutiveDaysOff,
		}
	}

	sc.Nurses = make([]model.NurseInfo, len(rs.Nurses))
	for i, n := range rs.Nurses {
		id := model.NurseBegin + model.NurseID(i)
		contract, ok := names.ContractMap[n.Contract]
		if !ok {
			return apperrors.LookupFailed("合同", n.Contract)
		}
		var skills model.SkillSet
		for _, skillName := range n.Skills {
			skill, ok := names.SkillMap[skillName]
			if !ok {
				return apperrors.LookupFailed("技能", skillName)
			}
			skills = skills.Add(skill)
		}
		names.NurseNames = append(names.NurseNames, n.ID)
		names.NurseMap[n.ID] = id
		sc.Nurses[id] = model.NurseInfo{Contract: contract, Skills: skills}
		sc.Contracts[contract].Nurses = append(sc.Contracts[contract].Nurses, id)
	}

	return nil
}

// CompileWeekdata 编译周数据，依赖场景的编号映射
func CompileWeekdata(rw *RawWeekdata, sc *model.ScenarioInfo, names *model.NameInfo, wd *model.WeekdataInfo) error {
	if rw == nil {
		return apperrors.InvalidInput("weekdata", "为空")
	}
	*wd = model.NewWeekdataInfo(sc.NurseNum, sc.ShiftSize(), sc.SkillSize())

	for i := range rw.Requirements {
		req := &rw.Requirements[i]
		shift, ok := names.ShiftMap[req.ShiftType]
		if !ok {
			return apperrors.LookupFailed("班次", req.ShiftType)
		}
		skill, ok := names.SkillMap[req.Skill]
		if !ok {
			return apperrors.LookupFailed("技能", req.Skill)
		}
		for d := model.Mon; d <= model.Sun; d++ {
			staffing := req.Day(d)
			wd.MinNurseNums.Set(d, shift, skill, staffing.Minimum)
			wd.OptNurseNums.Set(d, shift, skill, staffing.Optimal)
		}
	}

	for _, off := range rw.ShiftOffRequests {
		nurse, ok := names.NurseMap[off.Nurse]
		if !ok {
			return apperrors.LookupFailed("护士", off.Nurse)
		}
		day, ok := model.ParseWeekday(off.Day)
		if !ok {
			return apperrors.LookupFailed("星期", off.Day)
		}
		shift := model.ShiftAny
		if off.ShiftType != NameAny {
			if shift, ok = names.ShiftMap[off.ShiftType]; !ok {
				return apperrors.LookupFailed("班次", off.ShiftType)
			}
			if shift == model.ShiftNone {
				continue
			}
		}
		wd.SetShiftOff(nurse, day, shift)
	}

	return nil
}

// CompileHistory 编译历史，依赖场景的编号映射
func CompileHistory(rh *RawHistory, sc *model.ScenarioInfo, names *model.NameInfo, h *model.HistoryInfo) error {
	if rh == nil {
		return apperrors.InvalidInput("history", "为空")
	}
	if rh.Week < 0 || rh.Week > sc.TotalWeekNum {
		return apperrors.InvalidInput("week", fmt.Sprintf("已完成周数 %d 超出范围 [0, %d]", rh.Week, sc.TotalWeekNum))
	}

	*h = model.NewHistoryInfo(sc.NurseNum, sc.TotalWeekNum, rh.Week)
	h.AccObjValue = rh.AccObjValue

	for _, nh := range rh.NurseHistory {
		nurse, ok := names.NurseMap[nh.Nurse]
		if !ok {
			return apperrors.LookupFailed("护士", nh.Nurse)
		}
		last, ok := names.ShiftMap[nh.LastAssignedShiftType]
		if !ok {
			return apperrors.LookupFailed("班次", nh.LastAssignedShiftType)
		}
		h.TotalAssignNums[nurse] = nh.NumberOfAssignments
		h.TotalWorkingWeekendNums[nurse] = nh.NumberOfWorkingWeekends
		h.LastShifts[nurse] = last
		h.ConsecutiveShiftNums[nurse] = nh.NumberOfConsecutiveAssignments
		h.ConsecutiveDayNums[nurse] = nh.NumberOfConsecutiveWorkingDays
		h.ConsecutiveDayoffNums[nurse] = nh.NumberOfConsecutiveDaysOff
	}

	return nil
}
