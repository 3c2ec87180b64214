// Package harness 批量调度滚动周期求解
package harness

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/paiban/nrp/pkg/errors"
)

// EnvPrefix 覆盖任务字段的环境变量前缀，例如 NRP_MISSION_THREAD_NUM
const EnvPrefix = "NRP_MISSION_"

// Mission 批量任务描述
type Mission struct {
	// ThreadNum 并发上限，0 表示使用 CPU 数
	ThreadNum int `json:"thread_num" validate:"gte=0"`

	// Repeat 每个实例重复次数，0 表示无限循环
	Repeat int `json:"repeat" validate:"gte=0"`

	// Instances 形如 "n005w4 1 6-2-9-1" 的实例序列
	Instances []string `json:"instances" validate:"required,min=1,dive,required"`

	// Timeouts 护士数量到单周时间预算（秒）的映射
	Timeouts map[int]float64 `json:"timeouts" validate:"required,dive,gt=0"`

	InstanceDir   string `json:"instance_dir" validate:"required"`
	OutputDir     string `json:"output_dir" validate:"required"`
	LogFile       string `json:"log_file"`
	Config        string `json:"config"`
	Algorithm     string `json:"algorithm" validate:"omitempty,oneof=greedy local_search"`
	MaxIterations int64  `json:"max_iterations" validate:"gte=0"`
	Seed          int64  `json:"seed"`

	instances []InstanceSpec
}

var validate = validator.New()

// LoadMission 读取 JSON 或 YAML 任务文件，再用 NRP_MISSION_ 环境变量覆盖
func LoadMission(path string) (*Mission, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, apperrors.New(apperrors.CodeInvalidMission, fmt.Sprintf("不支持的任务文件格式: %s", path))
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidMission, "读取任务文件失败")
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidMission, "读取环境变量失败")
	}

	var m Mission
	if err := k.UnmarshalWithConf("", &m, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidMission, "解析任务文件失败")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate 校验字段并解析全部实例，每个实例的护士数量都必须有时间预算
func (m *Mission) Validate() error {
	if err := validate.Struct(m); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidMission, "任务描述不合法")
	}

	specs := make([]InstanceSpec, 0, len(m.Instances))
	for _, s := range m.Instances {
		spec, err := ParseInstance(s)
		if err != nil {
			return err
		}
		if _, ok := m.Timeouts[spec.NurseNum]; !ok {
			return apperrors.New(apperrors.CodeInvalidMission,
				fmt.Sprintf("缺少 %d 名护士的时间预算", spec.NurseNum)).
				WithField("instance", s)
		}
		specs = append(specs, spec)
	}
	m.instances = specs
	return nil
}

// Specs 返回解析后的实例序列，需先调用 Validate
func (m *Mission) Specs() []InstanceSpec { return m.instances }

// Timeout 单周时间预算
func (m *Mission) Timeout(nurseNum int) time.Duration {
	return time.Duration(m.Timeouts[nurseNum] * float64(time.Second))
}

// InstanceSpec 一个实例序列：场景、初始历史编号与各周数据编号
type InstanceSpec struct {
	Raw         string
	Scenario    string
	InitHistory int
	Weeks       []int
	NurseNum    int
}

// String 规范化的实例描述，用作日志中的 Instance 列
func (s InstanceSpec) String() string {
	weeks := make([]string, len(s.Weeks))
	for i, w := range s.Weeks {
		weeks[i] = strconv.Itoa(w)
	}
	return fmt.Sprintf("%s_%d_%s", s.Scenario, s.InitHistory, strings.Join(weeks, "-"))
}

var scenarioNamePattern = regexp.MustCompile(`^n0*(\d+)w(\d+)$`)

// ParseInstance 解析 "<场景> <初始历史编号> <w1-w2-...>"
func ParseInstance(s string) (InstanceSpec, error) {
	invalid := func(reason string) error {
		return apperrors.New(apperrors.CodeInvalidMission, "实例描述不合法: "+reason).WithField("instance", s)
	}

	fields := strings.Fields(s)
	if len(fields) != 3 {
		return InstanceSpec{}, invalid("需要三个字段")
	}

	spec := InstanceSpec{Raw: s, Scenario: fields[0]}
	m := scenarioNamePattern.FindStringSubmatch(spec.Scenario)
	if m == nil {
		return InstanceSpec{}, invalid("场景名应形如 n005w4")
	}
	spec.NurseNum, _ = strconv.Atoi(m[1])
	weekNum, _ := strconv.Atoi(m[2])

	h, err := strconv.Atoi(fields[1])
	if err != nil || h < 0 {
		return InstanceSpec{}, invalid("初始历史编号应为非负整数")
	}
	spec.InitHistory = h

	for _, w := range strings.Split(fields[2], "-") {
		idx, err := strconv.Atoi(w)
		if err != nil || idx < 0 {
			return InstanceSpec{}, invalid("周数据编号应为非负整数")
		}
		spec.Weeks = append(spec.Weeks, idx)
	}
	if len(spec.Weeks) != weekNum {
		return InstanceSpec{}, invalid(fmt.Sprintf("场景共 %d 周，给出了 %d 周", weekNum, len(spec.Weeks)))
	}
	return spec, nil
}
