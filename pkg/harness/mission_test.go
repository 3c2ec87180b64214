package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/paiban/nrp/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseInstance(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    InstanceSpec
		wantErr bool
	}{
		{
			name:  "标准格式",
			input: "n005w4 1 6-2-9-1",
			want: InstanceSpec{
				Raw: "n005w4 1 6-2-9-1", Scenario: "n005w4",
				InitHistory: 1, Weeks: []int{6, 2, 9, 1}, NurseNum: 5,
			},
		},
		{
			name:  "多余空白",
			input: "  n120w8   0  0-1-2-3-4-5-6-7 ",
			want: InstanceSpec{
				Raw: "  n120w8   0  0-1-2-3-4-5-6-7 ", Scenario: "n120w8",
				InitHistory: 0, Weeks: []int{0, 1, 2, 3, 4, 5, 6, 7}, NurseNum: 120,
			},
		},
		{name: "字段不足", input: "n005w4 1", wantErr: true},
		{name: "场景名不合法", input: "abc 1 0-1", wantErr: true},
		{name: "历史编号为负", input: "n005w2 -1 0-1", wantErr: true},
		{name: "周数据编号不合法", input: "n005w2 0 0-x", wantErr: true},
		{name: "周数与场景不符", input: "n005w4 0 0-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInstance(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.CodeInvalidMission))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstanceSpec_String(t *testing.T) {
	spec, err := ParseInstance("n005w4 1 6-2-9-1")
	require.NoError(t, err)
	assert.Equal(t, "n005w4_1_6-2-9-1", spec.String())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const missionJSON = `{
  "thread_num": 2,
  "repeat": 3,
  "instances": ["n005w4 1 6-2-9-1", "n030w4 0 0-1-2-3"],
  "timeouts": {"5": 10, "30": 30.5},
  "instance_dir": "testdata",
  "output_dir": "output",
  "algorithm": "greedy",
  "seed": 7
}`

const missionYAML = `
thread_num: 4
repeat: 0
instances:
  - n005w4 1 6-2-9-1
timeouts:
  "5": 1.5
instance_dir: testdata
output_dir: output
`

func TestLoadMission(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		m, err := LoadMission(writeFile(t, "mission.json", missionJSON))
		require.NoError(t, err)

		assert.Equal(t, 2, m.ThreadNum)
		assert.Equal(t, 3, m.Repeat)
		assert.Equal(t, "greedy", m.Algorithm)
		assert.Equal(t, int64(7), m.Seed)
		require.Len(t, m.Specs(), 2)
		assert.Equal(t, 30, m.Specs()[1].NurseNum)
		assert.Equal(t, 30500*time.Millisecond, m.Timeout(30))
	})

	t.Run("YAML", func(t *testing.T) {
		m, err := LoadMission(writeFile(t, "mission.yaml", missionYAML))
		require.NoError(t, err)

		assert.Equal(t, 4, m.ThreadNum)
		assert.Equal(t, 0, m.Repeat)
		assert.Equal(t, 1500*time.Millisecond, m.Timeout(5))
	})

	t.Run("环境变量覆盖", func(t *testing.T) {
		t.Setenv("NRP_MISSION_THREAD_NUM", "9")
		t.Setenv("NRP_MISSION_OUTPUT_DIR", "/tmp/elsewhere")

		m, err := LoadMission(writeFile(t, "mission.json", missionJSON))
		require.NoError(t, err)
		assert.Equal(t, 9, m.ThreadNum)
		assert.Equal(t, "/tmp/elsewhere", m.OutputDir)
	})

	t.Run("不支持的格式", func(t *testing.T) {
		_, err := LoadMission(writeFile(t, "mission.toml", "repeat = 1"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.CodeInvalidMission))
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadMission(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.CodeInvalidMission))
	})
}

func TestMission_Validate(t *testing.T) {
	valid := func() *Mission {
		return &Mission{
			Repeat:      1,
			Instances:   []string{"n005w2 0 0-1"},
			Timeouts:    map[int]float64{5: 1},
			InstanceDir: "in",
			OutputDir:   "out",
		}
	}

	tests := []struct {
		name    string
		modify  func(m *Mission)
		wantErr bool
	}{
		{name: "合法", modify: func(m *Mission) {}},
		{name: "没有实例", modify: func(m *Mission) { m.Instances = nil }, wantErr: true},
		{name: "缺少时间预算", modify: func(m *Mission) { m.Timeouts = map[int]float64{30: 1} }, wantErr: true},
		{name: "时间预算非正", modify: func(m *Mission) { m.Timeouts[5] = 0 }, wantErr: true},
		{name: "并发数为负", modify: func(m *Mission) { m.ThreadNum = -1 }, wantErr: true},
		{name: "未知算法", modify: func(m *Mission) { m.Algorithm = "genetic" }, wantErr: true},
		{name: "缺少输出目录", modify: func(m *Mission) { m.OutputDir = "" }, wantErr: true},
		{name: "实例不合法", modify: func(m *Mission) { m.Instances = []string{"n005w2 0 0"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.modify(m)
			err := m.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.CodeInvalidMission))
				return
			}
			require.NoError(t, err)
			assert.Len(t, m.Specs(), 1)
		})
	}
}
