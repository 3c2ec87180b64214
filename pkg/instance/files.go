package instance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/paiban/nrp/pkg/errors"
)

// ScenarioPath 场景文件路径 <dir>/<scenario>/Sc-<scenario>.json
func ScenarioPath(dir, scenario string) string {
	return filepath.Join(dir, scenario, fmt.Sprintf("Sc-%s.json", scenario))
}

// HistoryPath 初始历史文件路径 <dir>/<scenario>/H0-<scenario>-<index>.json
func HistoryPath(dir, scenario string, index int) string {
	return filepath.Join(dir, scenario, fmt.Sprintf("H0-%s-%d.json", scenario, index))
}

// WeekdataPath 周数据文件路径 <dir>/<scenario>/WD-<scenario>-<index>.json
func WeekdataPath(dir, scenario string, index int) string {
	return filepath.Join(dir, scenario, fmt.Sprintf("WD-%s-%d.json", scenario, index))
}

// ReadJSON 读取并解析 JSON 文件
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NotFound("文件", path).WithCause(err)
		}
		return apperrors.DecodeFailed(path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.DecodeFailed(path, err)
	}
	return nil
}

// WriteJSON 写出 JSON 文件，必要时创建目录
func WriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化 %s 失败: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

// LoadScenario 读取场景文件
func LoadScenario(path string) (*RawScenario, error) {
	var rs RawScenario
	if err := ReadJSON(path, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadWeekdata 读取周数据文件
func LoadWeekdata(path string) (*RawWeekdata, error) {
	var rw RawWeekdata
	if err := ReadJSON(path, &rw); err != nil {
		return nil, err
	}
	return &rw, nil
}

// LoadHistory 读取历史文件
func LoadHistory(path string) (*RawHistory, error) {
	var rh RawHistory
	if err := ReadJSON(path, &rh); err != nil {
		return nil, err
	}
	return &rh, nil
}

// LoadSolution 读取解文件
func LoadSolution(path string) (*RawSolution, error) {
	var sol RawSolution
	if err := ReadJSON(path, &sol); err != nil {
		return nil, err
	}
	return &sol, nil
}
