// NRP 滚动周期护士排班求解器
// 主程序入口

package main

import (
	"os"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
