package config

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	// EnvDataDir 数据目录环境变量名
	EnvDataDir = "DOCCHAT_DATA_DIR"
	// DefaultDataDirName 默认数据目录名
	DefaultDataDirName = ".docchat"
)

var (
	dataDirOnce sync.Once
	dataDirPath string
)

// GetDataDir 获取数据根目录
// 优先读取 DOCCHAT_DATA_DIR 环境变量，默认 ~/.docchat/
// 所有数据路径统一经此函数获取，禁止直接拼接 homeDir
func GetDataDir() string {
	dataDirOnce.Do(func() {
		if dir := os.Getenv(EnvDataDir); dir != "" {
			dataDirPath = dir
			return
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// 无法定位 home 目录时退回当前目录
			dataDirPath = DefaultDataDirName
			return
		}
		dataDirPath = filepath.Join(homeDir, DefaultDataDirName)
	})
	return dataDirPath
}
