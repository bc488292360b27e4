package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"sprintanalyzer/internal/calculator"
	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/validator"
)

// 环境变量覆盖
const (
	EnvDataDir  = "SPRINTANALYZER_DATA_DIR"
	EnvLogLevel = "SPRINTANALYZER_LOG_LEVEL"
)

// AppConfig 应用配置
type AppConfig struct {
	Server     ServerConfig       `toml:"server"`
	Data       DataConfig         `toml:"data"`
	Log        LogConfig          `toml:"log"`
	Layout     layout.Layout      `toml:"layout"`
	Validation validator.Rules    `toml:"validation"`
	KPI        calculator.Weights `toml:"kpi"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
	// 上传文件大小上限（MB）
	MaxUploadMB int64 `toml:"max_upload_mb"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	// 运行记录与历史指标是否写入 SQLite
	RecordRuns bool `toml:"record_runs"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`  // debug / info / warn / error
	Format string `toml:"format"` // console / json
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			MaxUploadMB: 50,
		},
		Data: DataConfig{
			DataDir:    "data",
			RecordRuns: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Layout:     *layout.Default(),
		Validation: validator.DefaultRules(),
		KPI:        calculator.DefaultWeights(),
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从默认位置加载配置；文件不存在时使用默认配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return load(DefaultConfigPath(), false)
}

// LoadFromFile 从指定文件加载配置；文件必须存在
func LoadFromFile(path string) (*AppConfig, LoadConfigInfo, error) {
	return load(path, true)
}

// Load path 为空时等同 LoadConfigWithInfo
func Load(path string) (*AppConfig, LoadConfigInfo, error) {
	if strings.TrimSpace(path) == "" {
		return LoadConfigWithInfo()
	}
	return LoadFromFile(path)
}

func load(path string, required bool) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			applyEnv(config)
			return config, info, config.Validate()
		}
		return nil, info, fmt.Errorf("read config %s: %w", path, err)
	}
	info.Found = true
	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, info, fmt.Errorf("config %s: %w", path, err)
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于 E2E / 本地运行）
func applyEnv(config *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.Log.Level = v
	}
}

// Validate 校验配置（版式、阈值、权重）
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Layout.Validate(); err != nil {
		errs = append(errs, err)
	}

	v := c.Validation
	if v.MaxMissingRequiredRate < 0 || v.MaxMissingRequiredRate > 1 {
		errs = append(errs, fmt.Errorf("validation.max_missing_required_rate must be within [0, 1], got %v", v.MaxMissingRequiredRate))
	}
	if v.MaxMissingAssignee < 0 {
		errs = append(errs, fmt.Errorf("validation.max_missing_assignee must not be negative"))
	}

	k := c.KPI
	if k.Completion < 0 || k.Utilization < 0 || k.Quality < 0 {
		errs = append(errs, errors.New("kpi weights must not be negative"))
	}
	if k.Completion+k.Utilization+k.Quality == 0 {
		errs = append(errs, errors.New("at least one kpi weight must be positive"))
	}
	if k.UtilizationCap < 0 {
		errs = append(errs, errors.New("kpi.utilization_cap must not be negative"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 相对路径以可执行文件目录为基准
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 上传的工作簿与分析结果
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// DatabasePath SQLite 文件路径
func DatabasePath(config *AppConfig) string {
	return filepath.Join(ResolveDataDir(config), "sprintanalyzer.db")
}
