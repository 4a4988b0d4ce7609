package config

import (
	"os"
	"path/filepath"

	"schema-matcher/internal/errs"
	"schema-matcher/internal/logger"

	"go.yaml.in/yaml/v3"
)

// Scenario 一个匹配场景：源模式、目标模式和标准答案
type Scenario struct {
	Name        string `yaml:"name"`
	Source      string `yaml:"source"`
	Target      string `yaml:"target"`
	GroundTruth string `yaml:"ground_truth"`
}

// Tuning 调参服务地址
type Tuning struct {
	Address string `yaml:"address"`
}

// Config 运行配置
type Config struct {
	Log       logger.Config `yaml:"log"`
	Matcher   Parameters    `yaml:"matcher"`
	Tuning    Tuning        `yaml:"tuning"`
	Scenarios []Scenario    `yaml:"scenarios"`
}

// Default 默认运行配置
func Default() *Config {
	return &Config{
		Log:     *logger.DefaultConfig(),
		Matcher: DefaultParameters(),
		Tuning:  Tuning{Address: "localhost:5000"},
	}
}

// Load 读取 YAML 运行配置；未填写的字段保持默认值，相对路径以配置文件所在目录为基准
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "read config file", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config file", err)
	}
	if err := cfg.Matcher.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range cfg.Scenarios {
		sc := &cfg.Scenarios[i]
		if sc.Source == "" || sc.Target == "" {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "scenario %q: source and target are required", sc.Name)
		}
		sc.Source = resolve(dir, sc.Source)
		sc.Target = resolve(dir, sc.Target)
		sc.GroundTruth = resolve(dir, sc.GroundTruth)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
