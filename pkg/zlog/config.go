package zlog

import "fmt"

// FileConfig 本地日志文件轮转策略
type FileConfig struct {
	Path       string `mapstructure:"path"`        // 日志文件路径，空则不写文件
	MaxSizeMB  int    `mapstructure:"max_size"`    // 单个文件最大容量（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留旧文件数量
	MaxAgeDay  int    `mapstructure:"max_age"`     // 最长保存天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧日志
}

// Config 日志配置，由应用配置的 log 段反序列化而来
type Config struct {
	Service      string     `mapstructure:"service"`       // 归属服务名
	Level        string     `mapstructure:"level"`         // debug|info|warn|error
	Encoding     string     `mapstructure:"encoding"`      // json|console
	Stdout       bool       `mapstructure:"stdout"`        // 是否同时输出到控制台
	File         FileConfig `mapstructure:"file"`          // 文件输出配置
	EnableMetric bool       `mapstructure:"enable_metric"` // 是否统计 Prometheus 指标
}

// ApplyDefaults 填充未设置的字段
func (c *Config) ApplyDefaults() {
	if c.Service == "" {
		c.Service = "statushub"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Encoding == "" {
		c.Encoding = "json"
	}
	if c.File.Path != "" {
		if c.File.MaxSizeMB <= 0 {
			c.File.MaxSizeMB = 100
		}
		if c.File.MaxBackups < 0 {
			c.File.MaxBackups = 30
		}
		if c.File.MaxAgeDay < 0 {
			c.File.MaxAgeDay = 30
		}
	}
}

// Validate 严格校验，启动期失败直接退出
func (c *Config) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level 只能是 debug/info/warn/error，当前为 %q", c.Level)
	}

	switch c.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log.encoding 只能是 json/console，当前为 %q", c.Encoding)
	}

	if !c.Stdout && c.File.Path == "" {
		return fmt.Errorf("log.stdout 为 false 时 log.file.path 不能为空")
	}
	return nil
}
