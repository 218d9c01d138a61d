package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Engine: EngineConfig{
			NodeBudget: 200000, CountCap: 500, RankWindow: 100,
			DefaultLimit: 5, MaxLimit: 100, SimilarLimit: 5, SampleAttempts: 200,
		},
		Registration: RegistrationConfig{MinCredits: 16, MaxCredits: 27},
		RateLimit:    RateLimitConfig{Enabled: true, Requests: 30, Window: time.Minute},
		Export:       ExportConfig{Timezone: "UTC", Weeks: 16},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("默认配置应通过校验: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }},
		{"节点预算为零", func(c *Config) { c.Engine.NodeBudget = 0 }},
		{"计数上限为负", func(c *Config) { c.Engine.CountCap = -1 }},
		{"默认条数大于最大条数", func(c *Config) { c.Engine.DefaultLimit = 200 }},
		{"学分上限小于下限", func(c *Config) { c.Registration.MaxCredits = 10 }},
		{"启用限流但窗口为零", func(c *Config) { c.RateLimit.Window = 0 }},
		{"导出周数越界", func(c *Config) { c.Export.Weeks = 60 }},
		{"导出时区无效", func(c *Config) { c.Export.Timezone = "Mars/Olympus" }},
	}
	for _, tc := range cases {
		c := validConfig()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: 期望校验失败", tc.name)
		}
	}
}

func TestValidate_RateLimitDisabledIgnoresWindow(t *testing.T) {
	c := validConfig()
	c.RateLimit = RateLimitConfig{Enabled: false}
	if err := c.Validate(); err != nil {
		t.Errorf("关闭限流时不应校验窗口: %v", err)
	}
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("PLANNER_ENGINE_COUNT_CAP", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("无配置文件时应使用默认值: %v", err)
	}
	if cfg.Engine.NodeBudget != 200000 {
		t.Errorf("期望 node_budget=200000，实际=%d", cfg.Engine.NodeBudget)
	}
	if cfg.Engine.CountCap != 42 {
		t.Errorf("环境变量应覆盖 count_cap，实际=%d", cfg.Engine.CountCap)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("期望限流窗口 1m，实际=%v", cfg.RateLimit.Window)
	}
	if cfg.Registration.MaxCredits != 27 {
		t.Errorf("期望 max_credits=27，实际=%d", cfg.Registration.MaxCredits)
	}
}
