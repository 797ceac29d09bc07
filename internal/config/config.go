package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 题库索引配置
	Index IndexConfig `yaml:"index"`

	// 抓取配置
	Scraper ScraperConfig `yaml:"scraper"`

	// 搜索客户端配置
	Client ClientConfig `yaml:"client"`

	// 代理配置
	Proxy ProxyConfig `yaml:"proxy"`

	// MCP 配置
	MCP MCPConfig `yaml:"mcp"`

	// 浏览器配置
	Browser BrowserConfig `yaml:"browser"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int        `yaml:"port"`
	Host string     `yaml:"host"`
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Origin  string `yaml:"origin"`
}

// IndexConfig 题库索引配置
type IndexConfig struct {
	DataFile   string `yaml:"data_file"`
	MaxResults int    `yaml:"max_results"`
	Watch      bool   `yaml:"watch"`
}

// ScraperConfig 抓取配置
type ScraperConfig struct {
	Platforms       []string      `yaml:"platforms"`
	DefaultLanguage string        `yaml:"default_language"`
	RateLimit       time.Duration `yaml:"rate_limit"`
	Timeout         time.Duration `yaml:"timeout"`
	Schedule        string        `yaml:"schedule"`
	Jobs            []ScrapeJob   `yaml:"jobs"`
}

// ScrapeJob 单个抓取任务
type ScrapeJob struct {
	Platform string `yaml:"platform"`
	Topic    string `yaml:"topic"`
	Limit    int    `yaml:"limit"`
}

// ClientConfig 搜索客户端配置
type ClientConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ProxyConfig 代理配置
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// MCPConfig MCP 协议配置
type MCPConfig struct {
	// 服务器信息
	ServerName    string `yaml:"server_name"`
	ServerVersion string `yaml:"server_version"`

	// 工具名称配置
	Tools MCPToolsConfig `yaml:"tools"`
}

// MCPToolsConfig MCP 工具名称配置
type MCPToolsConfig struct {
	SearchName        string `yaml:"search_name"`
	SearchDescription string `yaml:"search_description"`
	StatsName         string `yaml:"stats_name"`
	StatsDescription  string `yaml:"stats_description"`
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Enabled  bool `yaml:"enabled"`
	Headless bool `yaml:"headless"`
}

// ValidPlatforms 支持抓取的平台列表
var ValidPlatforms = []string{"codeforces", "codechef", "leetcode", "hackerrank"}

// BrowserPlatforms 需要无头浏览器渲染的平台
var BrowserPlatforms = []string{"leetcode", "hackerrank"}

// Difficulties 前端难度下拉框的选项
var Difficulties = []string{"easy", "medium", "hard"}

// Languages 前端语言下拉框的选项
var Languages = []string{"C++", "Python", "Java"}

// DefaultConfig 默认配置
var DefaultConfig = &Config{
	Server: ServerConfig{
		Port: 5000,
		Host: "0.0.0.0",
		CORS: CORSConfig{
			Enabled: true,
			Origin:  "*",
		},
	},
	Index: IndexConfig{
		DataFile:   "data/problems.json",
		MaxResults: 5,
		Watch:      true,
	},
	Scraper: ScraperConfig{
		Platforms:       []string{},
		DefaultLanguage: "C++",
		RateLimit:       2 * time.Second,
		Timeout:         30 * time.Second,
		Schedule:        "",
		Jobs: []ScrapeJob{
			{Platform: "leetcode", Topic: "array", Limit: 20},
			{Platform: "leetcode", Topic: "string", Limit: 20},
			{Platform: "codeforces", Topic: "dp", Limit: 25},
			{Platform: "hackerrank", Topic: "algorithms", Limit: 30},
			{Platform: "codechef", Topic: "", Limit: 20},
		},
	},
	Client: ClientConfig{
		Endpoint: "http://localhost:5000/search",
		Timeout:  15 * time.Second,
	},
	Proxy: ProxyConfig{
		Enabled: false,
		URL:     "http://127.0.0.1:7890",
	},
	MCP: MCPConfig{
		ServerName:    "go-problem-search",
		ServerVersion: "1.0.0",
		Tools: MCPToolsConfig{
			SearchName:        "search_problems",
			SearchDescription: "Search scraped competitive programming problems (Codeforces, CodeChef, LeetCode, HackerRank) by keywords, optionally filtered by difficulty and language. Returns title, link, difficulty and relevance score.",
			StatsName:         "problem_stats",
			StatsDescription:  "Summarize the indexed problem catalogue by platform, topic and difficulty.",
		},
	},
	Browser: BrowserConfig{
		Enabled:  true,
		Headless: true,
	},
}

// configSearchPaths 配置文件搜索路径
var configSearchPaths = []string{
	"config.yaml",
	"config.yml",
	"configs/config.yaml",
	"configs/config.yml",
}

// Load 从 YAML 配置文件加载配置
// 支持通过 CONFIG_FILE 环境变量指定配置文件路径
func Load() *Config {
	cfg := DefaultConfig.clone()

	configPath := findConfigFile()
	if configPath == "" {
		log.Printf("⚠️ No config file found, using default configuration")
		log.Printf("💡 You can create a config.yaml file or set CONFIG_FILE environment variable")
		cfg.validate()
		cfg.Print()
		return cfg
	}

	log.Printf("📄 Loading configuration from: %s", configPath)
	data, err := os.ReadFile(configPath)
	if err != nil {
		log.Printf("⚠️ Failed to read config file: %v, using defaults", err)
		cfg.validate()
		cfg.Print()
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("⚠️ Failed to parse config file: %v, using defaults", err)
		cfg = DefaultConfig.clone()
		cfg.validate()
		cfg.Print()
		return cfg
	}

	cfg.validate()
	cfg.Print()

	return cfg
}

// LoadFromFile 从指定路径加载配置
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig.clone()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file failed: %w", err)
	}

	cfg.validate()
	return cfg, nil
}

// clone 深拷贝配置，避免 yaml 解析时改写默认配置里的切片
func (c *Config) clone() *Config {
	cp := *c
	cp.Scraper.Platforms = append([]string(nil), c.Scraper.Platforms...)
	cp.Scraper.Jobs = append([]ScrapeJob(nil), c.Scraper.Jobs...)
	return &cp
}

// findConfigFile 查找配置文件
func findConfigFile() string {
	// 优先使用环境变量指定的配置文件
	if envPath := os.Getenv("CONFIG_FILE"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		log.Printf("⚠️ CONFIG_FILE=%s not found, searching default paths", envPath)
	}

	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	workDir, _ := os.Getwd()

	searchDirs := []string{workDir}
	if execDir != "" && execDir != workDir {
		searchDirs = append(searchDirs, execDir)
	}

	for _, dir := range searchDirs {
		for _, name := range configSearchPaths {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// validate 验证并修正配置
func (c *Config) validate() {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		log.Printf("⚠️ Invalid port %d, using default %d", c.Server.Port, DefaultConfig.Server.Port)
		c.Server.Port = DefaultConfig.Server.Port
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultConfig.Server.Host
	}

	if c.Server.CORS.Origin == "" {
		c.Server.CORS.Origin = DefaultConfig.Server.CORS.Origin
	}

	if c.Index.DataFile == "" {
		c.Index.DataFile = DefaultConfig.Index.DataFile
	}
	if c.Index.MaxResults <= 0 {
		log.Printf("⚠️ Invalid max_results %d, using default %d", c.Index.MaxResults, DefaultConfig.Index.MaxResults)
		c.Index.MaxResults = DefaultConfig.Index.MaxResults
	}

	// 过滤无效平台
	validPlatforms := []string{}
	for _, p := range c.Scraper.Platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if isValidPlatform(p) {
			validPlatforms = append(validPlatforms, p)
		} else {
			log.Printf("⚠️ Invalid platform ignored: %s", p)
		}
	}
	c.Scraper.Platforms = validPlatforms

	validJobs := []ScrapeJob{}
	for _, job := range c.Scraper.Jobs {
		job.Platform = strings.ToLower(strings.TrimSpace(job.Platform))
		if !isValidPlatform(job.Platform) {
			log.Printf("⚠️ Scrape job for unknown platform ignored: %s", job.Platform)
			continue
		}
		if job.Limit <= 0 {
			job.Limit = 20
		}
		validJobs = append(validJobs, job)
	}
	c.Scraper.Jobs = validJobs

	if c.Scraper.DefaultLanguage == "" {
		c.Scraper.DefaultLanguage = DefaultConfig.Scraper.DefaultLanguage
	}
	if c.Scraper.RateLimit < 0 {
		c.Scraper.RateLimit = DefaultConfig.Scraper.RateLimit
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = DefaultConfig.Scraper.Timeout
	}

	if c.Client.Endpoint == "" {
		c.Client.Endpoint = DefaultConfig.Client.Endpoint
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = DefaultConfig.Client.Timeout
	}

	if c.Proxy.Enabled && c.Proxy.URL == "" {
		log.Printf("⚠️ Proxy enabled but URL is empty, using default")
		c.Proxy.URL = DefaultConfig.Proxy.URL
	}

	if c.MCP.ServerName == "" {
		c.MCP.ServerName = DefaultConfig.MCP.ServerName
	}
	if c.MCP.ServerVersion == "" {
		c.MCP.ServerVersion = DefaultConfig.MCP.ServerVersion
	}
	if c.MCP.Tools.SearchName == "" {
		c.MCP.Tools.SearchName = DefaultConfig.MCP.Tools.SearchName
	}
	if c.MCP.Tools.SearchDescription == "" {
		c.MCP.Tools.SearchDescription = DefaultConfig.MCP.Tools.SearchDescription
	}
	if c.MCP.Tools.StatsName == "" {
		c.MCP.Tools.StatsName = DefaultConfig.MCP.Tools.StatsName
	}
	if c.MCP.Tools.StatsDescription == "" {
		c.MCP.Tools.StatsDescription = DefaultConfig.MCP.Tools.StatsDescription
	}
}

// Print 打印配置信息
func (c *Config) Print() {
	log.Printf("📚 Problem catalogue: %s (max %d results)", c.Index.DataFile, c.Index.MaxResults)
	if len(c.Scraper.Platforms) > 0 {
		log.Printf("🕷️ Allowed platforms: %s", strings.Join(c.Scraper.Platforms, ", "))
	} else {
		log.Printf("🕷️ No platform restrictions, all scrapers can be used")
	}
	if c.Scraper.Schedule != "" {
		log.Printf("⏰ Scheduled refresh: %s", c.Scraper.Schedule)
	}
	if c.Proxy.Enabled {
		log.Printf("🌐 Using proxy: %s", c.Proxy.URL)
	} else {
		log.Printf("🌐 No proxy configured")
	}
	if c.Server.CORS.Enabled {
		log.Printf("🔒 CORS enabled with origin: %s", c.Server.CORS.Origin)
	} else {
		log.Printf("🔒 CORS disabled")
	}
	log.Printf("🔎 Search endpoint for page/CLI: %s", c.Client.Endpoint)
	log.Printf("🔧 MCP Server: %s v%s", c.MCP.ServerName, c.MCP.ServerVersion)
	log.Printf("🖥️ Server will listen on %s:%d", c.Server.Host, c.Server.Port)
}

// IsPlatformAllowed 检查平台是否允许抓取
func (c *Config) IsPlatformAllowed(platform string) bool {
	if len(c.Scraper.Platforms) == 0 {
		return isValidPlatform(platform)
	}
	return contains(c.Scraper.Platforms, platform)
}

// GetPort 获取端口
func (c *Config) GetPort() int {
	return c.Server.Port
}

// GetHost 获取主机
func (c *Config) GetHost() string {
	return c.Server.Host
}

// IsEnableCORS 是否启用 CORS
func (c *Config) IsEnableCORS() bool {
	return c.Server.CORS.Enabled
}

// GetCORSOrigin 获取 CORS Origin
func (c *Config) GetCORSOrigin() string {
	return c.Server.CORS.Origin
}

// GetProxyURL 获取代理 URL，未启用时返回空字符串
func (c *Config) GetProxyURL() string {
	if !c.Proxy.Enabled {
		return ""
	}
	return c.Proxy.URL
}

// IsBrowserEnabled 是否启用浏览器抓取
func (c *Config) IsBrowserEnabled() bool {
	return c.Browser.Enabled
}

// IsBrowserHeadless 浏览器是否使用无头模式
func (c *Config) IsBrowserHeadless() bool {
	return c.Browser.Headless
}

// IsBrowserPlatform 平台是否需要无头浏览器
func IsBrowserPlatform(platform string) bool {
	return contains(BrowserPlatforms, platform)
}

func isValidPlatform(platform string) bool {
	return contains(ValidPlatforms, platform)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
