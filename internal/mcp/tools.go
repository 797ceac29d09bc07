package mcp

import (
	"github.com/cliffyan/go-problem-search/internal/config"
)

// GetTools 获取所有 MCP 工具定义
func GetTools(cfg *config.Config) []Tool {
	return []Tool{
		{
			Name:        cfg.MCP.Tools.SearchName,
			Description: cfg.MCP.Tools.SearchDescription,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "Keywords matched against problem titles",
					},
					"difficulty": {
						Type:        "string",
						Description: "Only return problems with this difficulty label (case-insensitive). Empty means any.",
					},
					"language": {
						Type:        "string",
						Description: "Only return problems tagged with this language (case-insensitive). Empty means any.",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        cfg.MCP.Tools.StatsName,
			Description: cfg.MCP.Tools.StatsDescription,
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{},
			},
		},
	}
}
