package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// MCP 工具参数

// EmptyArgs 无参数工具
type EmptyArgs struct{}

// ApplyPresetArgs 应用预设的参数
type ApplyPresetArgs struct {
	Name string `json:"name" jsonschema:"预设名称：conservative、balanced 或 aggressive"`
}

// initMCPServer 创建 MCP 服务器并注册工具
func (s *AppServer) initMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "instagram-unlike",
		Version: "1.0.0",
	}, nil)

	s.registerTools(server)
	logrus.Info("MCP server initialized with official SDK")
	return server
}

func (s *AppServer) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_unlike",
		Description: "开始批量取消 Instagram 点赞。每轮选择一批已点赞帖子、取消点赞并刷新页面，直到没有剩余条目",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyArgs) (*mcp.CallToolResult, any, error) {
		return convertToMCPResult(s.handleStartUnlike(ctx)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop_unlike",
		Description: "停止批量取消点赞，正在执行的一轮会先跑完",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyArgs) (*mcp.CallToolResult, any, error) {
		return convertToMCPResult(s.handleStopUnlike(ctx)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_unlike_status",
		Description: "查询批量取消点赞的运行状态、轮次和已处理数量",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyArgs) (*mcp.CallToolResult, any, error) {
		return convertToMCPResult(s.handleGetStatus(ctx)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_unlike_progress",
		Description: "清空批量取消点赞的进度计数",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyArgs) (*mcp.CallToolResult, any, error) {
		return convertToMCPResult(s.handleResetProgress(ctx)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_unlike_config",
		Description: "查看当前保存的配置和实际生效的配置（开启限速保护时会放慢）",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyArgs) (*mcp.CallToolResult, any, error) {
		return convertToMCPResult(s.handleGetConfig(ctx)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_unlike_preset",
		Description: "应用预设配置：conservative（保守）、balanced（均衡）、aggressive（激进）",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ApplyPresetArgs) (*mcp.CallToolResult, any, error) {
		return convertToMCPResult(s.handleApplyPreset(ctx, args.Name)), nil, nil
	})

	logrus.Infof("Registered %d MCP tools", 6)
}

// convertToMCPResult 将内部结果转换为官方 SDK 的结果类型
func convertToMCPResult(result *MCPToolResult) *mcp.CallToolResult {
	contents := make([]mcp.Content, 0, len(result.Content))
	for _, c := range result.Content {
		contents = append(contents, &mcp.TextContent{Text: c.Text})
	}
	return &mcp.CallToolResult{
		Content: contents,
		IsError: result.IsError,
	}
}
