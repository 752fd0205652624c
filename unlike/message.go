package unlike

import "fmt"

// 观察者（HTTP、MCP、CLI）与控制器之间的消息协议
const (
	ActionStart         = "start"
	ActionStop          = "stop"
	ActionGetStatus     = "getStatus"
	ActionResetProgress = "resetProgress"
)

// Message 观察者发来的请求
type Message struct {
	Action string `json:"action" binding:"required"`
}

// Response 请求的应答。getStatus 的快照字段平铺在顶层：
// {success, running, cycles, processed, action}；其余动作只有 success。
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	*Status
}

// HandleMessage 分发一条消息。start 在进入循环后立即应答，不等待运行结束。
func (c *Controller) HandleMessage(msg Message) Response {
	switch msg.Action {
	case ActionStart:
		c.Start()
		return Response{Success: true}
	case ActionStop:
		c.Stop()
		return Response{Success: true}
	case ActionGetStatus:
		st := c.Status()
		return Response{Success: true, Status: &st}
	case ActionResetProgress:
		c.ResetProgress()
		return Response{Success: true}
	default:
		return Response{Success: false, Error: fmt.Sprintf("unknown action %q", msg.Action)}
	}
}
