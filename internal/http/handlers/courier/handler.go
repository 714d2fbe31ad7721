package courier

import "github.com/leafline-next/internal/provider"

// Handler 骑手侧接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建骑手处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
