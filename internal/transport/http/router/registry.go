package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// APIModule 模块可选择实现其中一个或两个接口
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry 模块注册表；main 里组装，再交给 engine 挂载
type Registry struct {
	mu        sync.RWMutex
	apiMods   []APIModule
	adminMods []AdminModule
}

func NewRegistry() *Registry { return &Registry{} }

// Register 根据类型断言分发到 API/Admin 列表；两者都不是返回 false
func (r *Registry) Register(mod any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := false
	if m, is := mod.(APIModule); is {
		r.apiMods = append(r.apiMods, m)
		ok = true
	}
	if m, is := mod.(AdminModule); is {
		r.adminMods = append(r.adminMods, m)
		ok = true
	}
	return ok
}

// MountAPI 按优先级挂载所有 API 模块
func (r *Registry) MountAPI(g *gin.RouterGroup) {
	r.mu.RLock()
	mods := append([]APIModule(nil), r.apiMods...)
	r.mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(g)
	}
}

// MountAdmin 按优先级挂载所有 Admin 模块
func (r *Registry) MountAdmin(g *gin.RouterGroup) {
	r.mu.RLock()
	mods := append([]AdminModule(nil), r.adminMods...)
	r.mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAdmin(g)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
