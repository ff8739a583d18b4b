package model

import "github.com/paulmach/orb"

// Project 项目 (包含点位和初始地图视角)
type Project struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Center   orb.Point `json:"center"` // 经度, 纬度
	Zoom     float64   `json:"zoom"`
	Basemaps []string  `json:"basemaps,omitempty"`
	Role     Role      `json:"role,omitempty"` // 当前用户的角色，由项目目录填充
}

// Role 用户在项目中的权限级别
type Role string

const (
	RoleSuperAdmin   Role = "SuperAdmin"
	RoleProjectAdmin Role = "ProjectAdmin"
	RoleEditor       Role = "Editor"
	RoleViewer       Role = "Viewer"
)

// CanEdit 该角色是否可以开启编辑
func (r Role) CanEdit() bool {
	switch r {
	case RoleSuperAdmin, RoleProjectAdmin, RoleEditor:
		return true
	}
	return false
}
