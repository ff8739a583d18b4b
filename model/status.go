package model

// Status 点位的工作流状态
type Status string

// 地图状态 (第一个是新建点位的默认值)
const (
	StatusNew        Status = "nuevo"
	StatusInProgress Status = "en_proceso"
	StatusResolved   Status = "resuelto"
	StatusDiscarded  Status = "descartado"
)

// 属性表单和批量导入使用的状态
const (
	StatusLoaded     Status = "cargado"
	StatusPositioned Status = "posicionado"
	StatusReview     Status = "revision"
	StatusCompleted  Status = "completado"
	StatusOutlier    Status = "outlier"
	StatusDeleted    Status = "eliminado"
)

// Statuses 按目录顺序列出所有已知状态
var Statuses = []Status{
	StatusNew,
	StatusInProgress,
	StatusResolved,
	StatusDiscarded,
	StatusLoaded,
	StatusPositioned,
	StatusReview,
	StatusCompleted,
	StatusOutlier,
	StatusDeleted,
}

// DefaultStatus 目录中的第一个状态
func DefaultStatus() Status {
	return Statuses[0]
}

// Known 判断 s 是否在状态目录中
func (s Status) Known() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}
