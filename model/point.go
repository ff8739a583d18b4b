package model

import (
	"encoding/json"
	"maps"

	"github.com/paulmach/orb"
)

// Point 用户维护的地理点位
// Coordinates 与 GeoJSON 一致: 经度在前
type Point struct {
	ID          string     `json:"id"`
	Coordinates orb.Point  `json:"coordinates"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Attributes  Attributes `json:"-"` // 编辑器不解析的业务字段
}

// Attributes 开放的业务字段集合 (property_type, price, rural 等)
type Attributes map[string]any

// corePointFields Point 自身的字段名，其余字段进入 Attributes
var corePointFields = map[string]bool{
	"id":          true,
	"coordinates": true,
	"name":        true,
	"description": true,
	"status":      true,
}

// IsCoreField 判断 key 是否为 Point 的固定字段
func IsCoreField(key string) bool {
	return corePointFields[key]
}

// Clone 深拷贝，不与 p 共享可变数据
func (p Point) Clone() Point {
	c := p
	if p.Attributes != nil {
		c.Attributes = cloneAttributes(p.Attributes)
	}
	return c
}

// MarshalJSON 将 Attributes 平铺到核心字段旁边 (前端和存储层交换的格式)
func (p Point) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attributes)+5)
	for k, v := range p.Attributes {
		if !corePointFields[k] {
			out[k] = v
		}
	}
	out["id"] = p.ID
	out["coordinates"] = [2]float64{p.Coordinates.Lon(), p.Coordinates.Lat()}
	out["name"] = p.Name
	out["description"] = p.Description
	out["status"] = p.Status
	return json.Marshal(out)
}

// UnmarshalJSON 严格校验核心字段类型
// 注意: 存储数据的宽松解析在 store 包中
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var core struct {
		ID          string     `json:"id"`
		Coordinates [2]float64 `json:"coordinates"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Status      Status     `json:"status"`
	}
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}

	*p = Point{
		ID:          core.ID,
		Coordinates: orb.Point(core.Coordinates),
		Name:        core.Name,
		Description: core.Description,
		Status:      core.Status,
	}
	for k, v := range raw {
		if corePointFields[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		if p.Attributes == nil {
			p.Attributes = Attributes{}
		}
		p.Attributes[k] = val
	}
	return nil
}

// ClonePoints 深拷贝点位集合，保持顺序
func ClonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}

func cloneAttributes(in Attributes) Attributes {
	out := make(Attributes, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue 拷贝 encoding/json 产生的嵌套容器
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := maps.Clone(t)
		for k, inner := range m {
			m[k] = cloneValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}
