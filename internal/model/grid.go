package model

// District 联邦区（ФО）— 对应 fo
type District struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name string `gorm:"type:varchar(80);not null;unique"  json:"name"`
}

// TableName 指定表名
func (District) TableName() string { return "fo" }

func (d District) GetID() uint     { return d.ID }
func (d District) GetName() string { return d.Name }

// GridSystemType 电力系统类型（ОЭС 类型）— 对应 oes_type
type GridSystemType struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name string `gorm:"type:varchar(80);not null;unique"  json:"name"`
}

// TableName 指定表名
func (GridSystemType) TableName() string { return "oes_type" }

func (t GridSystemType) GetID() uint     { return t.ID }
func (t GridSystemType) GetName() string { return t.Name }

// GridSystem 联合电力系统（ОЭС）— 对应 oes
type GridSystem struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"                  json:"id"`
	Name   string `gorm:"type:varchar(80);not null;unique"          json:"name"`
	TypeID *uint  `gorm:"column:id_oes_type;index"                  json:"type_id"`

	// 关联
	Type *GridSystemType `gorm:"foreignKey:TypeID;references:ID" json:"type,omitempty"`
}

// TableName 指定表名
func (GridSystem) TableName() string { return "oes" }

func (g GridSystem) GetID() uint     { return g.ID }
func (g GridSystem) GetName() string { return g.Name }

// Region 联邦主体 — 对应 region
type Region struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name       string `gorm:"type:varchar(80);not null;unique" json:"name"`
	DistrictID *uint  `gorm:"column:id_fo;index"               json:"district_id"`

	// 关联
	District *District `gorm:"foreignKey:DistrictID;references:ID" json:"district,omitempty"`
}

// TableName 指定表名
func (Region) TableName() string { return "region" }

func (r Region) GetID() uint     { return r.ID }
func (r Region) GetName() string { return r.Name }

// RegionalGridSystem 区域电力系统（РЭС）— 对应 res
// 名称唯一性只在应用层校验，表上没有唯一约束
type RegionalGridSystem struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	GridSystemID *uint  `gorm:"column:id_oes;index"        json:"grid_system_id"`

	// 关联
	GridSystem *GridSystem                 `gorm:"foreignKey:GridSystemID;references:ID" json:"grid_system,omitempty"`
	Links      []RegionalGridSystemRegion `gorm:"foreignKey:RegionalGridSystemID"        json:"-"`
}

// TableName 指定表名
func (RegionalGridSystem) TableName() string { return "res" }

func (r RegionalGridSystem) GetID() uint     { return r.ID }
func (r RegionalGridSystem) GetName() string { return r.Name }

// RegionIDs 返回关联的联邦主体 ID 列表
func (r RegionalGridSystem) RegionIDs() []uint {
	ids := make([]uint, 0, len(r.Links))
	for _, l := range r.Links {
		ids = append(ids, l.RegionID)
	}
	return ids
}

// RegionNames 返回已预加载的联邦主体名称
func (r RegionalGridSystem) RegionNames() []string {
	names := make([]string, 0, len(r.Links))
	for _, l := range r.Links {
		if l.Region != nil {
			names = append(names, l.Region.Name)
		}
	}
	return names
}

// RegionalGridSystemRegion 区域电力系统与联邦主体的关联行 — 对应 res_region
// 由父记录独占：每次更新父记录时整体删除后重建
type RegionalGridSystemRegion struct {
	ID                   uint `gorm:"primaryKey;autoIncrement"        json:"id"`
	RegionalGridSystemID uint `gorm:"column:id_res;not null;index"    json:"regional_grid_system_id"`
	RegionID             uint `gorm:"column:id_region;not null;index" json:"region_id"`

	Region *Region `gorm:"foreignKey:RegionID;references:ID" json:"region,omitempty"`
}

// TableName 指定表名
func (RegionalGridSystemRegion) TableName() string { return "res_region" }

// [自证通过] internal/model/grid.go
