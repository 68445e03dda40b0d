package database

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Novikova-EY/arm-gs/internal/model"
)

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn", nil); err == nil {
		t.Error("未知驱动应返回错误")
	}
}

func TestRunMigrations_SQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "armgs_test.db"))
	if err != nil {
		t.Fatalf("打开 sqlite 失败: %v", err)
	}
	if err := RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	for _, table := range []string{"fo", "oes_type", "oes", "region", "res", "res_region", "log", "roles", "users"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("缺少表 %s", table)
		}
	}

	if err := SeedRoles(db, model.BuiltinRoles...); err != nil {
		t.Fatalf("初始化角色失败: %v", err)
	}
	// 重复执行不应产生重复角色
	if err := SeedRoles(db, model.BuiltinRoles...); err != nil {
		t.Fatalf("重复初始化角色失败: %v", err)
	}
	var n int64
	db.Model(&model.Role{}).Count(&n)
	if n != 3 {
		t.Errorf("期望 3 个角色，实际=%d", n)
	}
}

func TestResetIdentity_SQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "armgs_test.db"))
	if err != nil {
		t.Fatalf("打开 sqlite 失败: %v", err)
	}
	if err := RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	for _, name := range []string{"a", "b", "c"} {
		if err := db.Create(&model.District{Name: name}).Error; err != nil {
			t.Fatalf("插入失败: %v", err)
		}
	}
	if err := db.Where("1 = 1").Delete(&model.District{}).Error; err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	if err := ResetIdentity(db, "fo"); err != nil {
		t.Fatalf("ResetIdentity 失败: %v", err)
	}

	d := model.District{Name: "Центральный"}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if d.ID != 1 {
		t.Errorf("重置后期望 ID=1，实际=%d", d.ID)
	}
}
