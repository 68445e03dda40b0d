package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Novikova-EY/arm-gs/config"
	"github.com/Novikova-EY/arm-gs/internal/dto"
	"github.com/Novikova-EY/arm-gs/internal/model"
	"github.com/Novikova-EY/arm-gs/internal/repository"
	"github.com/Novikova-EY/arm-gs/pkg/database"
	"github.com/Novikova-EY/arm-gs/pkg/jwt"
)

const testActor = "tester"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:              8080,
			AllowedExtensions: []string{"xlsx", "xls"},
		},
		Auth: config.AuthConfig{
			SecretKey:   "test-secret-key-for-unit-testing-2026",
			SessionTTL:  time.Hour,
			DefaultRole: "guest",
		},
	}
}

type testEnv struct {
	repo *repository.Repository
	svc  *Service
	cfg  *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, filepath.Join(t.TempDir(), "armgs_service_test.db"))
}

// newTestEnvWithForeignKeys 打开启用外键约束的 sqlite 连接
func newTestEnvWithForeignKeys(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, filepath.Join(t.TempDir(), "armgs_service_fk.db")+"?_pragma=foreign_keys(1)")
}

func newTestEnvAt(t *testing.T, dsn string) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, zap.NewNop()))
	require.NoError(t, database.SeedRoles(db, model.BuiltinRoles...))

	cfg := testConfig()
	repo := repository.NewRepository(db)
	svc := NewService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())
	return &testEnv{repo: repo, svc: svc, cfg: cfg}
}

func (e *testEnv) ref(t *testing.T, slug string) ReferenceService {
	t.Helper()
	r, ok := e.svc.Reference(slug)
	require.True(t, ok, "未注册的实体 %s", slug)
	return r
}

// seedParents 为带外键的实体准备被引用记录：类型 1、联邦区 1、ОЭС 1、联邦主体 1..3
func (e *testEnv) seedParents(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.repo.GridSystemType.Create(ctx, &model.GridSystemType{Name: "Type A"}))
	require.NoError(t, e.repo.District.Create(ctx, &model.District{Name: "District A"}))
	require.NoError(t, e.repo.GridSystem.Create(ctx, &model.GridSystem{Name: "OES A", TypeID: uintp(1)}))
	for _, name := range []string{"Region 1", "Region 2", "Region 3"} {
		require.NoError(t, e.repo.Region.Create(ctx, &model.Region{Name: name, DistrictID: uintp(1)}))
	}
}

func (e *testEnv) names(t *testing.T, slug string) []string {
	t.Helper()
	page, err := e.ref(t, slug).List(context.Background(), dto.ListQuery{PerPage: 50})
	require.NoError(t, err)
	out := make([]string, 0, len(page.Items))
	for _, it := range page.Items {
		out = append(out, it.Name)
	}
	return out
}

// row 构造提交行；带外键的实体一律引用 ID 1，res 默认关联联邦主体 1
func row(slug string, id uint, name string) dto.RowInput {
	r := dto.RowInput{Name: name}
	if id > 0 {
		r.ID = uintp(id)
	}
	switch slug {
	case "oes", "region":
		r.RefID = uintp(1)
	case "res":
		r.RefID = uintp(1)
		r.RegionIDs = []uint{1}
	}
	return r
}

func uintp(v uint) *uint { return &v }

var allSlugs = []string{"fo", "oes_type", "oes", "region", "res"}

// seedSlug 在目标实体中新增两条记录，返回其名称
// 对 oes、region 而言 seedParents 已占用 ID，新增记录从后续 ID 开始
func seedSlug(t *testing.T, env *testEnv, slug string) (first, second uint) {
	t.Helper()
	ctx := context.Background()
	svc := env.ref(t, slug)
	first, err := svc.Add(ctx, row(slug, 0, slug+" one"), testActor)
	require.NoError(t, err)
	second, err = svc.Add(ctx, row(slug, 0, slug+" two"), testActor)
	require.NoError(t, err)
	return first, second
}
