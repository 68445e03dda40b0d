package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Novikova-EY/arm-gs/config"
	"github.com/Novikova-EY/arm-gs/internal/api/middleware"
	"github.com/Novikova-EY/arm-gs/internal/dto"
	"github.com/Novikova-EY/arm-gs/internal/model"
	"github.com/Novikova-EY/arm-gs/internal/service"
	apperrors "github.com/Novikova-EY/arm-gs/pkg/errors"
	"github.com/Novikova-EY/arm-gs/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ReferenceService ──

type mockReferenceService struct {
	info service.EntityInfo

	page      *dto.Page[dto.ReferenceItem]
	listErr   error
	lastQuery dto.ListQuery
	count     int64
	options   []dto.OptionResponse
	regions   []dto.OptionResponse

	reconcileResult *dto.ReconcileResult
	reconcileErr    error
	reconcileCalls  int
	gotRows         []dto.RowInput
	gotDeletes      []uint

	addID    uint
	addErr   error
	addCalls int
	gotAdd   dto.RowInput

	importN    int
	importErr  error
	importName string
	importBody []byte

	exportData []byte
	exportName string
	exportErr  error
}

func (m *mockReferenceService) Info() service.EntityInfo { return m.info }
func (m *mockReferenceService) List(_ context.Context, q dto.ListQuery) (*dto.Page[dto.ReferenceItem], error) {
	m.lastQuery = q
	if m.page == nil {
		return &dto.Page[dto.ReferenceItem]{Page: q.Page, PerPage: q.PerPage}, m.listErr
	}
	return m.page, m.listErr
}
func (m *mockReferenceService) Count(_ context.Context, q dto.ListQuery) (int64, error) {
	m.lastQuery = q
	return m.count, nil
}
func (m *mockReferenceService) RefOptions(context.Context) ([]dto.OptionResponse, error) {
	return m.options, nil
}
func (m *mockReferenceService) RegionOptions(context.Context) ([]dto.OptionResponse, error) {
	return m.regions, nil
}
func (m *mockReferenceService) Reconcile(_ context.Context, rows []dto.RowInput, deleteIDs []uint, _ string) (*dto.ReconcileResult, error) {
	m.reconcileCalls++
	m.gotRows, m.gotDeletes = rows, deleteIDs
	if m.reconcileResult == nil {
		return &dto.ReconcileResult{}, m.reconcileErr
	}
	return m.reconcileResult, m.reconcileErr
}
func (m *mockReferenceService) Add(_ context.Context, row dto.RowInput, _ string) (uint, error) {
	m.addCalls++
	m.gotAdd = row
	return m.addID, m.addErr
}
func (m *mockReferenceService) Delete(context.Context, []uint, string) (*dto.ReconcileResult, error) {
	return &dto.ReconcileResult{}, nil
}
func (m *mockReferenceService) Import(_ context.Context, filename string, r io.Reader, _ string) (int, error) {
	m.importName = filename
	m.importBody, _ = io.ReadAll(r)
	return m.importN, m.importErr
}
func (m *mockReferenceService) Export(_ context.Context, q dto.ListQuery, _ string) ([]byte, string, error) {
	m.lastQuery = q
	return m.exportData, m.exportName, m.exportErr
}

// ── Mock AuditService ──

type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Record(_ context.Context, _, action, _ string) {
	m.actions = append(m.actions, action)
}
func (m *mockAuditService) List(context.Context, dto.AuditQuery) (*dto.Page[dto.AuditLogResponse], error) {
	return &dto.Page[dto.AuditLogResponse]{Page: 1, PerPage: dto.AuditPerPage}, nil
}

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.SessionResponse
	loginErr    error
	registerErr error
	logoutCalls int
}

func (m *mockAuthService) Login(context.Context, *dto.LoginRequest) (*dto.SessionResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Register(context.Context, *dto.RegisterRequest) (*model.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &model.User{}, nil
}
func (m *mockAuthService) Logout(context.Context, *jwt.Claims) error {
	m.logoutCalls++
	return nil
}
func (m *mockAuthService) Authenticate(context.Context, string) (*jwt.Claims, error) {
	return nil, service.ErrSessionRevoked
}
func (m *mockAuthService) CreateUser(context.Context, dto.CreateUserRequest) (*model.User, error) {
	return &model.User{}, nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

var (
	foInfo  = service.EntityInfo{Slug: "fo", Label: "ФО"}
	oesInfo = service.EntityInfo{Slug: "oes", Label: "ОЭС", RefField: "oes_types", RefColumn: "id_oes_type", RefLabel: "тип ОЭС"}
	resInfo = service.EntityInfo{
		Slug: "res", Label: "Региональная энергосистема",
		RefField: "oes", RefColumn: "id_oes", RefLabel: "ОЭС", RefFilter: "oes_filter",
		RefRequired: true, HasRegions: true,
	}
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			UploadDir:         t.TempDir(),
			MaxUploadMB:       1,
			AllowedExtensions: []string{"xlsx"},
		},
		Auth: config.AuthConfig{Cookie: config.CookieConfig{Name: "armgs_session"}},
	}
}

// newEngine 挂载单个实体的全部路由，并注入指定能力的用户
func newEngine(t *testing.T, m *mockReferenceService, capability model.Capability) (*gin.Engine, *mockAuditService) {
	audit := &mockAuditService{}
	h := NewReferenceHandler(m, audit, testConfig(t), zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, &middleware.Principal{UserID: 1, Username: "tester", Capability: capability})
	})
	slug := h.Slug()
	r.GET("/app/"+slug, h.List)
	r.POST("/app/"+slug, h.Update)
	r.GET("/app/add_"+slug, h.AddForm)
	r.POST("/app/add_"+slug, h.Add)
	r.POST("/app/import_"+slug+"_to_sql", h.Import)
	r.GET("/app/export_"+slug+"_to_excel", h.Export)
	return r, audit
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func get(r *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	r.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func flashOf(t *testing.T, w *httptest.ResponseRecorder) []dto.Outcome {
	t.Helper()
	ck := findCookie(w, flashCookieName)
	if ck == nil {
		t.Fatal("expected flash cookie")
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		t.Fatalf("decode flash: %v", err)
	}
	var out []dto.Outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal flash: %v", err)
	}
	return out
}

func parseData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if env.Code != 0 {
		t.Fatalf("expected code 0, got %d", env.Code)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("parse data: %v", err)
	}
}

func redirectURL(t *testing.T, w *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	u, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location: %v", err)
	}
	return u
}

// ═══════════════════════════════════════════════════════════
// ReferenceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReferenceHandler_List_ParsesQuery(t *testing.T) {
	m := &mockReferenceService{
		info:    resInfo,
		page:    &dto.Page[dto.ReferenceItem]{Items: []dto.ReferenceItem{{ID: 1, Name: "Центр"}}, Total: 30, Page: 2, PerPage: 25},
		options: []dto.OptionResponse{{ID: 1, Name: "ОЭС Центра"}},
		regions: []dto.OptionResponse{{ID: 3, Name: "Москва"}},
	}
	r, audit := newEngine(t, m, model.CapabilityAdmin)

	w := get(r, "/app/res?page=2&per_page=25&res_filter=%D0%A6&oes_filter=1&sort_by=oes&sort_dir=desc&highlight_id=7")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	q := m.lastQuery
	if q.Page != 2 || q.PerPage != 25 || q.Filter != "Ц" || q.RefFilter != "1" || q.SortBy != "oes" || q.SortDir != "desc" {
		t.Errorf("unexpected query: %+v", q)
	}

	var resp dto.ListPageResponse
	parseData(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].Name != "Центр" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
	if !resp.CanEdit {
		t.Error("admin should be able to edit")
	}
	if resp.HighlightID != 7 {
		t.Errorf("expected highlight 7, got %d", resp.HighlightID)
	}
	if len(resp.Options) != 1 || len(resp.Regions) != 1 {
		t.Errorf("expected options and regions, got %+v / %+v", resp.Options, resp.Regions)
	}
	if resp.Pagination.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", resp.Pagination.TotalPages)
	}
	if len(audit.actions) != 1 {
		t.Errorf("expected one audit entry, got %v", audit.actions)
	}
}

func TestReferenceHandler_List_GuestCannotEdit(t *testing.T) {
	m := &mockReferenceService{info: foInfo}
	r, _ := newEngine(t, m, model.CapabilityGuest)

	w := get(r, "/app/fo")
	var resp dto.ListPageResponse
	parseData(t, w, &resp)
	if resp.CanEdit {
		t.Error("guest must not edit")
	}
	if resp.PerPage != dto.DefaultPerPage {
		t.Errorf("expected default per_page, got %d", resp.PerPage)
	}
}

func TestReferenceHandler_Update_ParsesFormArrays(t *testing.T) {
	m := &mockReferenceService{info: resInfo, reconcileResult: &dto.ReconcileResult{Deleted: 1}}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	form := url.Values{}
	form["res_ids[]"] = []string{"1", "2", ""}
	form["res_names[]"] = []string{"Центр", "Север", "Юг"}
	form["oes[]"] = []string{"1", "0", "2"}
	form["res_delete[]"] = []string{"2"}
	form["region_ids_1[]"] = []string{"3", "4"}
	form.Set("page", "3")
	form.Set("res_filter", "ц")
	form.Set("sort_by", "name")

	w := postForm(r, "/app/res", form)
	u := redirectURL(t, w)
	if u.Path != "/app/res" {
		t.Errorf("unexpected redirect path %s", u.Path)
	}
	if u.Query().Get("page") != "3" || u.Query().Get("res_filter") != "ц" || u.Query().Get("sort_by") != "name" {
		t.Errorf("view state not kept: %s", u.RawQuery)
	}

	if len(m.gotDeletes) != 1 || m.gotDeletes[0] != 2 {
		t.Errorf("unexpected deletes: %v", m.gotDeletes)
	}
	if len(m.gotRows) != 2 {
		t.Fatalf("deleted row must be dropped from updates, got %+v", m.gotRows)
	}
	first := m.gotRows[0]
	if first.ID == nil || *first.ID != 1 || first.RefID == nil || *first.RefID != 1 {
		t.Errorf("unexpected first row: %+v", first)
	}
	if len(first.RegionIDs) != 2 || first.RegionIDs[0] != 3 || first.RegionIDs[1] != 4 {
		t.Errorf("unexpected regions: %v", first.RegionIDs)
	}
	second := m.gotRows[1]
	if second.ID != nil || second.Name != "Юг" || second.RefID == nil || *second.RefID != 2 {
		t.Errorf("unexpected new row: %+v", second)
	}

	flash := flashOf(t, w)
	if len(flash) != 2 || flash[0].Level != "success" || flash[1].Message != msgDeleted {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestReferenceHandler_Update_ZeroRefMeansUnset(t *testing.T) {
	m := &mockReferenceService{info: oesInfo}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	form := url.Values{}
	form["oes_ids[]"] = []string{"5"}
	form["oes_names[]"] = []string{"ОЭС Сибири"}
	form["oes_types[]"] = []string{"0"}

	postForm(r, "/app/oes", form)
	if len(m.gotRows) != 1 || m.gotRows[0].RefID != nil {
		t.Errorf("expected nil ref, got %+v", m.gotRows)
	}
}

func TestReferenceHandler_Update_MismatchedArrays(t *testing.T) {
	m := &mockReferenceService{info: foInfo}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	form := url.Values{}
	form["fo_ids[]"] = []string{"1", "2"}
	form["fo_names[]"] = []string{"Центральный"}

	w := postForm(r, "/app/fo", form)
	redirectURL(t, w)
	if m.reconcileCalls != 0 {
		t.Error("reconcile must not run on malformed form")
	}
	if flash := flashOf(t, w); flash[0].Message != msgBadForm {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestReferenceHandler_Update_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"validation", apperrors.NewValidation("Дублирующиеся ID в данных: 1"), "Дублирующиеся ID в данных: 1"},
		{"persistence", apperrors.NewPersistence("事务", io.ErrUnexpectedEOF), msgSaveFailed},
		{"unexpected", io.ErrClosedPipe, msgSaveFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockReferenceService{info: foInfo, reconcileErr: tc.err}
			r, _ := newEngine(t, m, model.CapabilityAdmin)

			form := url.Values{}
			form["fo_ids[]"] = []string{"1"}
			form["fo_names[]"] = []string{"Центральный"}

			w := postForm(r, "/app/fo", form)
			flash := flashOf(t, w)
			if len(flash) != 1 || flash[0].Level != "danger" || flash[0].Message != tc.want {
				t.Errorf("unexpected flash: %+v", flash)
			}
		})
	}
}

func TestReferenceHandler_Add_RedirectsToLastPage(t *testing.T) {
	m := &mockReferenceService{info: oesInfo, addID: 11, count: 11}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	form := url.Values{}
	form.Set("name", "  ОЭС Урала ")
	form.Set("oes_type", "2")
	form.Set("per_page", "5")

	w := postForm(r, "/app/add_oes", form)
	u := redirectURL(t, w)
	if u.Path != "/app/oes" {
		t.Errorf("unexpected path %s", u.Path)
	}
	if u.Query().Get("page") != "3" || u.Query().Get("highlight_id") != "11" {
		t.Errorf("unexpected query %s", u.RawQuery)
	}
	if m.gotAdd.Name != "ОЭС Урала" || m.gotAdd.RefID == nil || *m.gotAdd.RefID != 2 {
		t.Errorf("unexpected add row: %+v", m.gotAdd)
	}
}

func TestReferenceHandler_Add_BlankName(t *testing.T) {
	m := &mockReferenceService{info: foInfo}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	form := url.Values{}
	form.Set("name", "   ")

	w := postForm(r, "/app/add_fo", form)
	u := redirectURL(t, w)
	if u.Path != "/app/add_fo" {
		t.Errorf("expected back to add page, got %s", u.Path)
	}
	if m.addCalls != 0 {
		t.Error("add must not run for blank name")
	}
	if flash := flashOf(t, w); flash[0].Message != msgRequired {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestReferenceHandler_AddForm_RequiresRefOptions(t *testing.T) {
	m := &mockReferenceService{info: resInfo}
	r, audit := newEngine(t, m, model.CapabilityAdmin)

	w := get(r, "/app/add_res")
	u := redirectURL(t, w)
	if u.Path != "/app/res" {
		t.Errorf("expected redirect to list, got %s", u.Path)
	}
	flash := flashOf(t, w)
	if flash[0].Level != "danger" || !strings.Contains(flash[0].Message, "ОЭС") {
		t.Errorf("unexpected flash: %+v", flash)
	}
	if len(audit.actions) != 2 {
		t.Errorf("expected page-open and failure entries, got %v", audit.actions)
	}
}

func TestReferenceHandler_AddForm_OK(t *testing.T) {
	m := &mockReferenceService{
		info:    resInfo,
		options: []dto.OptionResponse{{ID: 1, Name: "ОЭС Центра"}},
		regions: []dto.OptionResponse{{ID: 1, Name: "Москва"}},
	}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	w := get(r, "/app/add_res")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp dto.AddPageResponse
	parseData(t, w, &resp)
	if resp.Entity != "res" || len(resp.Options) != 1 || len(resp.Regions) != 1 {
		t.Errorf("unexpected add page: %+v", resp)
	}
}

func TestReferenceHandler_Import(t *testing.T) {
	m := &mockReferenceService{info: foInfo, importN: 2}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "fo.xlsx")
	fw.Write([]byte("xlsx-bytes"))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/app/import_fo_to_sql", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	redirectURL(t, w)
	if m.importName != "fo.xlsx" || string(m.importBody) != "xlsx-bytes" {
		t.Errorf("unexpected import input: %q %q", m.importName, m.importBody)
	}
	flash := flashOf(t, w)
	if flash[0].Level != "success" || !strings.Contains(flash[0].Message, "2") {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestReferenceHandler_Import_NoFile(t *testing.T) {
	m := &mockReferenceService{info: foInfo}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	w := postForm(r, "/app/import_fo_to_sql", url.Values{})
	redirectURL(t, w)
	if flash := flashOf(t, w); flash[0].Message != msgNoFile {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestReferenceHandler_Import_ValidationMessageShown(t *testing.T) {
	m := &mockReferenceService{info: foInfo, importErr: apperrors.NewValidation("Неверный формат файла. Отсутствуют необходимые столбцы: name")}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "fo.xlsx")
	fw.Write([]byte("x"))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/app/import_fo_to_sql", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	flash := flashOf(t, w)
	if !strings.Contains(flash[0].Message, "Отсутствуют необходимые столбцы") {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestReferenceHandler_Export(t *testing.T) {
	m := &mockReferenceService{info: foInfo, exportData: []byte("PK"), exportName: "fo_data_20240101_120000.xlsx"}
	r, _ := newEngine(t, m, model.CapabilityGuest)

	w := get(r, "/app/export_fo_to_excel?fo_filter=%D1%86&sort_by=name&sort_dir=desc")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != service.XLSXContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "fo_data_20240101_120000.xlsx") {
		t.Errorf("unexpected disposition: %s", cd)
	}
	if m.lastQuery.Filter != "ц" || m.lastQuery.SortDir != "desc" {
		t.Errorf("export must reuse list filters: %+v", m.lastQuery)
	}
}

func TestFlash_PoppedOnNextGet(t *testing.T) {
	m := &mockReferenceService{info: foInfo}
	r, _ := newEngine(t, m, model.CapabilityAdmin)

	form := url.Values{}
	form["fo_ids[]"] = []string{"1"}
	form["fo_names[]"] = []string{"Центральный"}
	w := postForm(r, "/app/fo", form)
	ck := findCookie(w, flashCookieName)
	if ck == nil {
		t.Fatal("expected flash cookie")
	}

	w = get(r, "/app/fo", &http.Cookie{Name: ck.Name, Value: ck.Value})
	var resp dto.ListPageResponse
	parseData(t, w, &resp)
	if len(resp.Flash) != 1 || resp.Flash[0].Message != msgSaved {
		t.Errorf("unexpected flash: %+v", resp.Flash)
	}
	cleared := findCookie(w, flashCookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Error("flash cookie should be cleared")
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func newAuthEngine(t *testing.T, m *mockAuthService, p *middleware.Principal) *gin.Engine {
	h := NewAuthHandler(m, testConfig(t), zap.NewNop())
	r := gin.New()
	if p != nil {
		r.Use(func(c *gin.Context) { middleware.SetPrincipal(c, p) })
	}
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.GET("/auth/logout", h.Logout)
	return r
}

func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	m := &mockAuthService{loginResult: &dto.SessionResponse{Token: "tok", Username: "ivan", ExpiresIn: 3600}}
	r := newAuthEngine(t, m, nil)

	form := url.Values{}
	form.Set("email", "ivan@example.com")
	form.Set("password", "secret1")

	w := postForm(r, "/auth/login", form)
	if u := redirectURL(t, w); u.Path != "/" {
		t.Errorf("expected redirect to home, got %s", u.Path)
	}
	ck := findCookie(w, "armgs_session")
	if ck == nil || ck.Value != "tok" || !ck.HttpOnly {
		t.Errorf("unexpected session cookie: %+v", ck)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	m := &mockAuthService{loginErr: service.ErrInvalidCredentials}
	r := newAuthEngine(t, m, nil)

	form := url.Values{}
	form.Set("email", "ivan@example.com")
	form.Set("password", "wrong")

	w := postForm(r, "/auth/login", form)
	if u := redirectURL(t, w); u.Path != "/auth/login" {
		t.Errorf("expected back to login, got %s", u.Path)
	}
	if findCookie(w, "armgs_session") != nil {
		t.Error("session cookie must not be set")
	}
	if flash := flashOf(t, w); flash[0].Message != service.ErrInvalidCredentials.Error() {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	m := &mockAuthService{registerErr: service.ErrUserExists}
	r := newAuthEngine(t, m, nil)

	form := url.Values{}
	form.Set("username", "ivan")
	form.Set("email", "ivan@example.com")
	form.Set("password", "secret1")

	w := postForm(r, "/auth/register", form)
	if u := redirectURL(t, w); u.Path != "/auth/register" {
		t.Errorf("expected back to register, got %s", u.Path)
	}
	if flash := flashOf(t, w); flash[0].Level != "warning" {
		t.Errorf("unexpected flash: %+v", flash)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	r := newAuthEngine(t, &mockAuthService{}, nil)

	form := url.Values{}
	form.Set("username", "ivan")
	form.Set("email", "ivan@example.com")
	form.Set("password", "secret1")

	w := postForm(r, "/auth/register", form)
	if u := redirectURL(t, w); u.Path != "/auth/login" {
		t.Errorf("expected redirect to login, got %s", u.Path)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	m := &mockAuthService{}
	r := newAuthEngine(t, m, &middleware.Principal{UserID: 1, Username: "ivan", Claims: &jwt.Claims{Username: "ivan"}})

	w := get(r, "/auth/logout")
	if u := redirectURL(t, w); u.Path != "/auth/login" {
		t.Errorf("expected redirect to login, got %s", u.Path)
	}
	if m.logoutCalls != 1 {
		t.Errorf("expected logout call, got %d", m.logoutCalls)
	}
	ck := findCookie(w, "armgs_session")
	if ck == nil || ck.MaxAge >= 0 {
		t.Error("session cookie should be cleared")
	}
}

func TestAuthHandler_Logout_WithoutPrincipal(t *testing.T) {
	m := &mockAuthService{}
	r := newAuthEngine(t, m, nil)

	w := get(r, "/auth/logout")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if m.logoutCalls != 0 {
		t.Errorf("logout must not be called, got %d", m.logoutCalls)
	}
}

// ═══════════════════════════════════════════════════════════
// Helpers Tests
// ═══════════════════════════════════════════════════════════

func TestParseID(t *testing.T) {
	if id, err := parseID(""); err != nil || id != nil {
		t.Errorf("empty → nil, got %v %v", id, err)
	}
	if id, err := parseID("0"); err != nil || id != nil {
		t.Errorf("0 → nil, got %v %v", id, err)
	}
	if id, err := parseID(" 12 "); err != nil || id == nil || *id != 12 {
		t.Errorf("12 → 12, got %v %v", id, err)
	}
	if _, err := parseID("-1"); err == nil {
		t.Error("negative must fail")
	}
}

func TestAddRefField(t *testing.T) {
	if got := addRefField(oesInfo); got != "oes_type" {
		t.Errorf("expected oes_type, got %s", got)
	}
	if got := addRefField(resInfo); got != "oes" {
		t.Errorf("expected oes, got %s", got)
	}
}
