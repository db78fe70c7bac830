package pipeline

import (
	"context"
	"os"
	"testing"
	"time"

	"later-go/internal/config"
	"later-go/internal/model"
	"later-go/pkg/llm"
	"later-go/pkg/log"
	"later-go/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init("error", "json", "")
	os.Exit(m.Run())
}

// fakeToolRepo 是内存版的 ToolRepository，只实现解析阶段用到的行为。
type fakeToolRepo struct {
	byCanonical map[string]*model.Tool
	byAlias     map[string]*model.Tool
	created     []*model.Tool
	aliases     []*model.ToolAlias
}

func newFakeToolRepo() *fakeToolRepo {
	return &fakeToolRepo{
		byCanonical: map[string]*model.Tool{},
		byAlias:     map[string]*model.Tool{},
	}
}

func (f *fakeToolRepo) Create(tool *model.Tool) error {
	if tool.ID == "" {
		tool.ID = "tool-created"
	}
	f.created = append(f.created, tool)
	return nil
}

func (f *fakeToolRepo) FindByID(id string) (*model.Tool, error) { return nil, nil }

func (f *fakeToolRepo) FindByCanonicalURL(canonicalURL string) (*model.Tool, error) {
	return f.byCanonical[canonicalURL], nil
}

func (f *fakeToolRepo) FindByAlias(aliasValue string) (*model.Tool, error) {
	return f.byAlias[aliasValue], nil
}

func (f *fakeToolRepo) List(offset, limit int) ([]*model.Tool, error) { return nil, nil }
func (f *fakeToolRepo) UpdateName(id, name string) error              { return nil }
func (f *fakeToolRepo) UpdateStatus(id, status string) error          { return nil }
func (f *fakeToolRepo) UpdateOnePager(id, onePagerJSON string) error  { return nil }
func (f *fakeToolRepo) UpdateCategoryTags(id, tags string) error      { return nil }
func (f *fakeToolRepo) CreateUpdate(update *model.ToolUpdate) error   { return nil }
func (f *fakeToolRepo) ListUpdates(string, int) ([]*model.ToolUpdate, error) {
	return nil, nil
}

func (f *fakeToolRepo) BatchCreateAliases(aliases []*model.ToolAlias) error {
	f.aliases = append(f.aliases, aliases...)
	return nil
}

func (f *fakeToolRepo) DeleteTree(string) error { return nil }

// fakeVersionRepo 只提供新鲜度门用到的最新版本查询。
type fakeVersionRepo struct {
	latest *model.ToolVersion
}

func (f *fakeVersionRepo) CreateNewLatest(version *model.ToolVersion) error { return nil }
func (f *fakeVersionRepo) FindByID(id string) (*model.ToolVersion, error)   { return nil, nil }
func (f *fakeVersionRepo) FindLatestByToolID(toolID string) (*model.ToolVersion, error) {
	return f.latest, nil
}
func (f *fakeVersionRepo) ListByToolID(string) ([]*model.ToolVersion, error) { return nil, nil }
func (f *fakeVersionRepo) DeleteLatest(string) error                         { return nil }
func (f *fakeVersionRepo) LinkDocuments(string, []uint) error                { return nil }
func (f *fakeVersionRepo) ListDocumentIDs(string) ([]uint, error)            { return nil, nil }
func (f *fakeVersionRepo) LinkUser(string, string) error                     { return nil }
func (f *fakeVersionRepo) BatchCreateMediaItems([]*model.MediaItem) error    { return nil }
func (f *fakeVersionRepo) FindMediaItems(string, string) ([]*model.MediaItem, error) {
	return nil, nil
}
func (f *fakeVersionRepo) FindUserLinkedByToolID(string, string) (*model.ToolVersion, error) {
	return nil, nil
}
func (f *fakeVersionRepo) CountOtherLinkedUsers(string, string) (int64, error) { return 0, nil }
func (f *fakeVersionRepo) UnlinkUserFromTool(string, string) error             { return nil }

// fakeDocRepo 记录强制刷新时的清理范围。
type fakeDocRepo struct {
	purgedTool   string
	purgedSource string
}

func (f *fakeDocRepo) Create(*model.Document) error        { return nil }
func (f *fakeDocRepo) BatchCreate([]*model.Document) error { return nil }
func (f *fakeDocRepo) FindRecentByToolID(string, int) ([]*model.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) FindByIDs([]uint) ([]*model.Document, error) { return nil, nil }
func (f *fakeDocRepo) DeleteByToolAndSource(toolID, sourceURL string) ([]uint, error) {
	f.purgedTool = toolID
	f.purgedSource = sourceURL
	return nil, nil
}

// fakeLLM 按预置值响应，未预置的方法返回零值。
type fakeLLM struct {
	productName  string
	officialPick string
	synthHints   llm.SynthesisHints
}

func (f *fakeLLM) StreamChatMessages(context.Context, []llm.Message, *llm.GenerationParams, llm.MessageWriter) error {
	return nil
}
func (f *fakeLLM) Complete(context.Context, []llm.Message) (string, error) { return "", nil }
func (f *fakeLLM) SynthesizeOnePager(_ context.Context, _ string, _ string, hints llm.SynthesisHints) (model.OnePager, error) {
	f.synthHints = hints
	return model.OnePager{}, nil
}
func (f *fakeLLM) ExtractPricing(context.Context, string, string) (map[string]string, error) {
	return nil, nil
}
func (f *fakeLLM) PickOfficialSite(context.Context, string, []llm.SiteCandidate) (string, error) {
	return f.officialPick, nil
}
func (f *fakeLLM) ClassifyScreenshotIntent(context.Context, string) (string, error) {
	return "other", nil
}
func (f *fakeLLM) ExtractProductName(context.Context, string) (string, error) {
	return f.productName, nil
}

type fakeSearch struct {
	results []search.Result
}

func (f *fakeSearch) Search(context.Context, string, int) ([]search.Result, error) {
	return f.results, nil
}

func newTestOrchestrator(toolRepo *fakeToolRepo, versionRepo *fakeVersionRepo, llmClient llm.Client, searchClient search.Client) *Orchestrator {
	return NewOrchestrator(
		llmClient,
		searchClient,
		nil, // scraper，解析阶段不使用
		nil, // transcript
		nil, // embedding
		toolRepo,
		&fakeDocRepo{},
		versionRepo,
		config.ElasticsearchConfig{IndexName: "test_chunks"},
	)
}

func TestResolveToolCreatesNewFromURL(t *testing.T) {
	toolRepo := newFakeToolRepo()
	o := newTestOrchestrator(toolRepo, &fakeVersionRepo{}, &fakeLLM{}, &fakeSearch{})

	s := &State{Input: Input{URL: "https://Example.com/App?utm_source=x"}}
	require.NoError(t, o.resolveTool(context.Background(), s))

	assert.Equal(t, "https://example.com/App", s.CanonicalURL)
	require.NotNil(t, s.Tool)
	require.NotNil(t, s.Tool.CanonicalURL)
	assert.Equal(t, s.CanonicalURL, *s.Tool.CanonicalURL)
	// 没有可信名字时用域名占位
	assert.Equal(t, "example.com", s.Tool.Name)
	assert.Equal(t, model.StatusPendingResearch, s.Tool.Status)

	// 占位名不播种 name 别名，只有 domain 别名
	require.Len(t, toolRepo.aliases, 1)
	assert.Equal(t, "domain", toolRepo.aliases[0].AliasType)
	assert.Equal(t, "example.com", toolRepo.aliases[0].AliasValue)
	assert.InDelta(t, 0.95, toolRepo.aliases[0].Confidence, 1e-9)
}

func TestResolveToolFreshVersionSkips(t *testing.T) {
	toolRepo := newFakeToolRepo()
	existing := &model.Tool{ID: "t-1", Name: "Notion"}
	toolRepo.byCanonical["https://notion.so/"] = existing
	versionRepo := &fakeVersionRepo{latest: &model.ToolVersion{}}
	versionRepo.latest.CreatedAt = time.Now()

	o := newTestOrchestrator(toolRepo, versionRepo, &fakeLLM{}, &fakeSearch{})
	s := &State{Input: Input{URL: "https://notion.so"}}
	require.NoError(t, o.resolveTool(context.Background(), s))

	assert.True(t, s.SkipProcessing)
	assert.Equal(t, existing, s.Tool)
	assert.Empty(t, toolRepo.created)
}

func TestResolveToolStaleVersionContinues(t *testing.T) {
	toolRepo := newFakeToolRepo()
	toolRepo.byCanonical["https://notion.so/"] = &model.Tool{ID: "t-1", Name: "Notion"}
	versionRepo := &fakeVersionRepo{latest: &model.ToolVersion{}}
	versionRepo.latest.CreatedAt = time.Now().Add(-7 * time.Hour)

	o := newTestOrchestrator(toolRepo, versionRepo, &fakeLLM{}, &fakeSearch{})
	s := &State{Input: Input{URL: "https://notion.so"}}
	require.NoError(t, o.resolveTool(context.Background(), s))

	assert.False(t, s.SkipProcessing)
	require.NotNil(t, s.Tool)
	assert.Equal(t, "t-1", s.Tool.ID)
}

func TestResolveToolForcePurgesSingleSource(t *testing.T) {
	toolRepo := newFakeToolRepo()
	toolRepo.byCanonical["https://notion.so/"] = &model.Tool{ID: "t-1", Name: "Notion"}
	docRepo := &fakeDocRepo{}
	o := NewOrchestrator(
		&fakeLLM{},
		&fakeSearch{},
		nil,
		nil,
		nil,
		toolRepo,
		docRepo,
		&fakeVersionRepo{},
		config.ElasticsearchConfig{IndexName: "test_chunks"},
	)

	s := &State{Input: Input{URL: "https://notion.so", Force: true}}
	require.NoError(t, o.resolveTool(context.Background(), s))

	// 清理只落在本次来源上，而不是整个工具
	assert.False(t, s.SkipProcessing)
	assert.Equal(t, "t-1", docRepo.purgedTool)
	assert.Equal(t, "https://notion.so/", docRepo.purgedSource)
}

func TestResolveToolAliasHit(t *testing.T) {
	toolRepo := newFakeToolRepo()
	existing := &model.Tool{ID: "t-2", Name: "Figma"}
	toolRepo.byAlias["Figma"] = existing

	// 官网发现搜不到任何结果，走名字别名路径
	o := newTestOrchestrator(toolRepo, &fakeVersionRepo{}, &fakeLLM{}, &fakeSearch{})
	s := &State{Input: Input{Name: "Figma"}}
	require.NoError(t, o.resolveTool(context.Background(), s))

	assert.Equal(t, existing, s.Tool)
	assert.Empty(t, toolRepo.created)
}

func TestResolveToolInvalidIdentity(t *testing.T) {
	o := newTestOrchestrator(newFakeToolRepo(), &fakeVersionRepo{}, &fakeLLM{}, &fakeSearch{})

	// 既没有 URL，OCR 文本也提不出像样的名字
	s := &State{Input: Input{OCRText: "!!! ### $$$"}}
	err := o.resolveTool(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestResolveToolPlausibleNameSeedsAlias(t *testing.T) {
	toolRepo := newFakeToolRepo()
	o := newTestOrchestrator(toolRepo, &fakeVersionRepo{}, &fakeLLM{}, &fakeSearch{})

	s := &State{Input: Input{Name: "Notion"}}
	require.NoError(t, o.resolveTool(context.Background(), s))

	require.NotNil(t, s.Tool)
	assert.Equal(t, "Notion", s.Tool.Name)
	assert.Nil(t, s.Tool.CanonicalURL)
	require.Len(t, toolRepo.aliases, 1)
	assert.Equal(t, "name", toolRepo.aliases[0].AliasType)
	assert.InDelta(t, 0.9, toolRepo.aliases[0].Confidence, 1e-9)
}

func TestResolveToolOfficialSiteFallbackSkipsSocial(t *testing.T) {
	toolRepo := newFakeToolRepo()
	searchClient := &fakeSearch{results: []search.Result{
		{URL: "https://x.com/acme", Title: "Acme on X"},
		{URL: "https://acme.dev", Title: "Acme — build faster"},
	}}
	// 仲裁放弃（返回空串），兜底应跳过社交平台取第一个正经候选
	o := newTestOrchestrator(toolRepo, &fakeVersionRepo{}, &fakeLLM{officialPick: ""}, searchClient)

	s := &State{Input: Input{Name: "Acme"}}
	require.NoError(t, o.resolveTool(context.Background(), s))

	assert.Equal(t, "https://acme.dev/", s.CanonicalURL)
	require.NotNil(t, s.Tool)
	require.NotNil(t, s.Tool.CanonicalURL)
}
