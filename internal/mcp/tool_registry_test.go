package mcp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *ToolRegistry {
	r := NewToolRegistry()
	r.RegisterAll([]*ToolMetadata{
		{Name: "dev_status", Description: "Ultra-compact status: phase|errors|next", Category: CategoryStatus, Keywords: []string{"workflow"}},
		{Name: "dev_check", Description: "CI-ready check", Category: CategoryQuality, Keywords: []string{"lint"}},
		{Name: "dev_fix", Description: "Get fix commands only", Category: CategoryQuality, Keywords: []string{"lint", "format"}},
		{Name: "dev_commits", Description: "Commits grouped by type for release notes", Category: CategoryRelease, DeferLoading: true},
		{Name: "dev_config", Description: "Platform-specific configuration", Category: CategoryConfig, DeferLoading: true, Keywords: []string{"scopes"}},
	})
	return r
}

func names(tools []*ToolMetadata) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Name)
	}
	return out
}

func TestToolRegistry_Register(t *testing.T) {
	r := NewToolRegistry()
	r.Register(nil)
	r.Register(&ToolMetadata{Description: "no name"})
	assert.Zero(t, r.Count())

	tool := &ToolMetadata{Name: "dev_next", Description: "Suggested next command", Category: CategoryStatus}
	r.Register(tool)
	got, ok := r.Get("dev_next")
	require.True(t, ok)
	assert.Same(t, tool, got)

	_, ok = r.Get("dev_missing")
	assert.False(t, ok)
}

func TestToolRegistry_Lists(t *testing.T) {
	r := testRegistry()

	assert.Equal(t, 5, r.Count())
	assert.Equal(t, []string{"dev_check", "dev_commits", "dev_config", "dev_fix", "dev_status"}, names(r.List()))
	assert.Equal(t, []string{"dev_check", "dev_commits", "dev_config", "dev_fix", "dev_status"}, r.ListNames())
	assert.Equal(t, []string{"dev_check", "dev_fix"}, names(r.ListByCategory(CategoryQuality)))
	assert.Equal(t, []string{"dev_commits", "dev_config"}, names(r.ListDeferred()))
	assert.Equal(t, []string{"dev_check", "dev_fix", "dev_status"}, names(r.ListNonDeferred()))
	assert.Empty(t, r.ListByCategory(CategoryPR))
}

func TestToolRegistry_Search(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantNames  []string
		wantScore  int
		wantReason string
	}{
		{"exact name", "dev_status", []string{"dev_status"}, 3, "exact name match"},
		{"case insensitive", "DEV_FIX", []string{"dev_fix"}, 3, "exact name match"},
		{"name contains", "mmit", []string{"dev_commits"}, 2, "name contains query"},
		{"name pattern", "^dev_c.*s$", []string{"dev_commits"}, 2, "name matches pattern"},
		{"description", "release notes", []string{"dev_commits"}, 1, "description contains query"},
		{"keyword", "scopes", []string{"dev_config"}, 1, "keyword contains query"},
		{"no match", "kubernetes", nil, 0, ""},
		{"empty", "", nil, 0, ""},
	}
	r := testRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Search(tt.query)
			var gotNames []string
			for _, res := range got {
				gotNames = append(gotNames, res.Tool.Name)
			}
			assert.Equal(t, tt.wantNames, gotNames)
			if len(got) > 0 {
				assert.Equal(t, tt.wantScore, got[0].Score)
				assert.Equal(t, tt.wantReason, got[0].MatchReason)
			}
		})
	}
}

func TestToolRegistry_SearchSorting(t *testing.T) {
	r := testRegistry()

	got := r.Search("dev_c")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"dev_check", "dev_commits", "dev_config"},
		[]string{got[0].Tool.Name, got[1].Tool.Name, got[2].Tool.Name})

	got = r.Search("lint|check")
	require.Len(t, got, 2)
	assert.Equal(t, "dev_check", got[0].Tool.Name)
	assert.Equal(t, 2, got[0].Score)
	assert.Equal(t, "dev_fix", got[1].Tool.Name)
	assert.Equal(t, 1, got[1].Score)
}

func TestToolRegistry_SearchInvalidRegex(t *testing.T) {
	r := testRegistry()
	r.Register(&ToolMetadata{Name: "dev_[x", Description: "odd name", Category: CategorySearch})

	got := r.Search("dev_[x")
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Score)
}

func TestToolRegistry_SearchByCategory(t *testing.T) {
	r := testRegistry()
	got := r.SearchByCategory("lint", CategoryQuality)
	assert.Len(t, got, 2)
	assert.Empty(t, r.SearchByCategory("lint", CategoryRelease))
}

func TestToolRegistry_ConcurrentAccess(t *testing.T) {
	r := testRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(&ToolMetadata{Name: "dev_status", Category: CategoryStatus})
		}()
		go func() {
			defer wg.Done()
			_ = r.Search("dev")
			_ = r.List()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, r.Count())
}
