package mcp

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// ToolCategory represents the functional category of a tool.
type ToolCategory string

const (
	// CategoryStatus is for phase and next-step tools.
	CategoryStatus ToolCategory = "status"
	// CategoryQuality is for lint check and fix tools.
	CategoryQuality ToolCategory = "quality"
	// CategoryChanges is for build recommendation tools.
	CategoryChanges ToolCategory = "changes"
	// CategoryPR is for pull request control.
	CategoryPR ToolCategory = "pr"
	// CategoryRelease is for version and commit history tools.
	CategoryRelease ToolCategory = "release"
	// CategoryConfig is for platform configuration.
	CategoryConfig ToolCategory = "config"
	// CategorySearch is for tool discovery (tool_search itself).
	CategorySearch ToolCategory = "search"
)

// ToolMetadata contains metadata about a registered MCP tool.
type ToolMetadata struct {
	// Name is the unique tool name (e.g., "dev_status").
	Name string `json:"name"`

	// Description is a human-readable description of what the tool does.
	Description string `json:"description"`

	// Category is the functional category of the tool.
	Category ToolCategory `json:"category"`

	// DeferLoading marks tools clients may leave out of the initial tool
	// list and find through tool_search instead.
	DeferLoading bool `json:"defer_loading"`

	// Keywords are additional searchable terms for this tool.
	Keywords []string `json:"keywords,omitempty"`
}

// ToolRegistry holds the metadata of every registered MCP tool for
// tool_search and tool_list.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*ToolMetadata
}

// NewToolRegistry creates a new tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*ToolMetadata),
	}
}

// Register adds a tool to the registry.
func (r *ToolRegistry) Register(tool *ToolMetadata) {
	if tool == nil || tool.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// RegisterAll adds multiple tools to the registry.
func (r *ToolRegistry) RegisterAll(tools []*ToolMetadata) {
	for _, tool := range tools {
		r.Register(tool)
	}
}

// Get returns the metadata for a specific tool.
func (r *ToolRegistry) Get(name string) (*ToolMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tool metadata.
func (r *ToolRegistry) List() []*ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*ToolMetadata, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sortTools(result)
	return result
}

// ListNames returns all registered tool names.
func (r *ToolRegistry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.tools))
	for name := range r.tools {
		result = append(result, name)
	}
	slices.Sort(result)
	return result
}

// ListByCategory returns the tools in category, sorted by name.
func (r *ToolRegistry) ListByCategory(category ToolCategory) []*ToolMetadata {
	return r.filter(func(t *ToolMetadata) bool { return t.Category == category })
}

// ListNonDeferred returns the tools sent in the initial tool list.
func (r *ToolRegistry) ListNonDeferred() []*ToolMetadata {
	return r.filter(func(t *ToolMetadata) bool { return !t.DeferLoading })
}

// ListDeferred returns the tools found only through tool_search.
func (r *ToolRegistry) ListDeferred() []*ToolMetadata {
	return r.filter(func(t *ToolMetadata) bool { return t.DeferLoading })
}

func (r *ToolRegistry) filter(keep func(*ToolMetadata) bool) []*ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*ToolMetadata, 0)
	for _, tool := range r.tools {
		if keep(tool) {
			result = append(result, tool)
		}
	}
	sortTools(result)
	return result
}

// SearchResult contains a tool match from a search query.
type SearchResult struct {
	// Tool is the matched tool metadata.
	Tool *ToolMetadata `json:"tool"`

	// Score indicates match quality (higher is better).
	// 3 = exact name match
	// 2 = name contains query
	// 1 = description/keywords match
	Score int `json:"score"`

	// MatchReason describes why this tool matched.
	MatchReason string `json:"match_reason"`
}

// Search finds tools matching query, case-insensitively, against names,
// descriptions and keywords. A query that compiles as a regular expression
// is also matched as one.
func (r *ToolRegistry) Search(query string) []*SearchResult {
	if query == "" {
		return nil
	}
	m := newMatcher(query)

	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*SearchResult
	for _, tool := range r.tools {
		if score, reason := m.match(tool); score > 0 {
			results = append(results, &SearchResult{Tool: tool, Score: score, MatchReason: reason})
		}
	}
	sortSearchResults(results)
	return results
}

type matcher struct {
	lower string
	re    *regexp.Regexp
}

func newMatcher(query string) matcher {
	m := matcher{lower: strings.ToLower(query)}
	if re, err := regexp.Compile("(?i)" + query); err == nil {
		m.re = re
	}
	return m
}

func (m matcher) contains(s string) bool {
	return strings.Contains(strings.ToLower(s), m.lower)
}

func (m matcher) pattern(s string) bool {
	return m.re != nil && m.re.MatchString(s)
}

// match returns the best score for tool and why, or 0.
func (m matcher) match(tool *ToolMetadata) (int, string) {
	switch {
	case strings.ToLower(tool.Name) == m.lower:
		return 3, "exact name match"
	case m.contains(tool.Name):
		return 2, "name contains query"
	case m.pattern(tool.Name):
		return 2, "name matches pattern"
	case m.contains(tool.Description):
		return 1, "description contains query"
	case m.pattern(tool.Description):
		return 1, "description matches pattern"
	}
	for _, kw := range tool.Keywords {
		if m.contains(kw) {
			return 1, "keyword contains query"
		}
		if m.pattern(kw) {
			return 1, "keyword matches pattern"
		}
	}
	return 0, ""
}

// SearchByCategory searches within a specific category.
func (r *ToolRegistry) SearchByCategory(query string, category ToolCategory) []*SearchResult {
	allResults := r.Search(query)
	filtered := make([]*SearchResult, 0)
	for _, result := range allResults {
		if result.Tool.Category == category {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// Count returns the total number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// sortSearchResults orders by score descending, then by name.
func sortSearchResults(results []*SearchResult) {
	slices.SortFunc(results, func(a, b *SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Tool.Name, b.Tool.Name)
	})
}

func sortTools(tools []*ToolMetadata) {
	slices.SortFunc(tools, func(a, b *ToolMetadata) int { return cmp.Compare(a.Name, b.Name) })
}
