package dispatch

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// QuerySpec maps a dispatch keyword to an external script invocation.
type QuerySpec struct {
	Keyword     string
	Description string
	Script      string
	Args        []string // fixed args placed before --db
}

// ToolSpec describes one downstream inspection tool.
type ToolSpec struct {
	ID          string
	Description string
	Script      string
	Functions   []string // supported sub-functions, free text
}

// Registry holds the enumerated query and tool entries. Entries are
// registered once at startup and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	queries map[string]QuerySpec
	tools   map[string]ToolSpec
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		queries: make(map[string]QuerySpec),
		tools:   make(map[string]ToolSpec),
		logger:  logger,
	}
}

// RegisterQuery adds or overrides a query entry.
func (r *Registry) RegisterQuery(q QuerySpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries[q.Keyword] = q
	r.logger.Debug("registered query", "keyword", q.Keyword, "script", q.Script)
}

// RegisterTool adds or overrides a tool entry.
func (r *Registry) RegisterTool(t ToolSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.ID] = t
	r.logger.Debug("registered tool", "id", t.ID, "script", t.Script)
}

func (r *Registry) Query(keyword string) (QuerySpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queries[keyword]
	return q, ok
}

func (r *Registry) Tool(id string) (ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// Keywords returns every dispatchable keyword (queries and tool ids), sorted.
func (r *Registry) Keywords() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keywords := make([]string, 0, len(r.queries)+len(r.tools))
	for k := range r.queries {
		keywords = append(keywords, k)
	}
	for id := range r.tools {
		keywords = append(keywords, id)
	}
	sort.Strings(keywords)
	return keywords
}

// Queries returns all query entries sorted by keyword.
func (r *Registry) Queries() []QuerySpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	queries := make([]QuerySpec, 0, len(r.queries))
	for _, q := range r.queries {
		queries = append(queries, q)
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].Keyword < queries[j].Keyword })
	return queries
}

// Tools returns all tool entries sorted by id.
func (r *Registry) Tools() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].ID < tools[j].ID })
	return tools
}

// Validate checks the registry before any dispatch happens. A keyword that is
// both a query and a tool id would make lookup order-dependent, so it is
// rejected here rather than silently shadowed.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []string
	for keyword, q := range r.queries {
		if keyword == "" {
			errs = append(errs, "query with empty keyword")
			continue
		}
		if strings.TrimSpace(q.Script) == "" {
			errs = append(errs, fmt.Sprintf("query %q: script must not be empty", keyword))
		}
		if _, ok := r.tools[keyword]; ok {
			errs = append(errs, fmt.Sprintf("%q is both a query keyword and a tool id", keyword))
		}
	}
	for id, t := range r.tools {
		if id == "" {
			errs = append(errs, "tool with empty id")
			continue
		}
		if strings.TrimSpace(t.Script) == "" {
			errs = append(errs, fmt.Sprintf("tool %q: script must not be empty", id))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
