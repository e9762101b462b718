package dispatch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver turns a registry entry into the exact shell command to execute.
// Resolution is pure string building, so the produced command can be
// inspected (and tested) before anything runs.
type Resolver struct {
	registry    *Registry
	interpreter string
	scriptDir   string
	dbPath      string
}

type ResolverConfig struct {
	Registry    *Registry
	Interpreter string
	ScriptDir   string
	DBPath      string
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Interpreter == "" {
		cfg.Interpreter = "python3"
	}
	return &Resolver{
		registry:    cfg.Registry,
		interpreter: cfg.Interpreter,
		scriptDir:   cfg.ScriptDir,
		dbPath:      cfg.DBPath,
	}
}

// Resolve looks up keyword as a query first, then as a tool id, and returns
// the full shell command with extra args appended. Unknown keywords report
// the whole valid keyword set.
func (r *Resolver) Resolve(keyword string, extra []string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", fmt.Errorf("empty keyword (available: %v)", r.registry.Keywords())
	}

	if q, ok := r.registry.Query(keyword); ok {
		return r.build(q.Script, q.Args, extra), nil
	}
	if t, ok := r.registry.Tool(keyword); ok {
		return r.build(t.Script, nil, extra), nil
	}
	return "", fmt.Errorf("unknown keyword: %s (available: %v)", keyword, r.registry.Keywords())
}

func (r *Resolver) build(script string, fixed, extra []string) string {
	if r.scriptDir != "" {
		script = filepath.Join(r.scriptDir, script)
	}

	parts := []string{r.interpreter, ShellQuote(script)}
	for _, a := range fixed {
		parts = append(parts, ShellQuote(a))
	}
	parts = append(parts, "--db", ShellQuote(r.dbPath))
	for _, a := range extra {
		parts = append(parts, ShellQuote(a))
	}
	return strings.Join(parts, " ")
}

// ShellQuote makes a single argument safe for sh -c. Plain words pass
// through untouched; anything else is single-quoted.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if isPlainWord(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isPlainWord(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.ContainsRune("_@%+=:,./-", c):
		default:
			return false
		}
	}
	return true
}
