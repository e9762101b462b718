package dispatch

import "log/slog"

// Builtin returns the registry pre-populated with the standard publisher
// inspection queries and tools. User YAML definitions may override any of
// these by keyword or id.
func Builtin(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)

	for _, q := range builtinQueries {
		r.RegisterQuery(q)
	}
	for _, t := range builtinTools {
		r.RegisterTool(t)
	}
	return r
}

var builtinQueries = []QuerySpec{
	{
		Keyword:     "overview",
		Description: "Full database overview: accounts, tweets, task queue",
		Script:      "enhanced_db_viewer.py",
	},
	{
		Keyword:     "pending",
		Description: "Tasks waiting to be published",
		Script:      "task_query.py",
		Args:        []string{"--status", "pending"},
	},
	{
		Keyword:     "urgent",
		Description: "Tasks past their scheduled publish time",
		Script:      "task_query.py",
		Args:        []string{"--urgent"},
	},
	{
		Keyword:     "failed",
		Description: "Tasks whose last publish attempt failed",
		Script:      "task_query.py",
		Args:        []string{"--status", "failed"},
	},
	{
		Keyword:     "completed",
		Description: "Recently completed tasks",
		Script:      "task_query.py",
		Args:        []string{"--status", "completed"},
	},
	{
		Keyword:     "today",
		Description: "Tasks scheduled for today",
		Script:      "task_query.py",
		Args:        []string{"--today"},
	},
	{
		Keyword:     "stats",
		Description: "One-shot queue and table statistics",
		Script:      "quick_db_monitor.py",
		Args:        []string{"--stats"},
	},
	{
		Keyword:     "watch",
		Description: "Continuously refreshed queue monitor",
		Script:      "quick_db_monitor.py",
		Args:        []string{"--watch"},
	},
	{
		Keyword:     "backup",
		Description: "Trigger a publisher database backup",
		Script:      "db_admin.py",
		Args:        []string{"backup"},
	},
	{
		Keyword:     "integrity",
		Description: "Run database integrity checks",
		Script:      "db_admin.py",
		Args:        []string{"check"},
	},
}

var builtinTools = []ToolSpec{
	{
		ID:          "viewer",
		Description: "Rich database browser",
		Script:      "enhanced_db_viewer.py",
		Functions:   []string{"overview", "tweets", "tasks", "search"},
	},
	{
		ID:          "tasks",
		Description: "Task queue queries",
		Script:      "task_query.py",
		Functions:   []string{"pending", "urgent", "failed", "completed", "today"},
	},
	{
		ID:          "monitor",
		Description: "Lightweight status monitor",
		Script:      "quick_db_monitor.py",
		Functions:   []string{"stats", "watch"},
	},
	{
		ID:          "admin",
		Description: "Database administration",
		Script:      "db_admin.py",
		Functions:   []string{"backup", "restore", "check", "vacuum"},
	},
	{
		ID:          "system",
		Description: "Host and publisher process monitoring",
		Script:      "system_monitor.py",
		Functions:   []string{"status", "resources"},
	},
	{
		ID:          "manager",
		Description: "Task lifecycle management",
		Script:      "task_manager.py",
		Functions:   []string{"add", "retry", "cancel"},
	},
}
