package dispatch

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	reg := Builtin(testLogger())
	if err := reg.Validate(); err != nil {
		t.Fatalf("builtin registry invalid: %v", err)
	}
	return NewResolver(ResolverConfig{
		Registry:    reg,
		Interpreter: "python3",
		DBPath:      "twitter_publisher.db",
	})
}

func TestResolve_QueryKeyword_ExactCommand(t *testing.T) {
	r := newTestResolver(t)

	cmd, err := r.Resolve("pending", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "python3 task_query.py --status pending --db twitter_publisher.db"
	if cmd != want {
		t.Errorf("got  %q\nwant %q", cmd, want)
	}
}

func TestResolve_EveryBuiltinKeyword(t *testing.T) {
	r := newTestResolver(t)
	reg := Builtin(testLogger())

	for _, keyword := range reg.Keywords() {
		cmd, err := r.Resolve(keyword, nil)
		if err != nil {
			t.Errorf("keyword %q: %v", keyword, err)
			continue
		}
		if !strings.HasPrefix(cmd, "python3 ") {
			t.Errorf("keyword %q: command should start with interpreter, got %q", keyword, cmd)
		}
		if !strings.Contains(cmd, "--db twitter_publisher.db") {
			t.Errorf("keyword %q: command should carry the db path, got %q", keyword, cmd)
		}
	}
}

func TestResolve_ToolID_WithExtraArgs(t *testing.T) {
	r := newTestResolver(t)

	cmd, err := r.Resolve("viewer", []string{"search", "cat pics"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "python3 enhanced_db_viewer.py --db twitter_publisher.db search 'cat pics'"
	if cmd != want {
		t.Errorf("got  %q\nwant %q", cmd, want)
	}
}

func TestResolve_ScriptDirJoined(t *testing.T) {
	reg := Builtin(testLogger())
	r := NewResolver(ResolverConfig{
		Registry:    reg,
		Interpreter: "python3",
		ScriptDir:   "/opt/publisher/tools",
		DBPath:      "pub.db",
	})

	cmd, err := r.Resolve("overview", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "python3 /opt/publisher/tools/enhanced_db_viewer.py --db pub.db"
	if cmd != want {
		t.Errorf("got  %q\nwant %q", cmd, want)
	}
}

func TestResolve_UnknownKeyword_ListsAvailable(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve("bogus", nil)
	if err == nil {
		t.Fatal("expected error for unknown keyword")
	}
	msg := err.Error()
	if !strings.Contains(msg, "unknown keyword: bogus") {
		t.Errorf("error should name the keyword, got %q", msg)
	}
	for _, keyword := range []string{"overview", "pending", "viewer", "manager"} {
		if !strings.Contains(msg, keyword) {
			t.Errorf("error should list %q, got %q", keyword, msg)
		}
	}
}

func TestResolve_EmptyKeyword(t *testing.T) {
	r := newTestResolver(t)
	if _, err := r.Resolve("  ", nil); err == nil {
		t.Fatal("expected error for empty keyword")
	}
}

func TestResolve_DBPathQuoted(t *testing.T) {
	reg := Builtin(testLogger())
	r := NewResolver(ResolverConfig{
		Registry:    reg,
		Interpreter: "python3",
		DBPath:      "/data/my publisher.db",
	})

	cmd, err := r.Resolve("stats", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(cmd, "--db '/data/my publisher.db'") {
		t.Errorf("db path with spaces should be quoted, got %q", cmd)
	}
}

func TestShellQuote(t *testing.T) {
	if got := ShellQuote("plain-word_1.txt"); got != "plain-word_1.txt" {
		t.Errorf("plain word should pass through, got %q", got)
	}
	if got := ShellQuote("two words"); got != "'two words'" {
		t.Errorf("got %q", got)
	}
	if got := ShellQuote(""); got != "''" {
		t.Errorf("empty arg should become '', got %q", got)
	}
	if got := ShellQuote("it's"); got != `'it'\''s'` {
		t.Errorf("single quote should be escaped, got %q", got)
	}
	if got := ShellQuote("$(rm -rf /)"); got != "'$(rm -rf /)'" {
		t.Errorf("substitution should be neutralized, got %q", got)
	}
}
