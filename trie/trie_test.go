package trie

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bawdo/oxisql/internal/testutil"
)

// --- Insert / SearchAll ---

func TestSearchAllEmptyTrie(t *testing.T) {
	t.Parallel()
	got := New().SearchAll("")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSearchAllInsertionOrder(t *testing.T) {
	t.Parallel()
	tr := New()
	for _, w := range []string{"zeta", "alpha", "mid", "alp"} {
		tr.Insert(w)
	}
	testutil.AssertSlice(t, tr.SearchAll(""), []string{"zeta", "alpha", "mid", "alp"})
}

func TestSearchAllOrderAcrossBranches(t *testing.T) {
	t.Parallel()
	// Repeat to give random map iteration a chance to misorder siblings.
	for i := 0; i < 50; i++ {
		tr := FromSlice([]string{"b", "a", "c", "ab", "ba", "ca"})
		testutil.AssertSlice(t, tr.SearchAll(""), []string{"b", "a", "c", "ab", "ba", "ca"})
	}
}

func TestReinsertMovesToEnd(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"one", "two", "three"})
	tr.Insert("one")
	testutil.AssertSlice(t, tr.SearchAll(""), []string{"two", "three", "one"})
	testutil.AssertEqual(t, tr.Len(), 3)
}

func TestSearchAllPrefix(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"SELECT 1;", "SHOW TABLES;", "SELECT 2;", "UPDATE t SET a = 1;"})
	got := tr.SearchAll("SE")
	testutil.AssertSlice(t, got, []string{"SELECT 1;", "SELECT 2;"})
	for _, w := range got {
		if !strings.HasPrefix(w, "SE") {
			t.Errorf("%q does not start with prefix", w)
		}
	}
}

func TestSearchAllPrefixIsWord(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"user", "users", "user_id"})
	testutil.AssertSlice(t, tr.SearchAll("user"), []string{"user", "users", "user_id"})
	testutil.AssertSlice(t, tr.SearchAll("users"), []string{"users"})
}

func TestSearchAllMissingEdge(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"users"})
	testutil.AssertEqual(t, len(tr.SearchAll("usx")), 0)
	testutil.AssertEqual(t, len(tr.SearchAll("usersx")), 0)
}

func TestSearchAllCaseSensitive(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"Users"})
	testutil.AssertEqual(t, len(tr.SearchAll("u")), 0)
	testutil.AssertSlice(t, tr.SearchAll("U"), []string{"Users"})
}

func TestSearchAllMultibyte(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"café", "cafe", "naïve"})
	testutil.AssertSlice(t, tr.SearchAll("caf"), []string{"café", "cafe"})
	testutil.AssertSlice(t, tr.SearchAll("caf\u00e9"), []string{"café"})
	testutil.AssertSlice(t, tr.SearchAll("naï"), []string{"naïve"})
}

func TestSearchAllInvalidUTF8(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"a\xff", "a\xfe", "a\ufffd"})
	testutil.AssertSlice(t, tr.SearchAll(""), []string{"a\xff", "a\xfe", "a\ufffd"})
	testutil.AssertSlice(t, tr.SearchAll("a\xfe"), []string{"a\xfe"})
	testutil.AssertSlice(t, tr.SearchAll("a\ufffd"), []string{"a\ufffd"})
	testutil.AssertEqual(t, tr.Len(), 3)
}

func TestSearchAllPrefixProperty(t *testing.T) {
	t.Parallel()
	words := []string{"a", "ab", "abc", "b", "ba", "abd", "", "bab"}
	tr := FromSlice(words)
	for _, p := range []string{"", "a", "ab", "b", "ba", "c", "abcd"} {
		got := tr.SearchAll(p)
		want := 0
		for _, w := range words {
			if strings.HasPrefix(w, p) {
				want++
			}
		}
		if len(got) != want {
			t.Errorf("prefix %q: expected %d matches, got %v", p, want, got)
		}
		for _, w := range got {
			if !strings.HasPrefix(w, p) {
				t.Errorf("prefix %q: unexpected match %q", p, w)
			}
		}
	}
}

// --- Persistence ---

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	tr := FromSlice([]string{"SELECT 1;", "SELECT 2;", "SHOW TABLES;"})
	tr.Insert("SELECT 1;")

	path := filepath.Join(t.TempDir(), "nested", "dir", "queries.trie.json")
	testutil.AssertNoError(t, tr.Save(path))

	loaded, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertSlice(t, loaded.SearchAll(""), tr.SearchAll(""))

	// The counter survives the round trip.
	loaded.Insert("SELECT 2;")
	testutil.AssertSlice(t, loaded.SearchAll(""), []string{"SHOW TABLES;", "SELECT 1;", "SELECT 2;"})
}

func TestSaveLoadInvalidUTF8(t *testing.T) {
	t.Parallel()
	words := []string{"a\xff", "a\xfe", "SELECT '\xc3';", "caf\u00e9"}
	path := filepath.Join(t.TempDir(), "h.json")
	testutil.AssertNoError(t, FromSlice(words).Save(path))

	loaded, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertSlice(t, loaded.SearchAll(""), words)
	testutil.AssertSlice(t, loaded.SearchAll("a\xff"), []string{"a\xff"})
	testutil.AssertEqual(t, loaded.Len(), 4)
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "h.json")
	testutil.AssertNoError(t, FromSlice([]string{"old;"}).Save(path))
	testutil.AssertNoError(t, FromSlice([]string{"new;"}).Save(path))

	loaded, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertSlice(t, loaded.SearchAll(""), []string{"new;"})

	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestSaveIsReadableText(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "h.json")
	testutil.AssertNoError(t, FromSlice([]string{"ab"}).Save(path))
	data, err := os.ReadFile(path)
	testutil.AssertNoError(t, err)
	for _, want := range []string{`"version": 1`, `"next": 1`, `"value": "ab"`, `"a": 1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("snapshot missing %s:\n%s", want, data)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestLoadOrNewMissingFile(t *testing.T) {
	t.Parallel()
	tr, err := LoadOrNew(filepath.Join(t.TempDir(), "absent.json"))
	testutil.AssertError(t, err)
	if tr == nil {
		t.Fatal("expected a usable trie")
	}
	testutil.AssertEqual(t, len(tr.SearchAll("")), 0)
	tr.Insert("x;")
	testutil.AssertSlice(t, tr.SearchAll(""), []string{"x;"})
}

func TestLoadCorrupt(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"garbage":         "not json {",
		"empty":           "",
		"bad version":     `{"version": 9, "next": 0, "nodes": [{}]}`,
		"no root":         `{"version": 1, "next": 0, "nodes": []}`,
		"child range":     `{"version": 1, "next": 1, "nodes": [{"children": {"a": 4}}]}`,
		"child is root":   `{"version": 1, "next": 0, "nodes": [{"children": {"a": 0}}]}`,
		"shared child":    `{"version": 1, "next": 1, "nodes": [{"children": {"a": 1, "b": 1}}, {"terminal": true, "value": "a"}]}`,
		"long edge":       `{"version": 1, "next": 1, "nodes": [{"children": {"ab": 1}}, {"terminal": true, "value": "ab"}]}`,
		"wrong value":     `{"version": 1, "next": 1, "nodes": [{"children": {"a": 1}}, {"terminal": true, "value": "b"}]}`,
		"index past next": `{"version": 1, "next": 1, "nodes": [{"children": {"a": 1}}, {"terminal": true, "value": "a", "index": 3}]}`,
		"unreachable":     `{"version": 1, "next": 0, "nodes": [{}, {}]}`,
		"cycle":           `{"version": 1, "next": 0, "nodes": [{}, {"children": {"a": 2}}, {"children": {"b": 1}}]}`,
		"raw edge hex":    `{"version": 1, "next": 0, "nodes": [{"raw_children": {"zz": 1}}, {}]}`,
		"raw edge long":   `{"version": 1, "next": 0, "nodes": [{"raw_children": {"ffff": 1}}, {}]}`,
		"raw edge valid":  `{"version": 1, "next": 0, "nodes": [{"raw_children": {"61": 1}}, {}]}`,
		"raw value path":  `{"version": 1, "next": 1, "nodes": [{"raw_children": {"ff": 1}}, {"terminal": true, "raw_value": "/g=="}]}`,
		"two values":      `{"version": 1, "next": 1, "nodes": [{"raw_children": {"ff": 1}}, {"terminal": true, "value": "x", "raw_value": "/w=="}]}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "h.json")
			testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := Load(path)
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("expected ErrCorrupt, got %v", err)
			}
			tr, err := LoadOrNew(path)
			testutil.AssertError(t, err)
			testutil.AssertEqual(t, len(tr.SearchAll("")), 0)
		})
	}
}
