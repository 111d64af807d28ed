// Package trie provides an ordered prefix index over strings.
//
// Every inserted string records the value of a per-trie insertion counter, so
// lookups can return matches in the order they were (most recently) inserted.
// Nodes live in an arena and reference their children by index, which keeps
// the structure a strict tree and makes it trivial to snapshot to disk.
package trie

import (
	"cmp"
	"slices"
	"unicode/utf8"
)

const root = 0

// node is one arena slot. children maps a single character to the arena
// index of the child node.
type node struct {
	children map[string]int
	terminal bool
	value    string
	index    int
}

// Trie is a prefix index. The zero value is not usable; call New.
type Trie struct {
	nodes []node
	next  int // insertion counter, assigned to the next inserted word
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{nodes: []node{{}}}
}

// FromSlice builds a trie by inserting words in slice order.
func FromSlice(words []string) *Trie {
	t := New()
	for _, w := range words {
		t.Insert(w)
	}
	return t
}

// Insert adds word to the trie. Inserting a word that is already present
// does not duplicate it; its index is refreshed so it becomes the newest.
func (t *Trie) Insert(word string) {
	cur := root
	for rest := word; rest != ""; {
		key := nextEdge(rest)
		rest = rest[len(key):]
		child, ok := t.nodes[cur].children[key]
		if !ok {
			t.nodes = append(t.nodes, node{})
			child = len(t.nodes) - 1
			if t.nodes[cur].children == nil {
				t.nodes[cur].children = make(map[string]int)
			}
			t.nodes[cur].children[key] = child
		}
		cur = child
	}
	n := &t.nodes[cur]
	n.terminal = true
	n.value = word
	n.index = t.next
	t.next++
}

// nextEdge returns the edge key at the start of s: one UTF-8 encoded
// character, or a single byte when s does not start with valid UTF-8. Keys
// are taken verbatim from s, so distinct strings always take distinct paths.
func nextEdge(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// isEdge reports whether key is exactly one edge as nextEdge would cut it.
func isEdge(key string) bool {
	return key != "" && nextEdge(key) == key
}

// SearchAll returns every stored word starting with prefix, ordered by
// ascending insertion index (oldest first). A prefix with no matches yields
// an empty slice.
func (t *Trie) SearchAll(prefix string) []string {
	cur := root
	for rest := prefix; rest != ""; {
		key := nextEdge(rest)
		rest = rest[len(key):]
		child, ok := t.nodes[cur].children[key]
		if !ok {
			return []string{}
		}
		cur = child
	}

	var found []node
	stack := []int{cur}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]
		if n.terminal {
			found = append(found, n)
		}
		for _, child := range n.children {
			stack = append(stack, child)
		}
	}

	// Map iteration order is random; the sort is what makes results chronological.
	slices.SortFunc(found, func(a, b node) int { return cmp.Compare(a.index, b.index) })

	words := make([]string, len(found))
	for i, n := range found {
		words[i] = n.value
	}
	return words
}

// Len returns the number of distinct words stored.
func (t *Trie) Len() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.terminal {
			n++
		}
	}
	return n
}
