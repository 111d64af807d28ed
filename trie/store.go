package trie

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

const snapshotVersion = 1

// ErrCorrupt is returned by Load when a snapshot cannot be decoded or does
// not describe a well-formed trie.
var ErrCorrupt = errors.New("corrupt trie snapshot")

type snapshot struct {
	Version int        `json:"version"`
	Next    int        `json:"next"`
	Nodes   []diskNode `json:"nodes"`
}

// diskNode is the JSON form of a node. JSON strings must be valid UTF-8, so
// edges and values that are not are stored separately: raw_children is keyed
// by the hex of the single edge byte and raw_value holds the bytes (base64).
type diskNode struct {
	Children    map[string]int `json:"children,omitempty"`
	RawChildren map[string]int `json:"raw_children,omitempty"`
	Terminal    bool           `json:"terminal,omitempty"`
	Value       string         `json:"value,omitempty"`
	RawValue    []byte         `json:"raw_value,omitempty"`
	Index       int            `json:"index,omitempty"`
}

func toDisk(n node) diskNode {
	d := diskNode{Terminal: n.terminal, Index: n.index}
	if utf8.ValidString(n.value) {
		d.Value = n.value
	} else {
		d.RawValue = []byte(n.value)
	}
	for key, child := range n.children {
		if utf8.ValidString(key) {
			if d.Children == nil {
				d.Children = make(map[string]int)
			}
			d.Children[key] = child
			continue
		}
		if d.RawChildren == nil {
			d.RawChildren = make(map[string]int)
		}
		d.RawChildren[hex.EncodeToString([]byte(key))] = child
	}
	return d
}

func fromDisk(id int, d diskNode) (node, error) {
	n := node{terminal: d.Terminal, value: d.Value, index: d.Index}
	if d.RawValue != nil {
		if d.Value != "" {
			return node{}, fmt.Errorf("node %d: both value and raw_value set", id)
		}
		n.value = string(d.RawValue)
	}
	if len(d.Children)+len(d.RawChildren) > 0 {
		n.children = make(map[string]int, len(d.Children)+len(d.RawChildren))
	}
	for key, child := range d.Children {
		n.children[key] = child
	}
	for h, child := range d.RawChildren {
		b, err := hex.DecodeString(h)
		if err != nil || len(b) != 1 || utf8.Valid(b) {
			return node{}, fmt.Errorf("node %d: bad raw edge %q", id, h)
		}
		n.children[string(b)] = child
	}
	return n, nil
}

// Save writes a full snapshot of t to path, creating parent directories as
// needed. The file is replaced atomically, so an interrupted save leaves the
// previous snapshot intact.
func (t *Trie) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create trie dir: %w", err)
	}
	snap := snapshot{
		Version: snapshotVersion,
		Next:    t.next,
		Nodes:   make([]diskNode, len(t.nodes)),
	}
	for i, n := range t.nodes {
		snap.Nodes[i] = toDisk(n)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode trie: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tmp trie: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize trie: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist); anything unparsable yields
// ErrCorrupt.
func Load(path string) (*Trie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trie: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	nodes, err := snap.decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &Trie{nodes: nodes, next: snap.Next}, nil
}

// LoadOrNew is Load with the fallback the shell needs: it always returns a
// usable trie, empty when the snapshot is absent or broken. The error, if
// any, explains why the fallback was taken.
func LoadOrNew(path string) (*Trie, error) {
	t, err := Load(path)
	if err != nil {
		return New(), err
	}
	return t, nil
}

// decode converts the snapshot to arena nodes, then walks them from the
// root and rejects anything that is not a tree whose terminal values spell
// their own paths.
func (s *snapshot) decode() ([]node, error) {
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported version %d", s.Version)
	}
	if len(s.Nodes) == 0 {
		return nil, errors.New("no root node")
	}
	if s.Next < 0 {
		return nil, fmt.Errorf("negative counter %d", s.Next)
	}
	nodes := make([]node, len(s.Nodes))
	for i, d := range s.Nodes {
		n, err := fromDisk(i, d)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}

	type item struct {
		id   int
		path string
	}
	visited := make([]bool, len(nodes))
	visited[root] = true
	queue := []item{{id: root}}
	seen := 1
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		n := nodes[it.id]
		if n.terminal {
			if n.value != it.path {
				return nil, fmt.Errorf("node %d: value %q does not match path %q", it.id, n.value, it.path)
			}
			if n.index < 0 || n.index >= s.Next {
				return nil, fmt.Errorf("node %d: index %d outside [0,%d)", it.id, n.index, s.Next)
			}
		}
		for key, child := range n.children {
			if !isEdge(key) {
				return nil, fmt.Errorf("node %d: edge %q is not a single character", it.id, key)
			}
			if child <= root || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: child %d out of range", it.id, child)
			}
			if visited[child] {
				return nil, fmt.Errorf("node %d: child %d referenced twice", it.id, child)
			}
			visited[child] = true
			seen++
			queue = append(queue, item{id: child, path: it.path + key})
		}
	}
	if seen != len(nodes) {
		return nil, fmt.Errorf("%d unreachable nodes", len(nodes)-seen)
	}
	return nodes, nil
}
