package devicetree

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/teranos/codegen/errors"
	"gopkg.in/yaml.v3"
)

// Node is one device node of the structured database.
type Node map[string]interface{}

// Label returns the node's label property.
func (n Node) Label() string {
	s, _ := n["label"].(string)
	return s
}

// Tree is the structured database: compatible string to the list of nodes
// declaring it. The file format follows the extension (.json, .yaml, .yml, .toml).
type Tree struct {
	path string

	once sync.Once
	db   map[string][]Node
	err  error
}

// NewTree returns a database that reads path on first use.
func NewTree(path string) *Tree {
	return &Tree{path: path}
}

// NewTreeFromNodes builds a database in memory.
func NewTreeFromNodes(db map[string][]Node) *Tree {
	t := &Tree{db: db}
	t.once.Do(func() {})
	return t
}

// DecodeTree parses a structured database in the given format ("json", "yaml" or "toml").
func DecodeTree(data []byte, format string) (*Tree, error) {
	db, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	return NewTreeFromNodes(db), nil
}

func decode(data []byte, format string) (map[string][]Node, error) {
	raw := map[string]interface{}{}
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &raw)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &raw)
	case "toml":
		_, err = toml.Decode(string(data), &raw)
	default:
		return nil, errors.Newf("unsupported device tree database format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s device tree database", format)
	}

	db := make(map[string][]Node, len(raw))
	for compatible, v := range raw {
		list, ok := normalize(v).([]interface{})
		if !ok {
			return nil, errors.Newf("compatible %q: expected a list of nodes", compatible)
		}
		for i, item := range list {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.Newf("compatible %q node %d: expected a table", compatible, i)
			}
			db[compatible] = append(db[compatible], Node(m))
		}
	}
	return db, nil
}

// normalize converts decoder specific containers to []interface{} and
// map[string]interface{}.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []map[string]interface{}:
		l := make([]interface{}, len(t))
		for i, e := range t {
			l[i] = normalize(e)
		}
		return l
	case []interface{}:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}

func (t *Tree) load() error {
	t.once.Do(func() {
		if t.path == "" {
			t.err = errors.Wrap(errors.ErrInvalidConfig, "structured device tree database not set")
			return
		}
		data, err := os.ReadFile(t.path)
		if err != nil {
			t.err = errors.Wrapf(err, "Generated device tree board configuration %s not found/ no access.", t.path)
			return
		}
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(t.path)), ".")
		t.db, t.err = decode(data, format)
	})
	return t.err
}

// Compatibles returns the compatibles declared by the board, sorted.
func (t *Tree) Compatibles() ([]string, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(t.db))
	for c := range t.db {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Selection is the set of compatibles a driver template generates for.
// It only holds compatibles the board declares, in driver order.
type Selection struct {
	compatibles []string
}

// Compatibles returns the selected compatibles.
func (s *Selection) Compatibles() []string {
	if s == nil {
		return nil
	}
	return s.compatibles
}

// Select keeps the driver compatibles declared by the board.
func (t *Tree) Select(driverCompatibles []string) (*Selection, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	sel := &Selection{}
	for _, c := range driverCompatibles {
		if _, ok := t.db[c]; ok {
			sel.compatibles = append(sel.compatibles, c)
		}
	}
	return sel, nil
}

// HasAny reports whether the board declares any of the compatibles.
func (t *Tree) HasAny(compatibles []string) (bool, error) {
	sel, err := t.Select(compatibles)
	if err != nil {
		return false, err
	}
	return len(sel.compatibles) > 0, nil
}

// Nodes returns the nodes of all selected compatibles.
func (t *Tree) Nodes(sel *Selection) ([]Node, error) {
	if sel == nil {
		return nil, ErrNoSelection
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	var nodes []Node
	for _, c := range sel.compatibles {
		nodes = append(nodes, t.db[c]...)
	}
	return nodes, nil
}

// Labels returns the labels of the selected nodes.
func (t *Tree) Labels(sel *Selection) ([]string, error) {
	nodes, err := t.Nodes(sel)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(nodes))
	for _, n := range nodes {
		labels = append(labels, n.Label())
	}
	return labels, nil
}

// NodeProperty looks up a property of the selected node whose label
// matches. The path is split on '/': map keys, list indexes ("reg/0"), and
// names resolved through a node's "labels"/"data" pair ("interrupts/irq").
// A single-element list of tables is entered implicitly.
func (t *Tree) NodeProperty(sel *Selection, label, path string) (interface{}, error) {
	nodes, err := t.Nodes(sel)
	if err != nil {
		return nil, err
	}
	want := LabelToIndex(label)
	var node Node
	for _, n := range nodes {
		if LabelToIndex(n.Label()) == want {
			node = n
			break
		}
	}
	if node == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "%s", label)
	}

	var v interface{} = map[string]interface{}(node)
	for _, key := range strings.Split(strings.Trim(path, "'"), "/") {
		if l, ok := v.([]interface{}); ok && len(l) == 1 {
			if _, isMap := l[0].(map[string]interface{}); isMap {
				v = l[0]
			}
		}
		switch cur := v.(type) {
		case map[string]interface{}:
			if next, ok := cur[key]; ok {
				v = next
				continue
			}
			if next, ok := labelledData(cur, key); ok {
				v = next
				continue
			}
			return nil, errors.Wrapf(ErrPropertyNotFound, "%s[%s]", label, path)
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(cur) {
				return nil, errors.Wrapf(ErrPropertyNotFound, "%s[%s]", label, path)
			}
			v = cur[idx]
		default:
			// A scalar ends the walk early
			return v, nil
		}
	}
	if v == nil {
		return nil, errors.Wrapf(ErrPropertyNotFound, "%s[%s]", label, path)
	}
	return v, nil
}

// labelledData resolves key through parallel "labels" and "data" lists.
func labelledData(m map[string]interface{}, key string) (interface{}, bool) {
	labels, ok := m["labels"].([]interface{})
	if !ok {
		return nil, false
	}
	data, _ := m["data"].([]interface{})
	for i, l := range labels {
		if s, ok := l.(string); ok && s == key && i < len(data) {
			return data[i], true
		}
	}
	return nil, false
}

// InstanceName returns a unique name for instance idx of the first
// selected compatible, e.g. st_stm32_usart_1.
func InstanceName(sel *Selection, idx int) (string, error) {
	if sel == nil || len(sel.compatibles) == 0 {
		return "", ErrNoSelection
	}
	return fmt.Sprintf("%s_%d", Identifier(sel.compatibles[0]), idx), nil
}

// StructName returns the name of a per-instance driver structure,
// e.g. st_stm32_usart_1_config.
func StructName(sel *Selection, idx int, suffix string) (string, error) {
	name, err := InstanceName(sel, idx)
	if err != nil {
		return "", err
	}
	return name + "_" + suffix, nil
}
