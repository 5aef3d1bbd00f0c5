package policies

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeu5/mdp-rl/core"
)

// ValueTable maps keys to values. A key that was never set reads as 0.
type ValueTable struct {
	table map[string]float64
}

func NewValueTable() *ValueTable {
	return &ValueTable{
		table: make(map[string]float64),
	}
}

// Get returns the value stored for key, or 0.
func (v *ValueTable) Get(key string) float64 {
	return v.table[key]
}

func (v *ValueTable) Set(key string, val float64) {
	v.table[key] = val
}

func (v *ValueTable) Add(key string, delta float64) {
	v.table[key] += delta
}

func (v *ValueTable) Size() int {
	return len(v.table)
}

// Copy returns the explicitly set entries.
func (v *ValueTable) Copy() map[string]float64 {
	out := make(map[string]float64, len(v.table))
	for k, val := range v.table {
		out[k] = val
	}
	return out
}

// Dot returns the sum over features of value(f) * features[f].
func (v *ValueTable) Dot(features core.Features) float64 {
	sum := 0.0
	for _, name := range sortedKeys(features) {
		sum += v.table[name] * features[name]
	}
	return sum
}

// Record writes the table to path as JSON lines of {"key", "value"}.
func (v *ValueTable) Record(path string) error {
	bs := new(bytes.Buffer)
	keys := make([]string, 0, len(v.table))
	for k := range v.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line, err := json.Marshal(map[string]interface{}{"key": k, "value": v.table[k]})
		if err != nil {
			return fmt.Errorf("error encoding entry %s: %w", k, err)
		}
		bs.Write(line)
		bs.WriteByte('\n')
	}
	return writeFile(path, bs.Bytes())
}

func (v *ValueTable) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		in := struct {
			Key   string  `json:"key"`
			Value float64 `json:"value"`
		}{}
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			return fmt.Errorf("error reading file contents: %w", err)
		}
		v.table[in.Key] = in.Value
	}
	return scanner.Err()
}

// QTable maps (state, action) hashes to values. A pair that was never set
// reads as 0. Entries are never removed except by Reset.
type QTable struct {
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
	}
}

func (q *QTable) GetAll(state string) (map[string]float64, bool) {
	values, ok := q.table[state]
	return values, ok
}

// Get returns the value of (state, action), or 0.
func (q *QTable) Get(state, action string) float64 {
	if _, ok := q.table[state]; !ok {
		return 0
	}
	return q.table[state][action]
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

// Size returns the number of stored (state, action) entries.
func (q *QTable) Size() int {
	size := 0
	for _, entries := range q.table {
		size += len(entries)
	}
	return size
}

func (q *QTable) Reset() {
	q.table = make(map[string]map[string]float64)
}

func (q *QTable) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		in := struct {
			State   string             `json:"state"`
			Entries map[string]float64 `json:"entries"`
		}{}
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			return fmt.Errorf("error reading file contents: %w", err)
		}
		for a, val := range in.Entries {
			q.Set(in.State, a, val)
		}
	}
	return scanner.Err()
}

// Record writes one JSON line per state holding all its action entries.
func (q *QTable) Record(path string) error {
	bs := new(bytes.Buffer)

	states := make([]string, 0, len(q.table))
	for s := range q.table {
		states = append(states, s)
	}
	sort.Strings(states)
	for _, state := range states {
		stateJ := make(map[string]interface{})
		stateJ["state"] = state
		stateJ["entries"] = q.table[state]

		stateBS, err := json.Marshal(stateJ)
		if err != nil {
			return fmt.Errorf("error encoding state %s: %w", state, err)
		}
		bs.Write(stateBS)
		bs.Write([]byte("\n"))
	}

	return writeFile(path, bs.Bytes())
}

// ArgMax folds over actions in order and returns the first action with the
// largest score along with that score. Later actions replace the incumbent
// only on strict improvement. An empty slice yields (nil, 0).
func ArgMax(actions []core.Action, score func(core.Action) float64) (core.Action, float64) {
	var best core.Action
	bestVal := 0.0
	for i, a := range actions {
		val := score(a)
		if i == 0 || val > bestVal {
			best = a
			bestVal = val
		}
	}
	return best, bestVal
}

func sortedKeys(features core.Features) []string {
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}
