package scenario

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Summary is the listing entry for one scenario.
type Summary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Source           string `json:"source"`
	DroneCount       int    `json:"drone_count"`
	HostileCount     int    `json:"hostile_count"`
	InterceptorCount int    `json:"interceptor_count"`
	Difficulty       int    `json:"difficulty,omitempty"`
}

// Catalog resolves scenario ids against the built-in table, hand-written YAML
// scenarios, generated scenarios of this process and the optional store.
type Catalog struct {
	gen   *Generator
	store Store

	mu        sync.Mutex
	files     map[string]Scenario
	generated map[string]*GeneratedScenario
}

// NewCatalog creates a Catalog. store may be nil.
func NewCatalog(gen *Generator, store Store) *Catalog {
	return &Catalog{
		gen:       gen,
		store:     store,
		files:     make(map[string]Scenario),
		generated: make(map[string]*GeneratedScenario),
	}
}

// LoadDir registers every *.yaml and *.yml scenario in dir and returns how
// many were loaded. A missing dir is not an error. Built-in ids cannot be
// shadowed.
func (c *Catalog) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read scenario dir: %w", err)
	}
	builtin := BuiltIn()
	n := 0
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		sc, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if _, ok := builtin[sc.ID]; ok {
			return n, fmt.Errorf("%s: scenario id %q is reserved", e.Name(), sc.ID)
		}
		c.mu.Lock()
		c.files[sc.ID] = *sc
		c.mu.Unlock()
		n++
	}
	return n, nil
}

// Lookup resolves id. Unknown ids return an error wrapping ErrNotFound.
func (c *Catalog) Lookup(id string) (Scenario, error) {
	if sc, ok := BuiltIn()[id]; ok {
		return sc, nil
	}
	c.mu.Lock()
	sc, ok := c.files[id]
	g, gok := c.generated[id]
	c.mu.Unlock()
	if ok {
		return sc, nil
	}
	if gok {
		return g.Scenario(), nil
	}
	if c.store == nil {
		return Scenario{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	g, err := c.store.Load(id)
	if err != nil {
		return Scenario{}, err
	}
	c.mu.Lock()
	c.generated[id] = g
	c.mu.Unlock()
	return g.Scenario(), nil
}

// Generate creates count scenarios from consecutive seeds and persists them.
func (c *Catalog) Generate(seed uint32, count int) ([]*GeneratedScenario, error) {
	if count <= 0 {
		count = 1
	}
	out := c.gen.GenerateBatch(seed, count)
	for _, g := range out {
		if c.store != nil {
			if err := c.store.Save(g); err != nil {
				return nil, fmt.Errorf("save scenario %s: %w", g.ID, err)
			}
		}
		c.mu.Lock()
		c.generated[g.ID] = g
		c.mu.Unlock()
	}
	return out, nil
}

// List returns built-in scenarios, then YAML file scenarios, then generated
// ones, each group sorted by id.
func (c *Catalog) List() ([]Summary, error) {
	var out []Summary
	builtin := BuiltIn()
	ids := make([]string, 0, len(builtin))
	for id := range builtin {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		sc := builtin[id]
		out = append(out, summarize(sc, "builtin", 0))
	}

	c.mu.Lock()
	fids := make([]string, 0, len(c.files))
	for id := range c.files {
		fids = append(fids, id)
	}
	sort.Strings(fids)
	for _, id := range fids {
		out = append(out, summarize(c.files[id], "file", 0))
	}
	known := make(map[string]*GeneratedScenario, len(c.generated))
	for id, g := range c.generated {
		known[id] = g
	}
	c.mu.Unlock()
	if c.store != nil {
		stored, err := c.store.List()
		if err != nil {
			return nil, err
		}
		for _, id := range stored {
			if _, ok := known[id]; ok {
				continue
			}
			g, err := c.store.Load(id)
			if err != nil {
				return nil, err
			}
			known[id] = g
		}
	}
	gids := make([]string, 0, len(known))
	for id := range known {
		gids = append(gids, id)
	}
	sort.Strings(gids)
	for _, id := range gids {
		g := known[id]
		out = append(out, summarize(g.Scenario(), "generated", g.Metadata.Difficulty))
	}
	return out, nil
}

func summarize(sc Scenario, source string, difficulty int) Summary {
	s := Summary{
		ID:               sc.ID,
		Name:             sc.Name,
		Source:           source,
		DroneCount:       len(sc.Drones),
		InterceptorCount: sc.InterceptorCount,
		Difficulty:       difficulty,
	}
	for _, d := range sc.Drones {
		if d.IsHostile {
			s.HostileCount++
		}
	}
	return s
}
