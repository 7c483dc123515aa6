package domain

// ProjectCounters tracks the last assigned ID numbers for one project.
//
// LastRoot is the highest root number ever assigned or observed.
// Subtasks maps a parent's numeric path (e.g. "42" or "42-3") to the
// last child number assigned under it. Both only ever increase.
type ProjectCounters struct {
	LastRoot int            `yaml:"last_root"`
	Subtasks map[string]int `yaml:"subtasks"`
}

// CacheRoot is the persisted counter state for all configured projects,
// keyed by project code.
type CacheRoot struct {
	Projects map[string]*ProjectCounters `yaml:"projects"`
}

// NewCacheRoot returns an empty cache.
func NewCacheRoot() *CacheRoot {
	return &CacheRoot{Projects: make(map[string]*ProjectCounters)}
}

// Counters returns the counter entry for a code, creating an empty one
// if absent.
func (c *CacheRoot) Counters(code string) *ProjectCounters {
	if c.Projects == nil {
		c.Projects = make(map[string]*ProjectCounters)
	}
	pc, ok := c.Projects[code]
	if !ok {
		pc = &ProjectCounters{Subtasks: make(map[string]int)}
		c.Projects[code] = pc
	}
	if pc.Subtasks == nil {
		pc.Subtasks = make(map[string]int)
	}
	return pc
}

// NextRoot returns the next unassigned root number for a code. It does
// not advance the counter; commit happens through RecordAssignment so a
// caller can preview an allocation before taking it.
func (c *CacheRoot) NextRoot(code string) int {
	return c.Counters(code).LastRoot + 1
}

// NextChild returns the next unassigned child number under the given
// parent sequence.
func (c *CacheRoot) NextChild(code string, parent []int) int {
	return c.Counters(code).Subtasks[NumericPath(parent)] + 1
}

// RecordAssignment commits a newly assigned sequence into the counters.
// A one-element sequence sets LastRoot; a longer sequence sets the
// subtask counter for the parent path. The cache trusts the caller to
// commit monotonically increasing values.
func (c *CacheRoot) RecordAssignment(code string, seq []int) {
	if len(seq) == 0 {
		return
	}
	pc := c.Counters(code)
	if len(seq) == 1 {
		pc.LastRoot = seq[0]
		return
	}
	parent := NumericPath(seq[:len(seq)-1])
	pc.Subtasks[parent] = seq[len(seq)-1]
}

// Clone returns a deep copy. Dry runs mutate the copy so the original
// is never persisted with preview state.
func (c *CacheRoot) Clone() *CacheRoot {
	out := NewCacheRoot()
	for code, pc := range c.Projects {
		cp := &ProjectCounters{
			LastRoot: pc.LastRoot,
			Subtasks: make(map[string]int, len(pc.Subtasks)),
		}
		for path, n := range pc.Subtasks {
			cp.Subtasks[path] = n
		}
		out.Projects[code] = cp
	}
	return out
}
