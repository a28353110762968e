package source

// Registry collects sources keyed by normalized feed URL, keeping the first
// source seen for each key and the order in which keys were admitted.
type Registry struct {
	order []string
	byKey map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Source)}
}

// Add admits src unless its feed URL is empty or already registered.
func (r *Registry) Add(src Source) bool {
	key := src.Key()
	if key == "" {
		return false
	}
	if _, exists := r.byKey[key]; exists {
		return false
	}

	src.FeedURL = key
	r.byKey[key] = src
	r.order = append(r.order, key)
	return true
}

func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) Sources() []Source {
	sources := make([]Source, 0, len(r.order))
	for _, key := range r.order {
		sources = append(sources, r.byKey[key])
	}
	return sources
}

// Merge appends explicit to discovered and drops later duplicates by feed
// URL, so discovered entries win collisions. Sources without a feed URL are
// kept as-is so ingestion can report them.
func Merge(discovered, explicit []Source) []Source {
	merged := make([]Source, 0, len(discovered)+len(explicit))
	seen := make(map[string]bool, len(discovered)+len(explicit))

	for _, list := range [][]Source{discovered, explicit} {
		for _, src := range list {
			key := src.Key()
			if key == "" {
				merged = append(merged, src)
				continue
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			src.FeedURL = key
			merged = append(merged, src)
		}
	}

	return merged
}
