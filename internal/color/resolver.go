package color

import (
	"strings"

	"cssvars.dev/cvls/internal/collections"
	"cssvars.dev/cvls/internal/vars"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mazznoer/csscolorparser"
)

// maxChainDepth bounds var() chains independently of cycle detection, so a
// deeply nested fallback tower cannot stall a request.
const maxChainDepth = 32

const defaultCacheSize = 512

// Resolver resolves variable values to colors through the index, following
// var() chains. Results are cached per variable name; the cache keys off
// the index generation so any index mutation invalidates stale entries
// without explicit flushes.
type Resolver struct {
	index *vars.Index
	cache *lru.Cache[cacheKey, *csscolorparser.Color]
}

type cacheKey struct {
	name   string
	inline bool
	gen    uint64
}

// NewResolver creates a resolver over index.
func NewResolver(index *vars.Index) *Resolver {
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[cacheKey, *csscolorparser.Color](defaultCacheSize)
	return &Resolver{index: index, cache: cache}
}

// ResolveVariable resolves the named variable to a color, or nil when the
// chain ends in something that is not a color, the name is undefined, or
// the chain cycles.
func (r *Resolver) ResolveVariable(name string, inlineContext bool) *csscolorparser.Color {
	key := cacheKey{name: name, inline: inlineContext, gen: r.index.Generation()}
	if c, ok := r.cache.Get(key); ok {
		return c
	}

	c := r.resolveName(name, inlineContext, collections.NewSet[string](), 0)
	r.cache.Add(key, c)
	return c
}

// ResolveValue resolves raw value text: a color literal parses directly,
// and a var() reference follows the chain. Anything else yields nil.
func (r *Resolver) ResolveValue(raw string, inlineContext bool) *csscolorparser.Color {
	return r.resolveValue(raw, inlineContext, collections.NewSet[string](), 0)
}

func (r *Resolver) resolveValue(raw string, inlineContext bool, visited collections.Set[string], depth int) *csscolorparser.Color {
	if depth > maxChainDepth {
		return nil
	}

	raw = strings.TrimSpace(raw)
	if c := Parse(raw); c != nil {
		return c
	}

	name, fallback, ok := ParseVarReference(raw)
	if !ok {
		return nil
	}
	if c := r.resolveName(name, inlineContext, visited, depth+1); c != nil {
		return c
	}
	if fallback != "" {
		return r.resolveValue(fallback, inlineContext, visited, depth+1)
	}
	return nil
}

func (r *Resolver) resolveName(name string, inlineContext bool, visited collections.Set[string], depth int) *csscolorparser.Color {
	if depth > maxChainDepth || visited.Has(name) {
		return nil
	}
	visited.Add(name)

	def := r.index.WinnerFor(name, inlineContext)
	if def == nil {
		return nil
	}
	return r.resolveValue(def.Value, inlineContext, visited, depth+1)
}

// ParseVarReference parses `var(--name)` or `var(--name, fallback)`.
// The fallback is returned raw so nested references keep their text.
func ParseVarReference(raw string) (name, fallback string, ok bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "var(") || !strings.HasSuffix(raw, ")") {
		return "", "", false
	}
	body := raw[4 : len(raw)-1]

	// First top-level comma splits name from fallback
	depth := 0
	comma := -1
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				// More closing parens than opening: not a
				// single balanced call
				return "", "", false
			}
			depth--
		case ',':
			if depth == 0 && comma < 0 {
				comma = i
			}
		}
	}
	if depth != 0 {
		return "", "", false
	}

	if comma >= 0 {
		name = strings.TrimSpace(body[:comma])
		fallback = strings.TrimSpace(body[comma+1:])
	} else {
		name = strings.TrimSpace(body)
	}
	if !strings.HasPrefix(name, "--") || len(name) < 3 {
		return "", "", false
	}
	return name, fallback, true
}
