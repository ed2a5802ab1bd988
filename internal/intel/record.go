package intel

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Record is the typed output of extracting one message: a sorted,
// deduplicated value set per category. Every category is always present;
// the zero Record is a valid empty record.
//
// Records are immutable once built. Accessors return copies.
type Record struct {
	sets map[Category][]string
}

// EmptyRecord returns a record with every category present and empty.
func EmptyRecord() Record {
	return newBuilder().build()
}

// NewRecord builds a record from loosely shaped data, normalizing and
// deduplicating values. Unknown categories are rejected.
func NewRecord(values map[Category][]string) (Record, error) {
	b := newBuilder()
	for c, vs := range values {
		if !c.Valid() {
			return Record{}, fmt.Errorf("unknown intelligence category %q", c)
		}
		b.addAll(c, vs...)
	}
	return b.build(), nil
}

// Get returns a copy of the values for c, sorted. Unknown categories yield nil.
func (r Record) Get(c Category) []string {
	if !c.Valid() {
		return nil
	}
	vs := r.sets[c]
	out := make([]string, len(vs))
	copy(out, vs)
	return out
}

// Len returns the number of values for c.
func (r Record) Len(c Category) int {
	return len(r.sets[c])
}

// Has reports whether c holds at least one value.
func (r Record) Has(c Category) bool {
	return len(r.sets[c]) > 0
}

// Contains reports whether v is present in c, using the category's
// normalization rules.
func (r Record) Contains(c Category, v string) bool {
	v = normalizeValue(c, v)
	if v == "" {
		return false
	}
	_, found := slices.BinarySearch(r.sets[c], v)
	return found
}

// Total returns the number of values across all categories.
func (r Record) Total() int {
	n := 0
	for _, vs := range r.sets {
		n += len(vs)
	}
	return n
}

// IsEmpty reports whether every category is empty.
func (r Record) IsEmpty() bool {
	return r.Total() == 0
}

// NonEmpty lists the categories holding values, in canonical order.
func (r Record) NonEmpty() []Category {
	var out []Category
	for _, c := range allCategories {
		if len(r.sets[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Map returns a copy of the record as a plain map with every category key.
func (r Record) Map() map[Category][]string {
	out := make(map[Category][]string, len(allCategories))
	for _, c := range allCategories {
		out[c] = r.Get(c)
	}
	return out
}

// Equal reports whether both records hold the same values.
func (r Record) Equal(o Record) bool {
	for _, c := range allCategories {
		if !slices.Equal(r.sets[c], o.sets[c]) {
			return false
		}
	}
	return true
}

// MarshalJSON emits every category key, empty categories as [].
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(allCategories))
	for _, c := range allCategories {
		out[string(c)] = r.Get(c)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any subset of category keys; missing keys become
// empty and unknown keys are ignored.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b := newBuilder()
	for k, vs := range raw {
		c := Category(k)
		if !c.Valid() {
			continue
		}
		b.addAll(c, vs...)
	}
	*r = b.build()
	return nil
}

// builder accumulates values as sets and freezes them into a Record.
type builder struct {
	sets map[Category]map[string]struct{}
}

func newBuilder() *builder {
	b := &builder{sets: make(map[Category]map[string]struct{}, len(allCategories))}
	for _, c := range allCategories {
		b.sets[c] = make(map[string]struct{})
	}
	return b
}

func (b *builder) add(c Category, v string) {
	set, ok := b.sets[c]
	if !ok {
		// A category missing from the template is a broken invariant.
		panic(fmt.Sprintf("intel: category %q missing from record template", c))
	}
	v = normalizeValue(c, v)
	if v == "" {
		return
	}
	set[v] = struct{}{}
}

func (b *builder) addAll(c Category, vs ...string) {
	for _, v := range vs {
		b.add(c, v)
	}
}

func (b *builder) addRecord(r Record) {
	for c, vs := range r.sets {
		b.addAll(c, vs...)
	}
}

func (b *builder) build() Record {
	sets := make(map[Category][]string, len(b.sets))
	for c, set := range b.sets {
		vs := make([]string, 0, len(set))
		for v := range set {
			vs = append(vs, v)
		}
		slices.Sort(vs)
		sets[c] = vs
	}
	return Record{sets: sets}
}

func normalizeValue(c Category, v string) string {
	v = strings.TrimSpace(v)
	if c.CaseInsensitive() {
		v = strings.ToLower(v)
	}
	return v
}
