// Package pool implements the dense-ID interning pools used for YARA
// identifiers and byte-string literals (spec.md §3). Both pools are
// deduplicating and grow monotonically over the lifetime of one
// compilation.
package pool

// IdentId uniquely identifies an interned identifier string within one
// compilation. Ids are dense and stable: equal strings always yield the
// same id, and distinct strings always yield distinct ids.
type IdentId uint32

// LiteralId uniquely identifies an interned byte-string literal. Literals
// are not required to be valid UTF-8, unlike identifiers.
type LiteralId uint32

// Idents interns identifier strings.
type Idents struct {
	byString map[string]IdentId
	byId     []string
}

// NewIdents constructs an empty identifier pool.
func NewIdents() *Idents {
	return &Idents{byString: make(map[string]IdentId)}
}

// Intern returns the id for name, allocating a new one if name has not
// been seen before in this pool.
func (p *Idents) Intern(name string) IdentId {
	if id, ok := p.byString[name]; ok {
		return id
	}
	id := IdentId(len(p.byId))
	p.byId = append(p.byId, name)
	p.byString[name] = id
	return id
}

// Lookup returns the id already assigned to name, if any.
func (p *Idents) Lookup(name string) (IdentId, bool) {
	id, ok := p.byString[name]
	return id, ok
}

// Get resolves an id back to its string.
func (p *Idents) Get(id IdentId) string {
	return p.byId[id]
}

// Len returns the number of distinct identifiers interned so far.
func (p *Idents) Len() int { return len(p.byId) }

// Literals interns byte-string literals: the string and regex literals of
// rule conditions. Pattern bodies are not interned here.
type Literals struct {
	byString map[string]LiteralId
	byId     [][]byte
}

// NewLiterals constructs an empty literal pool.
func NewLiterals() *Literals {
	return &Literals{byString: make(map[string]LiteralId)}
}

// Intern returns the id for data, allocating a new one if this exact byte
// sequence has not been seen before in this pool.
func (p *Literals) Intern(data []byte) LiteralId {
	key := string(data)
	if id, ok := p.byString[key]; ok {
		return id
	}
	id := LiteralId(len(p.byId))
	cp := make([]byte, len(data))
	copy(cp, data)
	p.byId = append(p.byId, cp)
	p.byString[key] = id
	return id
}

// Get resolves an id back to its bytes.
func (p *Literals) Get(id LiteralId) []byte {
	return p.byId[id]
}

// Len returns the number of distinct literals interned so far.
func (p *Literals) Len() int { return len(p.byId) }

// All returns every interned literal, indexed by LiteralId.
func (p *Literals) All() [][]byte { return p.byId }
