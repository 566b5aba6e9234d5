package param

import (
	"fmt"
	"math"
	"sync"
)

// Store owns the parameters of one graph. Parameters are declared while the
// graph is built and live as long as the store. Lookups are O(1) and safe
// from any goroutine; the audio goroutine holds *Param directly and never
// touches the index.
type Store struct {
	mu     sync.RWMutex
	params []*Param
	byName map[string]*Param
	frozen bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byName: make(map[string]*Param)}
}

// Declare adds a parameter. Names must be unique and non-empty.
func (s *Store) Declare(name string, initial float64, opts ...Option) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return 0, &Error{Name: name, Err: ErrFrozen}
	}
	if name == "" {
		return 0, &Error{Name: name, Err: fmt.Errorf("empty name: %w", ErrInvalidValue)}
	}
	if _, ok := s.byName[name]; ok {
		return 0, &Error{Name: name, Err: ErrDuplicateParameter}
	}
	p := &Param{
		id:      ID(len(s.params)),
		name:    name,
		initial: initial,
	}
	for _, option := range opts {
		if err := option(p); err != nil {
			return 0, &Error{Name: name, Err: err}
		}
	}
	if err := p.validate(initial); err != nil {
		return 0, &Error{Name: name, Err: err}
	}
	p.target.Store(math.Float64bits(initial))
	s.params = append(s.params, p)
	s.byName[name] = p
	return p.id, nil
}

// Freeze rejects further declarations.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Frozen reports if the store rejects declarations.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Len returns the number of declared parameters.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.params)
}

// At returns the parameter with id.
func (s *Store) At(id ID) (*Param, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || int(id) >= len(s.params) {
		return nil, &Error{Name: fmt.Sprintf("#%d", id), Err: ErrUnknownParameter}
	}
	return s.params[id], nil
}

// Named returns the parameter with name.
func (s *Store) Named(name string) (*Param, error) {
	s.mu.RLock()
	p, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return nil, &Error{Name: name, Err: ErrUnknownParameter}
	}
	return p, nil
}

// Set changes the target of parameter id.
func (s *Store) Set(id ID, v float64) error {
	p, err := s.At(id)
	if err != nil {
		return err
	}
	return p.Set(v)
}

// SetNamed changes the target of the named parameter.
func (s *Store) SetNamed(name string, v float64) error {
	p, err := s.Named(name)
	if err != nil {
		return err
	}
	return p.Set(v)
}

// Get returns the target of parameter id.
func (s *Store) Get(id ID) (float64, error) {
	p, err := s.At(id)
	if err != nil {
		return 0, err
	}
	return p.Get(), nil
}

// GetNamed returns the target of the named parameter.
func (s *Store) GetNamed(name string) (float64, error) {
	p, err := s.Named(name)
	if err != nil {
		return 0, err
	}
	return p.Get(), nil
}

// Names returns parameter names in declaration order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.name
	}
	return names
}
