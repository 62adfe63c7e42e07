package lib

import "sync"

// StrHasher gives a unique int to each unique string, it doesn't actually hash the
// strings, it stores a map of [string]int and the inverse slice so that keys sent to a
// browser can be resolved back to the string they came from.
type StrHasher struct {
	mu  *sync.Mutex
	ids map[string]int
	// strs[id-1] is the string for id.
	strs []string
}

func NewStrHasher() *StrHasher {
	return &StrHasher{
		mu:  &sync.Mutex{},
		ids: make(map[string]int),
	}
}

// Hash returns a unique int for each unique string, starting at 1.
func (s *StrHasher) Hash(str string) (id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ok bool
	if id, ok = s.ids[str]; !ok {
		s.strs = append(s.strs, str)
		id = len(s.strs)
		s.ids[str] = id
	}
	return id
}

// Reverse returns the string that was given id by Hash.
func (s *StrHasher) Reverse(id int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > len(s.strs) {
		return "", false
	}
	return s.strs[id-1], true
}
