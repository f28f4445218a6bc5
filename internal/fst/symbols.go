package fst

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/blevesearch/vellum"
)

// symbols maps input tokens to dense ids. Ids follow the byte order of the
// tokens, so comparing id sequences orders keys the same way as comparing
// the token sequences.
type symbols struct {
	dict  *vellum.FST
	names []string
}

func newSymbols(tokens []string) (*symbols, error) {
	names := append([]string(nil), tokens...)
	sort.Strings(names)
	names = dedupSorted(names)

	s := &symbols{names: names}
	if len(names) == 0 {
		return s, nil
	}

	var buf bytes.Buffer
	b, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol builder: %w", err)
	}
	for i, name := range names {
		if err := b.Insert([]byte(name), uint64(i)); err != nil {
			return nil, fmt.Errorf("failed to insert symbol %q: %w", name, err)
		}
	}
	if err := b.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish symbol table: %w", err)
	}

	s.dict, err = vellum.Load(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to load symbol table: %w", err)
	}
	return s, nil
}

func (s *symbols) id(token string) (uint32, bool) {
	if s.dict == nil {
		return 0, false
	}
	v, ok, err := s.dict.Get([]byte(token))
	if err != nil || !ok {
		return 0, false
	}
	return uint32(v), true
}

func (s *symbols) name(id uint32) string {
	return s.names[id]
}

func (s *symbols) len() int {
	return len(s.names)
}

func dedupSorted(ss []string) []string {
	if len(ss) < 2 {
		return ss
	}
	out := ss[:1]
	for _, s := range ss[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
