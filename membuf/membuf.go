package membuf

import (
	"encoding/hex"
	"strings"

	"github.com/anupcshan/netmac/intelhex"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

var (
	ErrAmbiguousMatch    = errors.New("pattern not unique in file")
	ErrPatternNotFound   = errors.New("pattern not found in file")
	ErrStructuralOverrun = errors.New("replacement runs past the last data record")
	ErrMisaligned        = errors.New("match does not start on a byte boundary")
)

// span maps a logical character offset to the data record whose payload
// starts there.
type span struct {
	offset int
	record intelhex.Record
}

// Stream is the concatenated payload of all data records, in file order.
type Stream struct {
	code  string
	spans []span
}

func NewStream(records []intelhex.Record) *Stream {
	var sb strings.Builder
	var spans []span
	for _, rec := range records {
		if !rec.IsData() {
			continue
		}

		spans = append(spans, span{
			offset: sb.Len(),
			record: rec,
		})
		sb.WriteString(strings.ToUpper(rec.Payload()))
	}

	return &Stream{
		code:  sb.String(),
		spans: spans,
	}
}

// Len is the stream length in hex characters.
func (s *Stream) Len() int {
	return len(s.code)
}

func (s *Stream) String() string {
	return s.code
}

func (s *Stream) Bytes() []byte {
	b, _ := hex.DecodeString(s.code)
	return b
}

// Matches returns the character offsets of every byte-aligned occurrence of
// p, overlapping occurrences included.
func (s *Stream) Matches(p Pattern) []int {
	var found []int
	if p == "" {
		return found
	}

	for from := 0; from <= len(s.code)-len(p); {
		idx := strings.Index(s.code[from:], string(p))
		if idx < 0 {
			break
		}
		at := from + idx
		if at%2 == 0 {
			found = append(found, at)
		}
		from = at + 1
	}

	return found
}

// Locate returns the character offset of the single occurrence of p.
func (s *Stream) Locate(p Pattern) (int, error) {
	found := s.Matches(p)
	switch len(found) {
	case 0:
		return -1, errors.Wrapf(ErrPatternNotFound, "%s", p)
	case 1:
		return found[0], nil
	default:
		return -1, errors.Wrapf(ErrAmbiguousMatch, "%s found %d times", p, len(found))
	}
}

// spanAt returns the index of the span owning character offset off, or -1.
// Among spans sharing an offset (empty records) the last one wins.
func (s *Stream) spanAt(off int) int {
	idx, found := slices.BinarySearchFunc(s.spans, off, func(sp span, target int) int {
		return sp.offset - target
	})
	if found {
		for idx+1 < len(s.spans) && s.spans[idx+1].offset == off {
			idx++
		}
		return idx
	}

	return idx - 1
}
