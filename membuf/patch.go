package membuf

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"

	"github.com/anupcshan/netmac/intelhex"
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Edit is one rewritten line of the output.
type Edit struct {
	Line   int
	Before string
	After  string
}

type Result struct {
	// Offset is the logical character offset of the replaced pattern.
	Offset  int
	Edits   []Edit
	Touched *bitset.BitSet

	// Malformed lists lines that looked like records but were passed through.
	Malformed []int
}

// cursor tracks the patch walk across data records.
type cursor struct {
	span     int
	pos      int // character offset within the span's payload
	checksum uint8
	written  int // replacement bytes placed so far, across all records
	payload  []byte
	dirty    bool
}

func (s *Stream) enter(idx, pos int) *cursor {
	rec := s.spans[idx].record
	return &cursor{
		span:     idx,
		pos:      pos,
		checksum: rec.Checksum,
		payload:  []byte(rec.Payload()),
	}
}

func (s *Stream) finish(c *cursor) Edit {
	rec := s.spans[c.span].record
	return Edit{
		Line:   rec.Line,
		Before: rec.Raw,
		After:  rec.Raw[:intelhex.PayloadStart] + string(c.payload) + fmt.Sprintf("%02X", c.checksum),
	}
}

// patchAt writes repl over the stream starting at character offset off. The
// returned edits are not applied; nothing is returned on failure.
func (s *Stream) patchAt(off int, repl Pattern) ([]Edit, error) {
	if off%2 != 0 {
		return nil, errors.Wrapf(ErrMisaligned, "offset %d", off)
	}

	idx := s.spanAt(off)
	if idx < 0 {
		return nil, errors.Wrapf(ErrStructuralOverrun, "no data record at offset %d", off)
	}

	var edits []Edit
	c := s.enter(idx, off-s.spans[idx].offset)
	for c.written < repl.Len() {
		for c.pos+2 > len(c.payload) {
			if c.dirty {
				edits = append(edits, s.finish(c))
			}
			if c.span+1 >= len(s.spans) {
				return nil, errors.Wrapf(ErrStructuralOverrun, "%d of %d bytes placed", c.written, repl.Len())
			}
			written := c.written
			c = s.enter(c.span+1, 0)
			c.written = written
		}

		oldByte, err := hex.DecodeString(string(c.payload[c.pos : c.pos+2]))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", s.spans[c.span].record.Line+1)
		}
		newByte := repl.Bytes()[c.written]

		copy(c.payload[c.pos:], repl.Hex(c.written))
		c.checksum += oldByte[0] - newByte
		c.pos += 2
		c.written++
		c.dirty = true
	}

	return append(edits, s.finish(c)), nil
}

// Update replaces the unique occurrence of cfg.Old with cfg.New in lines,
// fixing the checksum of every record it touches. lines is left unmodified
// on error.
func (s *Stream) Update(cfg *UpdateConfig, lines []string) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	off, err := s.Locate(cfg.Old)
	if err != nil {
		return nil, err
	}

	edits, err := s.patchAt(off, cfg.New)
	if err != nil {
		return nil, err
	}

	touched := bitset.New(uint(len(lines)))
	for _, e := range edits {
		if e.Line >= len(lines) {
			return nil, errors.Wrapf(ErrStructuralOverrun, "line %d outside output of %d lines", e.Line+1, len(lines))
		}
		touched.Set(uint(e.Line))
	}
	for _, e := range edits {
		lines[e.Line] = e.After
	}

	return &Result{
		Offset:  off,
		Edits:   edits,
		Touched: touched,
	}, nil
}

// Patch reads an Intel HEX image from r and writes it to w with cfg applied.
// Nothing is written to w unless the patch succeeds.
func Patch(r io.Reader, w io.Writer, cfg *UpdateConfig) (*Result, error) {
	parser := intelhex.NewParser(r)
	for parser.HasNext() {
		if err := parser.ReadRecord(); err != nil {
			return nil, err
		}
	}

	for _, n := range parser.Malformed {
		log.Printf("Passing through malformed record on line %d", n+1)
	}

	lines := slices.Clone(parser.Lines)
	res, err := NewStream(parser.Records).Update(cfg, lines)
	if err != nil {
		return nil, err
	}
	res.Malformed = parser.Malformed

	for _, e := range res.Edits {
		log.Printf("Replaced %s with %s", e.Before, e.After)
	}

	encoder := intelhex.NewEncoder(w, lines)
	if err := encoder.EncodeLines(); err != nil {
		return nil, err
	}

	return res, nil
}
