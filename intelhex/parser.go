package intelhex

import (
	"bufio"
	"encoding/hex"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	RecTypeData            = 0x00
	RecTypeEOF             = 0x01
	RecTypeExtSegmentAddr  = 0x02
	RecTypeStartSegment    = 0x03
	RecTypeExtLinearAddr   = 0x04
	RecTypeStartLinearAddr = 0x05
)

// PayloadStart is the character offset of the payload field within a record line.
const PayloadStart = 9

var (
	ErrNoMark         = errors.New("missing record mark")
	ErrShortRecord    = errors.New("record shorter than header")
	ErrBadHex         = errors.New("invalid hex digits")
	ErrLengthMismatch = errors.New("declared length does not match line length")
)

// Record is one structurally valid line of an Intel HEX file.
type Record struct {
	Line     int
	Length   uint8
	Offset   uint16
	RecType  uint8
	Checksum uint8
	Raw      string
}

// PayloadEnd is the character offset just past the payload field.
func (r Record) PayloadEnd() int {
	return PayloadStart + 2*int(r.Length)
}

// Payload returns the payload field as hex digits.
func (r Record) Payload() string {
	return r.Raw[PayloadStart:r.PayloadEnd()]
}

func (r Record) PayloadBytes() []byte {
	b, _ := hex.DecodeString(r.Payload())
	return b
}

func (r Record) IsData() bool {
	return r.RecType == RecTypeData
}

// https://en.wikipedia.org/wiki/Intel_HEX#Format
func ParseLine(line string) (Record, error) {
	if !strings.HasPrefix(line, ":") {
		return Record{}, ErrNoMark
	}
	if len(line) < PayloadStart+2 {
		return Record{}, errors.Wrapf(ErrShortRecord, "%d chars", len(line))
	}

	header, err := hex.DecodeString(line[1:PayloadStart])
	if err != nil {
		return Record{}, errors.Wrap(ErrBadHex, err.Error())
	}

	length := header[0]
	if want := PayloadStart + 2*(int(length)+1); len(line) != want {
		return Record{}, errors.Wrapf(ErrLengthMismatch, "length %d wants %d chars, got %d", length, want, len(line))
	}

	rest, err := hex.DecodeString(line[PayloadStart:])
	if err != nil {
		return Record{}, errors.Wrap(ErrBadHex, err.Error())
	}

	return Record{
		Length:   length,
		Offset:   uint16(header[1])<<8 | uint16(header[2]),
		RecType:  header[3],
		Checksum: rest[len(rest)-1],
		Raw:      line,
	}, nil
}

type Parser struct {
	s    *bufio.Scanner
	line int

	// Lines holds every input line with trailing whitespace removed.
	Lines   []string
	Records []Record
	// Malformed lists line indices that carried a record mark but failed the
	// structural checks. They are passed through untouched.
	Malformed []int

	eof bool
}

type ParserOptions struct {
	maxLineLength int
}

type ParserOption func(*ParserOptions)

// WithMaxLineLength raises the longest line the parser accepts.
func WithMaxLineLength(n int) ParserOption {
	return func(o *ParserOptions) {
		o.maxLineLength = n
	}
}

func NewParser(r io.Reader, opts ...ParserOption) *Parser {
	po := &ParserOptions{
		maxLineLength: 64 * 1024,
	}
	for _, opt := range opts {
		opt(po)
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, min(4096, po.maxLineLength)), po.maxLineLength)

	return &Parser{
		s: s,
	}
}

// ReadRecord consumes one line. Lines that are not records are kept as
// pass-through text.
func (p *Parser) ReadRecord() error {
	if !p.s.Scan() {
		p.eof = true
		return p.s.Err()
	}

	n := p.line
	p.line++

	line := strings.TrimRight(p.s.Text(), " \t\r\n")
	p.Lines = append(p.Lines, line)

	rec, err := ParseLine(line)
	switch {
	case err == nil:
		rec.Line = n
		p.Records = append(p.Records, rec)
	case errors.Is(err, ErrNoMark):
	default:
		p.Malformed = append(p.Malformed, n)
	}

	return nil
}

func (p *Parser) HasNext() bool {
	return !p.eof
}

// DataRecords returns the type 0x00 records in file order.
func (p *Parser) DataRecords() []Record {
	var out []Record
	for _, rec := range p.Records {
		if rec.IsData() {
			out = append(out, rec)
		}
	}
	return out
}
