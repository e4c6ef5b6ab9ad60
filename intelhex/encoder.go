package intelhex

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

type Encoder struct {
	w io.Writer

	Lines []string
}

func NewEncoder(w io.Writer, lines []string) *Encoder {
	return &Encoder{
		w:     w,
		Lines: lines,
	}
}

// EncodeLines writes every line in order, each terminated by a newline.
func (e *Encoder) EncodeLines() error {
	bw := bufio.NewWriter(e.w)
	for _, line := range e.Lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Checksum returns the two's complement of the byte sum of p.
func Checksum(p []byte) uint8 {
	var recordSum uint8
	for _, b := range p {
		recordSum += b
	}

	return ^recordSum + 1 // 2's complement
}

// FormatRecord encodes a single record line with a correct checksum.
func FormatRecord(offset uint16, recType uint8, body []byte) string {
	if len(body) > 0xFF {
		panic(fmt.Errorf("record body of %d bytes does not fit a length byte", len(body)))
	}

	raw := make([]byte, 0, 4+len(body)+1)
	raw = append(raw, uint8(len(body)), uint8(offset>>8), uint8(offset), recType)
	raw = append(raw, body...)
	raw = append(raw, Checksum(raw))

	return ":" + strings.ToUpper(hex.EncodeToString(raw))
}

// Valid reports whether all bytes of the record, checksum included, sum to
// zero modulo 256.
func (r Record) Valid() bool {
	raw, err := hex.DecodeString(r.Raw[1:])
	if err != nil {
		return false
	}

	var sum uint8
	for _, b := range raw {
		sum += b
	}
	return sum == 0
}
