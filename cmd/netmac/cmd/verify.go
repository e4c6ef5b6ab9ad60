package cmd

import (
	"fmt"
	"os"

	"github.com/anupcshan/netmac/intelhex"
	"github.com/anupcshan/netmac/membuf"
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var ErrBadChecksum = errors.New("record checksum mismatch")

func newVerifyCmd() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify FILE...",
		Short: "Check record checksums and report where a MAC address sits",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runVerify,
	}

	verifyCmd.Flags().String("find", "", "Report every byte-aligned occurrence of this pattern")

	return verifyCmd
}

// VerifyReport summarises one Intel HEX file.
type VerifyReport struct {
	Lines       int
	Records     int
	DataRecords int
	Malformed   []int

	// BadChecksum holds line indices of records whose bytes do not sum to zero.
	BadChecksum *bitset.BitSet

	// Matches holds logical character offsets of the --find pattern.
	Matches []int
}

func verifyFile(path string, find membuf.Pattern) (*VerifyReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parser := intelhex.NewParser(f)
	for parser.HasNext() {
		if err := parser.ReadRecord(); err != nil {
			return nil, err
		}
	}

	report := &VerifyReport{
		Lines:       len(parser.Lines),
		Records:     len(parser.Records),
		DataRecords: len(parser.DataRecords()),
		Malformed:   parser.Malformed,
		BadChecksum: bitset.New(uint(len(parser.Lines))),
	}
	for _, rec := range parser.Records {
		if !rec.Valid() {
			report.BadChecksum.Set(uint(rec.Line))
		}
	}
	if find != "" {
		report.Matches = membuf.NewStream(parser.Records).Matches(find)
	}

	return report, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	var find membuf.Pattern
	if s, _ := cmd.Flags().GetString("find"); s != "" {
		var err error
		if find, err = membuf.ParsePattern(s); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	var bad uint
	for _, path := range args {
		report, err := verifyFile(path, find)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: %d lines, %d records (%d data), %d malformed, %d bad checksums\n",
			path, report.Lines, report.Records, report.DataRecords, len(report.Malformed), report.BadChecksum.Count())
		for i, ok := report.BadChecksum.NextSet(0); ok; i, ok = report.BadChecksum.NextSet(i + 1) {
			fmt.Fprintf(out, "  line %d: bad checksum\n", i+1)
		}
		if find != "" {
			fmt.Fprintf(out, "  %s found %d times at offsets %v\n", find, len(report.Matches), report.Matches)
		}

		bad += report.BadChecksum.Count()
	}

	if bad > 0 {
		return errors.Wrapf(ErrBadChecksum, "%d records", bad)
	}
	return nil
}
