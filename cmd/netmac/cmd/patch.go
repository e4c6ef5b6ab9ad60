package cmd

import (
	"bytes"
	"log"
	"os"
	"path/filepath"

	"github.com/anupcshan/netmac/macdefaults"
	"github.com/anupcshan/netmac/membuf"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPatchCmd(a *app) *cobra.Command {
	patchCmd := &cobra.Command{
		Use:   "patch",
		Short: "Replace the MAC address in a firmware hex file",
		Long: `Replace a MAC address stored in the data records of an Intel HEX file.

The old address must appear exactly once across the concatenated payload of all
data records; it may straddle record boundaries. The result is written to
Net<NEWMAC>.hex in the output directory, and nothing is written on failure.

Example:
  netmac patch -i Net.hex --new 02:00:00:00:00:2A`,
		Args: cobra.NoArgs,
		RunE: a.runPatch,
	}

	patchCmd.Flags().StringP("in", "i", "Net.hex", "Input hex file")
	patchCmd.Flags().StringP("out-dir", "d", ".", "Directory for the patched file")
	patchCmd.Flags().String("old", macdefaults.Net.Old.String(), "MAC address present in the input")
	patchCmd.Flags().String("new", macdefaults.Net.New.String(), "MAC address to write")

	return patchCmd
}

func configFromFlags(cmd *cobra.Command) (membuf.UpdateConfig, error) {
	oldFlag, _ := cmd.Flags().GetString("old")
	newFlag, _ := cmd.Flags().GetString("new")

	oldMAC, err := membuf.ParseMAC(oldFlag)
	if err != nil {
		return membuf.UpdateConfig{}, errors.Wrap(err, "--old")
	}
	newMAC, err := membuf.ParseMAC(newFlag)
	if err != nil {
		return membuf.UpdateConfig{}, errors.Wrap(err, "--new")
	}

	return membuf.UpdateConfig{Old: oldMAC, New: newMAC}, nil
}

func (a *app) runPatch(cmd *cobra.Command, args []string) error {
	defer a.metrics.flush(cmd)

	inputFile, _ := cmd.Flags().GetString("in")
	outDir, _ := cmd.Flags().GetString("out-dir")

	cfg, err := configFromFlags(cmd)
	if err != nil {
		a.metrics.observe(nil, err)
		return err
	}

	input, err := os.ReadFile(inputFile)
	if err != nil {
		return err
	}
	log.Printf("Read %s (%s)", inputFile, humanize.Bytes(uint64(len(input))))

	outPath, err := a.writePatched(input, &cfg, outDir)
	if err != nil {
		return err
	}

	log.Printf("New file created %s", outPath)
	return nil
}

// writePatched patches input and writes it under outDir, returning the path.
func (a *app) writePatched(input []byte, cfg *membuf.UpdateConfig, outDir string) (string, error) {
	output, res, err := mutateFirmware(input, cfg)
	a.metrics.observe(res, err)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(outDir, OutputName(cfg.New))
	if err := atomicWriteFile(outPath, output, 0644); err != nil {
		return "", err
	}

	return outPath, nil
}

func mutateFirmware(input []byte, cfg *membuf.UpdateConfig) ([]byte, *membuf.Result, error) {
	var outBuf bytes.Buffer
	res, err := membuf.Patch(bytes.NewReader(input), &outBuf, cfg)
	if err != nil {
		return nil, nil, err
	}

	return outBuf.Bytes(), res, nil
}
