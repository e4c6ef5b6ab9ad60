package cmd

import (
	"log"
	"os"
	"runtime"

	"github.com/anupcshan/netmac/macdefaults"
	"github.com/anupcshan/netmac/membuf"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// BatchJob describes a run producing one image per MAC address.
type BatchJob struct {
	Input   string   `yaml:"input"`
	Old     string   `yaml:"old"`
	OutDir  string   `yaml:"out_dir"`
	Workers int      `yaml:"workers"`
	MACs    []string `yaml:"macs"`

	// Start and Count add Count sequential addresses beginning at Start.
	Start string `yaml:"start"`
	Count int    `yaml:"count"`
}

func loadBatchJob(path string) (*BatchJob, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var job BatchJob
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &job, nil
}

// Targets returns the de-duplicated MAC addresses the job writes, in order.
func (j *BatchJob) Targets() ([]membuf.Pattern, error) {
	var targets []membuf.Pattern
	seen := map[membuf.Pattern]bool{}
	add := func(p membuf.Pattern) {
		if !seen[p] {
			seen[p] = true
			targets = append(targets, p)
		}
	}

	for _, s := range j.MACs {
		p, err := membuf.ParseMAC(s)
		if err != nil {
			return nil, err
		}
		add(p)
	}

	if j.Count > 0 {
		p, err := membuf.ParseMAC(j.Start)
		if err != nil {
			return nil, errors.Wrap(err, "start")
		}
		for i := 0; i < j.Count; i++ {
			if i > 0 {
				if p, err = p.Next(); err != nil {
					return nil, err
				}
			}
			add(p)
		}
	}

	return targets, nil
}

func newBatchCmd(a *app) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Produce one patched image per MAC address",
		Long: `Produce one patched image per MAC address from a single input file.

Addresses come from a YAML job file, from --start/--count, or both.

Example job file:
  input: Net.hex
  old: "32:40:50:60:70:80"
  out_dir: images
  workers: 4
  start: "02:00:00:00:10:00"
  count: 64`,
		Args: cobra.NoArgs,
		RunE: a.runBatch,
	}

	batchCmd.Flags().StringP("config", "c", "", "YAML job file")
	batchCmd.Flags().StringP("in", "i", "", "Input hex file (overrides the job file)")
	batchCmd.Flags().StringP("out-dir", "d", "", "Output directory (overrides the job file)")
	batchCmd.Flags().String("start", "", "First MAC address of a sequential range")
	batchCmd.Flags().Int("count", 0, "Number of sequential addresses starting at --start")
	batchCmd.Flags().IntP("workers", "j", 0, "Concurrent patches (default: number of CPUs)")

	return batchCmd
}

func batchJobFromFlags(cmd *cobra.Command) (*BatchJob, error) {
	job := &BatchJob{}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if job, err = loadBatchJob(path); err != nil {
			return nil, err
		}
	}

	if in, _ := cmd.Flags().GetString("in"); in != "" {
		job.Input = in
	}
	if outDir, _ := cmd.Flags().GetString("out-dir"); outDir != "" {
		job.OutDir = outDir
	}
	if start, _ := cmd.Flags().GetString("start"); start != "" {
		job.Start = start
		job.Count, _ = cmd.Flags().GetInt("count")
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		job.Workers = workers
	}

	if job.Input == "" {
		job.Input = "Net.hex"
	}
	if job.Old == "" {
		job.Old = macdefaults.Net.Old.String()
	}
	if job.OutDir == "" {
		job.OutDir = "."
	}
	if job.Workers <= 0 {
		job.Workers = runtime.NumCPU()
	}

	return job, nil
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	defer a.metrics.flush(cmd)

	job, err := batchJobFromFlags(cmd)
	if err != nil {
		return err
	}

	oldMAC, err := membuf.ParseMAC(job.Old)
	if err != nil {
		return errors.Wrap(err, "old")
	}
	targets, err := job.Targets()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("batch has no target addresses")
	}

	input, err := os.ReadFile(job.Input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(job.OutDir, 0o755); err != nil {
		return err
	}

	batchID := uuid.NewString()
	log.Printf("[batch %s] Writing %d images from %s with %d workers", batchID, len(targets), job.Input, job.Workers)

	var eg errgroup.Group
	eg.SetLimit(job.Workers)
	for _, mac := range targets {
		mac := mac // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		eg.Go(func() error {
			cfg := membuf.UpdateConfig{Old: oldMAC, New: mac}
			outPath, err := a.writePatched(input, &cfg, job.OutDir)
			if err != nil {
				return errors.Wrapf(err, "mac %s", mac)
			}
			log.Printf("[batch %s] New file created %s", batchID, outPath)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	log.Printf("[batch %s] Complete", batchID)
	return nil
}
