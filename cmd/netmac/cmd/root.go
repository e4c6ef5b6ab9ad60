package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

type app struct {
	metrics *patchMetrics
}

func newRootCmd() *cobra.Command {
	a := &app{
		metrics: newPatchMetrics(),
	}

	rootCmd := &cobra.Command{
		Use:   "netmac",
		Short: "Rewrite the MAC address baked into Intel HEX firmware images",
		Long: `netmac finds a MAC address in the data records of an Intel HEX firmware
image and replaces it, fixing the checksum of every record it touches. This
allows producing per-device images without recompiling the firmware.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logFile, _ := cmd.Flags().GetString("log-file")
			setupLogging(cmd.ErrOrStderr(), logFile)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("log-file", "", "Also append logs to this file, rotated by size")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus textfile metrics here after each run")

	rootCmd.AddCommand(newPatchCmd(a))
	rootCmd.AddCommand(newBatchCmd(a))
	rootCmd.AddCommand(newVerifyCmd())

	return rootCmd
}

func setupLogging(stderr io.Writer, logFile string) {
	log.SetFlags(log.Lmicroseconds | log.Lshortfile)
	if logFile == "" {
		log.SetOutput(stderr)
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	log.SetOutput(io.MultiWriter(stderr, rotator))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
