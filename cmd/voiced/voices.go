package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voiced/internal/common/fsutil"
	"voiced/internal/voices"
)

func newVoicesCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List configured voices and check their reference audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}
			return printVoices(cmd.OutOrStdout(), reg)
		},
	}
	cmd.Flags().String("default-voice", "", "Voice used when a request names none")
	cmd.Flags().String("voices-dir", "", "Directory scanned for <name>.wav + <name>.txt voices")
	return cmd
}

// printVoices writes one row per voice. Missing reference audio is flagged
// so a broken voice shows up before the first load fails on it.
func printVoices(w io.Writer, reg *voices.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDEFAULT\tSIZE\tREF AUDIO")
	for _, v := range reg.List() {
		def := ""
		if v.Name == reg.Default() {
			def = "*"
		}
		size := "missing"
		if fsutil.PathExists(v.RefAudio) {
			size = humanize.IBytes(uint64(fsutil.FileSize(v.RefAudio)))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, def, size, v.RefAudio)
	}
	return tw.Flush()
}
