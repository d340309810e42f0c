package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"docpack/internal/assembly"
	"docpack/internal/docpack"
	"docpack/internal/model"
	"docpack/internal/render"

	"github.com/spf13/cobra"
)

var (
	flagOut        string
	flagWorkers    int
	flagEmbeddings bool
	flagContexts   bool
	flagCreatedAt  string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <job.json>",
	Short: "Run the assembly pipeline over a job file and write a docpack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobPath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		job, err := model.LoadJob(jobPath)
		if err != nil {
			return err
		}

		createdAt := time.Now()
		if flagCreatedAt != "" {
			createdAt, err = time.Parse(time.RFC3339, flagCreatedAt)
			if err != nil {
				return fmt.Errorf("invalid --created-at: %w", err)
			}
		}

		out := flagOut
		if out == "" {
			base := strings.TrimSuffix(filepath.Base(jobPath), filepath.Ext(jobPath))
			out = base + ".docpack"
		}

		fmt.Printf("Assembling job %s...\n", job.JobID)
		start := time.Now()

		res, err := assembly.Run(cmd.Context(), job, assembly.Config{
			Workers:           flagWorkers,
			IncludeEmbeddings: flagEmbeddings,
			IncludeContexts:   flagContexts,
			CreatedAt:         createdAt,
		})
		if err != nil {
			return err
		}

		manifest, err := docpack.Write(out, res.Pack)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Println(render.SuccessStyle.Render(fmt.Sprintf("\nDone in %s", elapsed.Round(time.Millisecond))))
		fmt.Printf("  Pack:     %s (%s)\n", out, render.DimStyle.Render(manifest.DocpackID))
		fmt.Printf("  Symbols:  %d in %d clusters\n", res.Stats.Symbols, res.Stats.Clusters)
		fmt.Printf("  Edges:    %d (%d unresolved, %d ambiguous calls)\n",
			res.Stats.Edges, res.Stats.UnresolvedCalls, res.Stats.AmbiguousCalls)
		for _, w := range res.Stats.Warnings {
			fmt.Println(render.WarnStyle.Render("  warning: " + w))
		}
		return nil
	},
}

func init() {
	assembleCmd.Flags().StringVar(&flagOut, "out", "", "output path (default <job>.docpack)")
	assembleCmd.Flags().IntVar(&flagWorkers, "workers", runtime.NumCPU(), "parallel workers for similarity computation")
	assembleCmd.Flags().BoolVar(&flagEmbeddings, "embeddings", false, "include the binary embeddings section")
	assembleCmd.Flags().BoolVar(&flagContexts, "contexts", false, "include synthesized symbol contexts")
	assembleCmd.Flags().StringVar(&flagCreatedAt, "created-at", "", "pin the manifest timestamp (RFC 3339) for reproducible output")
	rootCmd.AddCommand(assembleCmd)
}
