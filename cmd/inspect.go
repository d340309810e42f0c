package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"docpack/internal/docpack"
	"docpack/internal/render"

	"github.com/spf13/cobra"
)

var flagJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.docpack>",
	Short: "Validate a docpack and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := docpack.Open(args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"manifest": r.Manifest(),
				"metrics":  r.Graph().Metrics,
				"clusters": r.Clusters().Clusters,
				"central":  render.CentralSymbols(r, 10),
			})
		}

		fmt.Println(render.TitleStyle.Render(args[0]))
		md := render.SummaryMarkdown(r)
		out, err := render.Markdown(md, 100)
		if err != nil {
			// Plain markdown still beats no output on odd terminals.
			fmt.Println(md)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&flagJSON, "json", false, "emit the summary as JSON")
	rootCmd.AddCommand(inspectCmd)
}
