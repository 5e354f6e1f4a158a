package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"lorebook/pkg/generate"
	"lorebook/pkg/lorebook"
)

var (
	batchWorld    string
	batchQuantity int
	batchTemplate string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate entries for several characters of a world",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		book, err := lorebook.Open(bookPath)
		if err != nil {
			return err
		}
		gw := newGateway(ctx)
		req, err := cliRequest(ctx, gw, batchTemplate)
		if err != nil {
			return err
		}

		res, runErr := generate.New(gw, book).Batch(ctx, batchWorld, batchQuantity, req, func(ev generate.Event) {
			switch ev.Type {
			case generate.EventList:
				log.Info("characters", "names", ev.Names)
			case generate.EventEntry:
				log.Info("generating", "uid", ev.UID, "comment", ev.Entry.Comment)
			case generate.EventChunk:
				log.Debug("chunk", "uid", ev.UID, "text", ev.Text)
			case generate.EventDone:
				log.Info("done", "uid", ev.UID, "comment", ev.Entry.Comment)
			case generate.EventFailed:
				log.Error("failed", "uid", ev.UID, "error", ev.Error)
			}
		})

		// Placeholders and finished entries are kept even when the run stops early.
		if len(res.Names) > 0 {
			if err := book.Save(bookPath); err != nil {
				return err
			}
		}
		if runErr != nil {
			return runErr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d generated, %d failed\n", len(res.Entries), len(res.Failed))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchWorld, "world", "w", "", "fictional world to draw characters from")
	batchCmd.Flags().IntVarP(&batchQuantity, "quantity", "n", 5, "characters to generate (1-10)")
	batchCmd.Flags().StringVarP(&batchTemplate, "template", "t", "", "brief, detailed or a saved template id (default: the selected one)")
	_ = batchCmd.MarkFlagRequired("world")
	rootCmd.AddCommand(batchCmd)
}
