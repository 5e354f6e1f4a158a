package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"lorebook/pkg/generate"
	"lorebook/pkg/inference"
	"lorebook/pkg/lorebook"
	"lorebook/pkg/schema"
	"lorebook/pkg/settings"
)

var (
	genUID      int
	genPrompt   string
	genTemplate string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the content of one entry from a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		book, err := lorebook.Open(bookPath)
		if err != nil {
			return err
		}
		gw := newGateway(ctx)
		req, err := cliRequest(ctx, gw, genTemplate)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		entry, err := generate.New(gw, book).Single(ctx, genUID, genPrompt, req, func(ev generate.Event) {
			switch ev.Type {
			case generate.EventChunk:
				fmt.Fprint(out, ev.Text)
			case generate.EventDone:
				fmt.Fprintln(out)
				log.Info("entry updated", "uid", ev.UID, "added", ev.Added, "removed", ev.Removed)
			}
		})
		if err != nil {
			return err
		}

		if err := book.Save(bookPath); err != nil {
			return err
		}
		log.Info("saved", "path", bookPath, "comment", entry.Comment, "key", entry.Key)
		return nil
	},
}

// cliRequest builds a run from saved settings. Without the server's
// connection state, the custom endpoint is probed on every run.
func cliRequest(ctx context.Context, gw *inference.Gateway, templateID string) (generate.Request, error) {
	s := store().Load()
	if s.Provider == schema.ProviderCustom {
		models, err := gw.ConnectionTest(ctx, s.CustomURL, s.CustomKey)
		if err != nil {
			return generate.Request{}, err
		}
		s.CustomModel = inference.PickModel(models, s.CustomModel)
	}
	return requestFor(s, templateID), nil
}

func requestFor(s settings.Settings, templateID string) generate.Request {
	if templateID == "" {
		templateID = s.TemplateID
	}
	mode, template := s.Resolve(templateID)
	return generate.Request{Config: s.ApiConfig(), Mode: mode, Template: template}
}

func init() {
	generateCmd.Flags().IntVar(&genUID, "uid", 0, "entry to generate into")
	generateCmd.Flags().StringVarP(&genPrompt, "prompt", "p", "", "description of the entry")
	generateCmd.Flags().StringVarP(&genTemplate, "template", "t", "", "brief, detailed or a saved template id (default: the selected one)")
	_ = generateCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(generateCmd)
}
