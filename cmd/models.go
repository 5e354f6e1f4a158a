package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"lorebook/pkg/inference"
)

var (
	modelsURL string
	modelsKey string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Test a custom endpoint and list its models",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store()
		s := st.Load()
		if modelsURL == "" {
			modelsURL, modelsKey = s.CustomURL, s.CustomKey
		}

		models, err := newGateway(cmd.Context()).ConnectionTest(cmd.Context(), modelsURL, modelsKey)
		if err != nil {
			return err
		}

		s.CustomURL, s.CustomKey = modelsURL, modelsKey
		s.CustomModel = inference.PickModel(models, s.CustomModel)
		for _, m := range models {
			mark := " "
			if m == s.CustomModel {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, m)
		}

		if err := st.Save(s); err != nil {
			return err
		}
		log.Info("custom endpoint saved", "url", modelsURL, "model", s.CustomModel)
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsURL, "url", "", "OpenAI-compatible base URL (default: the saved one)")
	modelsCmd.Flags().StringVar(&modelsKey, "key", "", "API key")
	rootCmd.AddCommand(modelsCmd)
}
