package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/galiprandi/dimensions/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List interviews available for review",
	Run: func(cmd *cobra.Command, _ []string) {
		list(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Int("take", 20, "number of interviews to fetch")
	listCmd.Flags().Int("skip", 0, "number of interviews to skip")
}

func list(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	client, err := newBackofficeClient(config, logger)
	if err != nil {
		logger.Fatal("creating the backoffice client",
			zap.Error(err),
			zap.String("hint", "run 'dimensions login' first or set DIMENSIONS_TOKEN_FILE"),
		)
	}

	take, _ := cmd.Flags().GetInt("take")
	skip, _ := cmd.Flags().GetInt("skip")

	interviews, err := client.Interviews(ctx, take, skip)
	if err != nil {
		logger.Fatal("listing interviews", zap.Error(err))
	}

	if len(interviews) == 0 {
		logger.Info("no interviews found")
		return
	}

	fmt.Printf("%-26s %-30s %-14s %-12s %s\n", "ID", "CANDIDATE", "STATUS", "SENIORITY", "COMPLETE")
	for _, item := range interviews {
		complete := "no"
		if item.Complete {
			complete = "yes"
		}
		fmt.Printf("%-26s %-30s %-14s %-12s %s\n", item.ID, item.Candidate, item.Status, item.Seniority, complete)
	}
}
