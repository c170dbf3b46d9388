package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/galiprandi/dimensions/internal/ai"
	"github.com/galiprandi/dimensions/internal/backoffice"
	"github.com/galiprandi/dimensions/internal/conclusions"
	"github.com/galiprandi/dimensions/internal/logger"
	"github.com/galiprandi/dimensions/internal/orchestrator"
	"github.com/galiprandi/dimensions/internal/profile"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptSave       = "Guardar"
	PromptSkip       = "Omitir"
	PromptRegenerate = "Regenerar"
	PromptExit       = "Salir"
)

var (
	errExit       = errors.New("exit requested")
	errRegenerate = errors.New("regeneration requested")
)

// stepLabels are the operator-facing progress messages, one per pipeline
// step that takes noticeable time.
var stepLabels = map[orchestrator.State]string{
	orchestrator.StateLoadingInterview:     "Leyendo la entrevista...",
	orchestrator.StateCheckingAvailability: "Verificando disponibilidad del modelo...",
	orchestrator.StateFetchingProfile:      "Obteniendo el perfil del candidato...",
	orchestrator.StateSummarizingProfile:   "Resumiendo el perfil...",
	orchestrator.StateGeneratingPrompt:     "Generando el prompt...",
	orchestrator.StateGeneratingConclusion: "Generando conclusiones...",
}

var reviewCmd = &cobra.Command{
	Use:   "review [interview-id]",
	Short: "Generate AI conclusions for an interview and save the approved ones",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		review(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().Bool("no-ai", false, "print the review prompt for manual use instead of invoking the model")
	reviewCmd.Flags().BoolP("auto-approve", "y", false, "save every generated conclusion without asking")
}

// review is the main command of the cli.
func review(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting dimensions", zap.String("version", version))

	client, err := newBackofficeClient(config, logger)
	if err != nil {
		logger.Fatal("creating the backoffice client",
			zap.Error(err),
			zap.String("hint", "run 'dimensions login' first or set DIMENSIONS_TOKEN_FILE"),
		)
	}

	interviewID, err := selectInterview(ctx, client, args)
	if err != nil {
		logger.Fatal("selecting an interview", zap.Error(err))
	}

	if cmd.Flag("no-ai").Value.String() == "true" {
		if err := printReviewPrompt(ctx, client, interviewID); err != nil {
			logger.Fatal("building the review prompt", zap.Error(err))
		}
		return
	}

	sessions, err := newSessionManager(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the model session manager", zap.Error(err))
	}

	profiles := profile.New(config.ProfileProxyURL, sessions, logger)

	orch := orchestrator.New(client, profiles, sessions, logger,
		orchestrator.WithTransitionHook(func(state orchestrator.State) {
			if label, ok := stepLabels[state]; ok {
				fmt.Println(label)
			}
		}),
	)
	defer orch.Close()

	orch.SetInterview(interviewID)

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"

	for {
		if err := orch.Generate(ctx); err != nil {
			if errors.Is(err, ai.ErrCapabilityUnavailable) {
				logger.Fatal("the model capability is unavailable on this host",
					zap.String("hint", "check the gemini api key and network access"),
				)
			}
			logger.Fatal("generating conclusions", zap.Error(err))
		}

		status := orch.Status()

		if len(status.Result.Items) == 0 {
			logger.Info("exiting", zap.String("reason", "the model returned no usable conclusions"))
			return
		}

		err := handleItems(ctx, client, logger, status.Result.Items, autoApprove)
		if errors.Is(err, errRegenerate) {
			continue
		}
		if err != nil && !errors.Is(err, errExit) {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}
}

// selectInterview resolves the target interview from the argument, or
// interactively when none was given.
func selectInterview(ctx context.Context, client *backoffice.Client, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	interviews, err := client.Interviews(ctx, 20, 0)
	if err != nil {
		return "", err
	}

	if len(interviews) == 0 {
		return "", errors.New("no interviews found")
	}

	items := make([]string, 0, len(interviews))
	for _, interview := range interviews {
		items = append(items, fmt.Sprintf("%s %s / %s / %s",
			interview.ID, interview.Candidate, interview.Seniority, interview.Status,
		))
	}

	prompt := promptui.Select{
		Label: "Elegí una entrevista y presioná ENTER",
		Items: items,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", err
	}

	return interviews[index].ID, nil
}

// printReviewPrompt writes the human-readable prompt to stdout so it can be
// pasted into any chat model.
func printReviewPrompt(ctx context.Context, client *backoffice.Client, interviewID string) error {
	snapshot, err := client.Interview(ctx, interviewID)
	if err != nil {
		return err
	}

	fmt.Println(conclusions.BuildReviewPrompt(snapshot.Candidate, snapshot.Dimensions, snapshot.Stacks, ""))
	return nil
}

func handleItems(ctx context.Context, client *backoffice.Client, logger *zap.Logger, items []conclusions.NormalizedItem, autoApprove bool) error {
	for _, item := range items {
		printItem(item)

		if item.EvaluationID == "" {
			logger.Warn("conclusion matches no evaluation record, nothing to save",
				zap.String("target_id", item.Label),
			)
			continue
		}

		action := PromptSave
		if !autoApprove {
			prompt := promptui.Select{
				Label: fmt.Sprintf("Conclusión para %q", item.Label),
				Items: []string{PromptSave, PromptSkip, PromptRegenerate, PromptExit},
			}

			var err error
			_, action, err = prompt.Run()
			if err != nil {
				return err
			}
		}

		switch action {
		case PromptSave:
			saveItem(ctx, client, logger, item)
		case PromptSkip:
			continue
		case PromptRegenerate:
			return errRegenerate
		case PromptExit:
			return errExit
		}
	}

	return nil
}

func printItem(item conclusions.NormalizedItem) {
	fmt.Printf("\n## %s\n", item.Label)
	if item.CurrentConclusion != "" {
		fmt.Printf("Conclusión actual: %s\n", item.CurrentConclusion)
	}
	fmt.Printf("Conclusión propuesta: %s\n", item.Conclusion)
}

func saveItem(ctx context.Context, client *backoffice.Client, logger *zap.Logger, item conclusions.NormalizedItem) {
	var outcome backoffice.SaveOutcome

	switch item.Kind {
	case conclusions.KindDimension:
		outcome = client.SaveDimensionConclusion(ctx, item.EvaluationID, item.Conclusion)
	case conclusions.KindStack:
		outcome = client.SaveStackConclusion(ctx, item.EvaluationID, item.Conclusion)
	case conclusions.KindFinalConclusion:
		outcome = client.SaveFinalConclusion(ctx, item.EvaluationID, item.Conclusion)
	default:
		logger.Warn("unknown conclusion kind", zap.String("kind", string(item.Kind)))
		return
	}

	if outcome.State == backoffice.SaveFailed {
		logger.Warn("saving the conclusion failed",
			zap.String("label", item.Label),
			zap.Error(outcome.Err),
		)
		return
	}

	logger.Info("conclusion saved", zap.String("label", item.Label))
}
