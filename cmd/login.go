package cmd

import (
	"context"
	"log"

	"github.com/galiprandi/dimensions/internal/backoffice"
	"github.com/galiprandi/dimensions/internal/logger"
	"github.com/galiprandi/dimensions/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backoffice and store the session token",
	Run: func(_ *cobra.Command, _ []string) {
		login()
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func login() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	tokenFile := resolveTokenFile(config)
	if tokenFile == "" {
		logger.Fatal("no place to store the session token",
			zap.String("hint", "set DIMENSIONS_TOKEN_FILE or the 'token-file' key in the configuration file"),
		)
	}

	emailPrompt := promptui.Prompt{Label: "Email"}
	email, err := emailPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	passwordPrompt := promptui.Prompt{Label: "Password", Mask: '*'}
	password, err := passwordPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	client := backoffice.New(logger, "")
	if config.APIURL != "" {
		client.APIURL = config.APIURL
	}
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	token, err := client.Login(ctx, email, password)
	if err != nil {
		logger.Fatal("authentication failed", zap.Error(err))
	}

	if err := secrets.Store(tokenFile, token); err != nil {
		logger.Fatal("storing the session token", zap.Error(err), zap.String("file", tokenFile))
	}

	logger.Info("session token stored", zap.String("file", tokenFile))
}
