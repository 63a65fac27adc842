package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	notificationCmd "github.com/Alturino/storefront/notification/cmd"
)

func Start() {
	logger := log.InitLogger("").
		With().
		Str(log.KeyAppName, otel.AppName).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	var configName string
	rootCmd := &cobra.Command{Use: otel.AppName}
	rootCmd.PersistentFlags().
		StringVarP(&configName, "config", "c", otel.AppName, "config file name without extension, looked up in ./env and .")

	commands := []*cobra.Command{
		{
			Use:   "serve",
			Short: "Run the storefront http server",
			Run: func(cmd *cobra.Command, args []string) {
				runServer(cmd.Context(), configName)
			},
		},
		{
			Use:   "notification",
			Short: "Run the receipt worker consuming invoice events",
			Run: func(cmd *cobra.Command, args []string) {
				notificationCmd.RunNotificationService(cmd.Context(), configName)
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
