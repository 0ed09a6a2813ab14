package platelog

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/config"
	"github.com/saadjs/platelog/internal/service"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage platelog local configuration",
}

var (
	cfgNotifications string
	cfgRollover      string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			updates := 0
			if cmd.Flags().Changed("notifications") {
				if err := service.SetConfig(sqldb, service.ConfigNotificationPermission, cfgNotifications); err != nil {
					return err
				}
				updates++
			}
			if cmd.Flags().Changed("rollover") {
				if err := service.SetConfig(sqldb, service.ConfigRolloverPolicy, cfgRollover); err != nil {
					return err
				}
				updates++
			}
			if updates == 0 {
				return fmt.Errorf("set at least one flag")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config value(s)\n", updates)
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			cfg, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, cfg[k])
			}
			env := config.Load()
			fmt.Fprintf(cmd.OutOrStdout(), "predictor_url\t%s\n", nonEmptyOrDash(env.Predictor.URL))
			fmt.Fprintf(cmd.OutOrStdout(), "idle_reminder_hours\t%d\n", env.IdleReminderHours)
			fmt.Fprintf(cmd.OutOrStdout(), "s3\t%s\n", env.S3.DiagnosticsSummary())
			return nil
		})
	},
}

func nonEmptyOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)

	configSetCmd.Flags().StringVar(&cfgNotifications, "notifications", "", "Notification permission: granted|denied|default")
	configSetCmd.Flags().StringVar(&cfgRollover, "rollover", "", "Day rollover policy: midnight|manual")
}
