package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .env file with your API credentials",
	Long: `Ask for the Telegram and Gemini credentials and write them to a .env
file in the current directory.

Telegram API credentials: https://my.telegram.org/apps
Gemini API key:           https://aistudio.google.com/app/apikey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		force, _ := cmd.Flags().GetBool("force")

		out := cmd.OutOrStdout()
		p := promptFor(cmd)

		if _, err := os.Stat(path); err == nil && !force {
			overwrite, err := p.Confirm(fmt.Sprintf("%s already exists, overwrite?", path))
			if err != nil {
				return err
			}
			if !overwrite {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		fmt.Fprintln(out, "Telegram API credentials: https://my.telegram.org/apps")
		fmt.Fprintln(out, "Gemini API key:           https://aistudio.google.com/app/apikey")
		fmt.Fprintln(out)

		questions := []struct{ key, label string }{
			{"TELEGRAM_API_ID", "Telegram API ID"},
			{"TELEGRAM_API_HASH", "Telegram API hash"},
			{"TELEGRAM_PHONE", "Phone number with country code (optional)"},
			{"GEMINI_API_KEY", "Gemini API key"},
			{"TELEGRAM_CHANNELS", "Channels, comma separated (optional)"},
		}

		values := make(map[string]string, len(questions))
		for _, q := range questions {
			answer, err := p.Ask(q.label, "")
			if err != nil {
				return err
			}
			values[q.key] = answer
		}

		if err := config.WriteEnvFile(path, values); err != nil {
			var verr *config.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("nothing written: %w", err)
			}
			return err
		}

		fmt.Fprintf(out, "\nWrote %s. Next: run \"infocompass login\".\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("file", ".env", "Path of the file to write")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file without asking")
	rootCmd.AddCommand(initCmd)
}
