package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"github.com/blockedby/infocompass/internal/telegram"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize the Telegram account and store the session",
	Long: `Log in to Telegram and save the session to TELEGRAM_SESSION_FILE.

By default the login code is requested for TELEGRAM_PHONE (asked for when
unset). Use --qr to scan a code from a logged in phone instead, or --tdata
to copy the session of a Telegram Desktop installation
(--tdata alone uses the default location, --tdata=PATH a custom one).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		useQR, _ := cmd.Flags().GetBool("qr")
		tdata, _ := cmd.Flags().GetString("tdata")
		account, _ := cmd.Flags().GetInt("account")
		export, _ := cmd.Flags().GetBool("export")

		rt, err := OpenTelegram(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		switch {
		case tdata != "":
			err = importTData(out, rt.Telegram, tdata, account)
		case useQR:
			fmt.Fprintln(out, "Open Telegram on your phone: Settings > Devices > Link Desktop Device, then scan:")
			err = rt.Telegram.LoginQR(cmd.Context(), func(url string) {
				qrterminal.GenerateHalfBlock(url, qrterminal.L, out)
			})
		default:
			if rt.Config.TGPhone == "" {
				p := promptFor(cmd)
				phone, perr := p.Ask("Phone number with country code (e.g. +1234567890)", "")
				if perr != nil {
					return perr
				}
				rt.Config.TGPhone = phone
			}
			err = rt.Telegram.LoginPhone(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Session saved to %s\n", rt.Config.TGSessionFile)

		if export {
			s, err := rt.Telegram.ExportSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\nSession string (TELEGRAM_SESSION_STRING), keep it secret:")
			fmt.Fprintln(out, s)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().Bool("qr", false, "Log in by scanning a QR code")
	loginCmd.Flags().String("tdata", "", "Import the session of Telegram Desktop")
	loginCmd.Flags().Lookup("tdata").NoOptDefVal = "auto"
	loginCmd.Flags().Int("account", 1, "Account number when tdata holds several")
	loginCmd.Flags().Bool("export", false, "Print the session as a string after login")
	loginCmd.MarkFlagsMutuallyExclusive("qr", "tdata")
	rootCmd.AddCommand(loginCmd)
}

func importTData(w io.Writer, mgr *telegram.Manager, path string, account int) error {
	if path == "auto" {
		path = ""
	}
	path = telegram.NormalizeTDataPath(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("telegram desktop data not found at %s: %w", path, err)
	}

	n, err := telegram.TDataAccounts(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Found %d account(s) in %s\n", n, path)

	return mgr.ImportTData(path, account-1)
}
