package cmd

import (
	"fmt"
	"net/url"

	"teamreel/pkg/config"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var registerChannel string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Link a channel to the upload pipeline",
	Long: `Open the broker's registration page in a browser to grant the club
upload access to a channel. The OAuth exchange happens entirely on the
broker; no credentials pass through this machine.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerChannel, "channel", "c", "", "Channel to register (defaults to CHANNEL_ID)")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.BrokerURL == "" {
		return fmt.Errorf("BROKER_URL is not set; run 'teamreel setup' first")
	}

	channel, err := resolveChannel(registerChannel, cfg)
	if err != nil {
		return err
	}

	registerURL := cfg.BrokerURL + "/register?channel=" + url.QueryEscape(channel)

	fmt.Println(infoStyle.Render("Opening browser to link channel " + channel + "..."))
	fmt.Println(infoStyle.Render("If the browser doesn't open, visit:\n" + registerURL))

	_ = browser.OpenURL(registerURL)

	fmt.Println(infoStyle.Render("\nComplete the consent flow in the browser, then verify with: teamreel status"))
	return nil
}
