package cmd

import (
	"fmt"
	"os"

	"teamreel/internal/hosting"
	"teamreel/pkg/config"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var statusCheck bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and channel link status",
	Long: `Report which parts of teamreel are configured. With --check, also ask
the broker for a token to verify the channel is linked.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusCheck, "check", false, "Verify the channel link against the broker")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Println(titleStyle.Render("Teamreel Status"))

	if cfg.BrokerURL != "" {
		fmt.Println(successStyle.Render("✓ Broker: " + cfg.BrokerURL))
	} else {
		fmt.Println(errorStyle.Render("✗ Broker: BROKER_URL not set"))
	}

	if cfg.SessionToken != "" {
		fmt.Println(successStyle.Render("✓ Session: configured"))
	} else {
		fmt.Println(errorStyle.Render("✗ Session: TEAMREEL_SESSION not set"))
	}

	if cfg.ChannelID != "" {
		fmt.Println(successStyle.Render("✓ Channel: " + cfg.ChannelID))
	} else {
		fmt.Println(errorStyle.Render("✗ Channel: CHANNEL_ID not set"))
	}

	if cfg.FootageBucket != "" {
		fmt.Println(successStyle.Render("✓ Footage bucket: " + cfg.FootageBucket))
	} else {
		fmt.Println(infoStyle.Render("○ Footage bucket: not configured (optional)"))
	}

	if _, err := os.Stat(cfg.Footage.Dir); err == nil {
		fmt.Println(successStyle.Render("✓ Footage dir: " + cfg.Footage.Dir))
	} else {
		fmt.Println(warnStyle.Render("○ Footage dir: " + cfg.Footage.Dir + " does not exist"))
	}

	if cfg.BrokerOAuthClientID != "" && cfg.BrokerOAuthClientSecret != "" {
		fmt.Println(successStyle.Render("✓ Broker OAuth client: configured (broker host)"))
	} else {
		fmt.Println(infoStyle.Render("○ Broker OAuth client: not configured (only needed on the broker host)"))
	}

	if !statusCheck {
		return nil
	}

	if cfg.BrokerURL == "" || cfg.SessionToken == "" || cfg.ChannelID == "" {
		return fmt.Errorf("cannot check the channel link without broker, session and channel configured")
	}

	tokens := hosting.NewBrokerTokenSource(cfg.BrokerURL, hosting.StaticSession(cfg.SessionToken), nil)

	var checkErr error
	_ = spinner.New().
		Title("Asking the broker for a token").
		Action(func() { _, checkErr = tokens.Token(cmd.Context(), cfg.ChannelID) }).
		Run()

	if checkErr != nil {
		fmt.Println(errorStyle.Render("✗ Channel link: " + checkErr.Error()))
		if hosting.KindOf(checkErr) == hosting.KindValidation {
			fmt.Println(infoStyle.Render("  The channel may not be registered yet. Run: teamreel register"))
		}
		return nil
	}

	fmt.Println(successStyle.Render("✓ Channel link: broker minted a token for " + cfg.ChannelID))
	return nil
}
