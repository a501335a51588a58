package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long:  `Configure the broker connection, channel and footage locations, and write them to .env.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("⚽ Teamreel Setup"))

	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureConnection(env); err != nil {
		return err
	}
	if err := configureFootage(env); err != nil {
		return err
	}
	if err := createDirectories(); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureConnection(env map[string]string) error {
	var brokerURL, channelID, session string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Broker URL").
				Description("Base URL of the club's token broker").
				Placeholder("https://broker.example.club").
				Value(&brokerURL).
				Validate(required("Broker URL")),
			huh.NewInput().
				Title("Channel ID").
				Description("The channel videos are published on").
				Value(&channelID).
				Validate(required("Channel ID")),
			huh.NewInput().
				Title("Session token").
				Description("Your app session; the broker checks it on every token request").
				EchoMode(huh.EchoModePassword).
				Value(&session).
				Validate(required("Session token")),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["BROKER_URL"] = strings.TrimRight(strings.TrimSpace(brokerURL), "/")
	env["CHANNEL_ID"] = strings.TrimSpace(channelID)
	env["TEAMREEL_SESSION"] = strings.TrimSpace(session)
	return nil
}

func configureFootage(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup a footage bucket?").
		Description("For uploading clips straight from Cloud Storage (optional)").
		Value(&setup).
		Run(); err != nil {
		return err
	}

	if !setup {
		return nil
	}

	var bucket, project string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Footage bucket").
				Placeholder("club-footage").
				Value(&bucket),
			huh.NewInput().
				Title("Google Cloud project").
				Description("Only needed when running the broker yourself").
				Value(&project),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if bucket = strings.TrimSpace(bucket); bucket != "" {
		env["FOOTAGE_BUCKET"] = bucket
	}
	if project = strings.TrimSpace(project); project != "" {
		env["GOOGLE_CLOUD_PROJECT"] = project
	}
	return nil
}

func createDirectories() error {
	dirs := []string{"footage", ".cache"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"BROKER_URL",
		"CHANNEL_ID",
		"TEAMREEL_SESSION",
		"FOOTAGE_BUCKET",
		"GOOGLE_CLOUD_PROJECT",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Link the channel: teamreel register")
	fmt.Println("  2. Drop clips into: footage/")
	fmt.Println("  3. Upload one: teamreel upload -f footage/match.mp4 -t \"Saturday's match\"")
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
