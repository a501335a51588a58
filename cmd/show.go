package cmd

import (
	"fmt"
	"strings"

	"teamreel/pkg/config"

	"github.com/spf13/cobra"
)

var showChannel string

var showCmd = &cobra.Command{
	Use:   "show <video-id>",
	Short: "Show the platform's current metadata for a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showChannel, "channel", "c", "", "Channel the video belongs to (defaults to CHANNEL_ID)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	channel, err := resolveChannel(showChannel, cfg)
	if err != nil {
		return err
	}

	client, err := buildHostingClient(cfg, false)
	if err != nil {
		return err
	}

	resource, err := client.Read(cmd.Context(), channel, args[0])
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(resource.Metadata.Title))
	fmt.Printf("  ID:       %s\n", resource.ID)
	fmt.Printf("  URL:      %s\n", resource.URL)
	fmt.Printf("  Privacy:  %s\n", resource.Metadata.Privacy)
	fmt.Printf("  Category: %s\n", resource.Metadata.CategoryID)
	if len(resource.Metadata.Tags) > 0 {
		fmt.Printf("  Tags:     %s\n", strings.Join(resource.Metadata.Tags, ", "))
	}
	if resource.Metadata.Description != "" {
		fmt.Printf("  Description:\n    %s\n", strings.ReplaceAll(resource.Metadata.Description, "\n", "\n    "))
	}
	return nil
}
