package cmd

import (
	"fmt"
	"log/slog"

	"teamreel/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	deleteChannel string
	deleteRetry   bool
	deleteYes     bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <video-id>",
	Short: "Remove a video from the channel",
	Long: `Delete a video from the platform. Deleting a video that is already
gone is treated as success.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteChannel, "channel", "c", "", "Channel the video belongs to (defaults to CHANNEL_ID)")
	deleteCmd.Flags().BoolVar(&deleteRetry, "retry", false, "Retry transient transport and server failures")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	videoID := args[0]

	if !deleteYes {
		var confirmed bool
		if err := huh.NewConfirm().
			Title("Delete video " + videoID + "?").
			Description("The video cannot be recovered afterwards.").
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(infoStyle.Render("Delete cancelled"))
			return nil
		}
	}

	cfg := config.Load()
	channel, err := resolveChannel(deleteChannel, cfg)
	if err != nil {
		return err
	}

	client, err := buildHostingClient(cfg, deleteRetry)
	if err != nil {
		return err
	}

	slog.Info("Deleting video", "channel", channel, "video_id", videoID)
	if err := client.Delete(cmd.Context(), channel, videoID); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Video deleted"))
	return nil
}
