package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"teamreel/internal/hosting"
	"teamreel/pkg/config"

	"github.com/spf13/cobra"
)

var (
	updateChannel     string
	updateTitle       string
	updateDescription string
	updateTags        []string
	updatePrivacy     string
	updateCategory    string
	updateRetry       bool
)

var updateCmd = &cobra.Command{
	Use:   "update <video-id>",
	Short: "Change metadata on an uploaded video",
	Long: `Update title, description, tags or privacy of a video already on the
channel. Fields not given keep their current value on the platform.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateChannel, "channel", "c", "", "Channel the video belongs to (defaults to CHANNEL_ID)")
	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "New description")
	updateCmd.Flags().StringSliceVar(&updateTags, "tags", nil, "New tags")
	updateCmd.Flags().StringVarP(&updatePrivacy, "privacy", "p", "", "New privacy status")
	updateCmd.Flags().StringVar(&updateCategory, "category", "", "New category id")
	updateCmd.Flags().BoolVar(&updateRetry, "retry", false, "Retry transient transport and server failures")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	videoID := args[0]

	meta := hosting.Metadata{
		Title:       updateTitle,
		Description: updateDescription,
		Tags:        updateTags,
		Privacy:     updatePrivacy,
		CategoryID:  updateCategory,
	}
	if meta.Title == "" && meta.Description == "" && len(meta.Tags) == 0 &&
		meta.Privacy == "" && meta.CategoryID == "" {
		return errors.New("nothing to update; pass at least one metadata flag")
	}

	cfg := config.Load()
	channel, err := resolveChannel(updateChannel, cfg)
	if err != nil {
		return err
	}

	client, err := buildHostingClient(cfg, updateRetry)
	if err != nil {
		return err
	}

	slog.Info("Updating video", "channel", channel, "video_id", videoID)
	if err := client.Update(cmd.Context(), channel, videoID, meta); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Metadata updated"))
	return nil
}
