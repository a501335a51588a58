package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"teamreel/internal/assets"
	"teamreel/internal/hosting"
	"teamreel/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var (
	uploadFile        string
	uploadClip        string
	uploadChannel     string
	uploadTitle       string
	uploadDescription string
	uploadTags        []string
	uploadPrivacy     string
	uploadCategory    string
	uploadLanguage    string
	uploadKids        bool
	uploadRetry       bool
	uploadYes         bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a video to the channel",
	Long: `Upload a local file or a clip from the footage bucket. Metadata not
given on the command line falls back to the defaults in config.yaml.`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "Local video file to upload")
	uploadCmd.Flags().StringVar(&uploadClip, "clip", "", "Object in the footage bucket to upload")
	uploadCmd.Flags().StringVarP(&uploadChannel, "channel", "c", "", "Channel to publish on (defaults to CHANNEL_ID)")
	uploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "Video title (required)")
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "Video description")
	uploadCmd.Flags().StringSliceVar(&uploadTags, "tags", nil, "Tags (defaults to config defaults)")
	uploadCmd.Flags().StringVarP(&uploadPrivacy, "privacy", "p", "", "Privacy status: private, unlisted or public")
	uploadCmd.Flags().StringVar(&uploadCategory, "category", "", "Platform category id")
	uploadCmd.Flags().StringVar(&uploadLanguage, "language", "", "Metadata language code")
	uploadCmd.Flags().BoolVar(&uploadKids, "made-for-kids", false, "Mark the video as made for kids")
	uploadCmd.Flags().BoolVar(&uploadRetry, "retry", false, "Retry transient transport and server failures")
	uploadCmd.Flags().BoolVarP(&uploadYes, "yes", "y", false, "Skip the public-upload confirmation")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadFile == "" && uploadClip == "" {
		return errors.New("please provide --file or --clip")
	}
	if uploadFile != "" && uploadClip != "" {
		return errors.New("--file and --clip are mutually exclusive")
	}
	if uploadTitle == "" {
		return errors.New("please provide --title")
	}

	ctx := cmd.Context()
	cfg := config.Load()

	channel, err := resolveChannel(uploadChannel, cfg)
	if err != nil {
		return err
	}

	meta := uploadMetadata(cfg)

	if meta.Privacy == hosting.PrivacyPublic && !uploadYes {
		var confirmed bool
		if err := huh.NewConfirm().
			Title("Publish publicly?").
			Description(fmt.Sprintf("%q will be visible to everyone immediately.", meta.Title)).
			Affirmative("Publish").
			Negative("Cancel").
			Value(&confirmed).
			Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(infoStyle.Render("Upload cancelled"))
			return nil
		}
	}

	source, err := resolveSource(ctx, cfg)
	if err != nil {
		return err
	}

	client, err := buildHostingClient(cfg, uploadRetry)
	if err != nil {
		return err
	}

	progress := make(chan hosting.UploadProgress, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range progress {
			fmt.Println(infoStyle.Render(fmt.Sprintf("%3d%%  %s", event.Percent, event.Stage)))
		}
	}()

	slog.Info("Uploading video", "channel", channel, "title", meta.Title, "source", source.Name())

	resource, err := client.Upload(ctx, hosting.UploadRequest{
		Channel:  channel,
		Source:   source,
		Metadata: meta,
		Progress: progress,
	})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Upload complete"))
	fmt.Println(successStyle.Render("  " + resource.URL))
	return nil
}

func uploadMetadata(cfg *config.Config) hosting.Metadata {
	meta := hosting.Metadata{
		Title:         uploadTitle,
		Description:   uploadDescription,
		Tags:          uploadTags,
		CategoryID:    uploadCategory,
		Privacy:       uploadPrivacy,
		MadeForKids:   uploadKids,
		Language:      uploadLanguage,
		AudioLanguage: cfg.Upload.AudioLanguage,
	}
	if meta.Language == "" {
		meta.Language = cfg.Upload.Language
	}
	if meta.Privacy == "" {
		meta.Privacy = cfg.Upload.PrivacyStatus
	}
	if meta.CategoryID == "" {
		meta.CategoryID = cfg.Upload.CategoryID
	}
	if len(meta.Tags) == 0 {
		meta.Tags = cfg.Upload.DefaultTags
	}
	if !meta.MadeForKids {
		meta.MadeForKids = cfg.Upload.MadeForKids
	}
	return meta
}

func resolveSource(ctx context.Context, cfg *config.Config) (hosting.AssetSource, error) {
	if uploadFile != "" {
		return hosting.NewFileSource(uploadFile), nil
	}

	if cfg.FootageBucket == "" {
		return nil, errors.New("FOOTAGE_BUCKET is not set; --clip needs the footage bucket")
	}

	bucket, err := assets.NewBucket(ctx, cfg.FootageBucket, cfg.Footage.CacheDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = bucket.Close() }()

	var localPath string
	var fetchErr error
	_ = spinner.New().
		Title("Fetching " + uploadClip + " from the footage bucket").
		Action(func() { localPath, fetchErr = bucket.Fetch(ctx, uploadClip) }).
		Run()
	if fetchErr != nil {
		return nil, fetchErr
	}

	return hosting.NewFileSource(localPath), nil
}
