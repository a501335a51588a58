package cmd

import (
	"fmt"

	"teamreel/internal/assets"
	"teamreel/pkg/config"

	"github.com/spf13/cobra"
)

var clipsRemote bool

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "List footage available for upload",
	Long: `List clips in the local footage directory, or with --remote the
objects in the footage bucket.`,
	RunE: runClips,
}

func init() {
	clipsCmd.Flags().BoolVarP(&clipsRemote, "remote", "r", false, "List the footage bucket instead of the local directory")
	rootCmd.AddCommand(clipsCmd)
}

func runClips(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if clipsRemote {
		if cfg.FootageBucket == "" {
			return fmt.Errorf("FOOTAGE_BUCKET is not set")
		}

		bucket, err := assets.NewBucket(cmd.Context(), cfg.FootageBucket, cfg.Footage.CacheDir)
		if err != nil {
			return err
		}
		defer func() { _ = bucket.Close() }()

		objects, err := bucket.List(cmd.Context(), cfg.Footage.BucketPrefix)
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("gs://%s (%d clips)", cfg.FootageBucket, len(objects))))
		for _, object := range objects {
			fmt.Println("  " + object)
		}
		return nil
	}

	clips, err := assets.ListClips(cfg.Footage.Dir)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s (%d clips)", cfg.Footage.Dir, len(clips))))
	for _, clip := range clips {
		fmt.Println("  " + clip)
	}
	return nil
}
