package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stooppolitics/stoop-cms/internal/services/studio"
)

// episodesCmd groups operator commands that work on stored episodes
var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "Manage episodes",
	Long: `List, create, publish and delete episodes without the admin UI.

Publishing is irreversible and deleting removes the transcript and
the stored audio and cover.`,
}

var episodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all episodes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runEpisodesList,
}

var episodesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an episode from an audio file",
	Long: `Upload an audio file as a new draft episode. The file goes through
the same format and size checks as the admin upload form.`,
	Args: cobra.NoArgs,
	RunE: runEpisodesCreate,
}

var episodesPublishCmd = &cobra.Command{
	Use:   "publish <episode-id>",
	Short: "Publish an episode",
	Args:  cobra.ExactArgs(1),
	RunE:  runEpisodesPublish,
}

var episodesDeleteCmd = &cobra.Command{
	Use:   "delete <episode-id>",
	Short: "Delete an episode and its transcript",
	Long:  `Delete an episode, its transcript nodes and its stored media. Asks for confirmation unless --yes is given.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEpisodesDelete,
}

func init() {
	rootCmd.AddCommand(episodesCmd)
	episodesCmd.AddCommand(episodesListCmd, episodesCreateCmd, episodesPublishCmd, episodesDeleteCmd)

	episodesCreateCmd.Flags().String("title", "", "episode title (required)")
	episodesCreateCmd.Flags().String("summary", "", "episode summary")
	episodesCreateCmd.Flags().String("file", "", "audio file to upload (required)")
	episodesCreateCmd.Flags().String("cover", "", "cover image file")
	episodesCreateCmd.Flags().Bool("transcribe", false, "transcribe the audio after upload")
	_ = episodesCreateCmd.MarkFlagRequired("title")
	_ = episodesCreateCmd.MarkFlagRequired("file")

	episodesDeleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

func runEpisodesList(cmd *cobra.Command, args []string) error {
	app, err := startApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	list, err := app.episodes.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No episodes yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tTRANSCRIPT\tCREATED")
	for _, e := range list {
		status := "draft"
		if e.IsPublished {
			status = "published"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Title, status, e.TranscriptionStatus, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runEpisodesCreate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	summary, _ := cmd.Flags().GetString("summary")
	audioPath, _ := cmd.Flags().GetString("file")
	coverPath, _ := cmd.Flags().GetString("cover")
	transcribe, _ := cmd.Flags().GetBool("transcribe")

	audio, closeAudio, err := openMedia(audioPath)
	if err != nil {
		return err
	}
	defer closeAudio()

	input := studio.SaveInput{Title: title, Summary: summary, Audio: audio, Transcribe: transcribe}
	if coverPath != "" {
		cover, closeCover, err := openMedia(coverPath)
		if err != nil {
			return err
		}
		defer closeCover()
		input.Cover = cover
	}

	app, err := startApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.studio.Save(cmd.Context(), input)
	if err != nil {
		return err
	}
	printSaveResult(cmd.OutOrStdout(), result)
	return nil
}

func runEpisodesPublish(cmd *cobra.Command, args []string) error {
	app, err := startApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	episode, err := app.episodes.Publish(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published %q at %s\n", episode.Title, episode.PublishedAt.Format("2006-01-02 15:04"))
	return nil
}

func runEpisodesDelete(cmd *cobra.Command, args []string) error {
	app, err := startApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	episode, err := app.episodes.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	warning := fmt.Sprintf("Deleting %q removes its transcript and audio.", episode.Title)
	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), warning) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
		return nil
	}

	if _, err := app.episodes.Delete(cmd.Context(), episode.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", episode.Title)
	return nil
}

// startApplication loads the configuration and builds every service
func startApplication() (*application, error) {
	cfg, err := appConfig()
	if err != nil {
		return nil, err
	}
	return newApplication(cfg)
}

// openMedia opens a local file for the save workflow; the type comes from the extension
func openMedia(path string) (*studio.Media, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return &studio.Media{
		Name:   filepath.Base(path),
		Size:   info.Size(),
		Reader: f,
	}, func() { f.Close() }, nil
}

func printSaveResult(out io.Writer, result *studio.SaveResult) {
	episode := result.Episode
	fmt.Fprintf(out, "Saved episode %s (%s)\n", episode.ID, episode.Title)
	fmt.Fprintf(out, "Audio: %s\n", episode.AudioURL)
	if episode.TranscriptionStatus != "" {
		fmt.Fprintf(out, "Transcription: %s\n", episode.TranscriptionStatus)
	}
	if result.Transcription != nil {
		fmt.Fprintf(out, "Transcript nodes: %d\n", result.Transcription.NodeCount)
	}
	if result.TranscriptionError != "" {
		fmt.Fprintf(out, "Transcription failed: %s\n", result.TranscriptionError)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
}
