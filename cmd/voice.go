package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/logger"
	"github.com/umeshrajanna/deepship-api/pkg/voice"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Talk to the assistant over the realtime voice channel",
	Long: `Stream raw PCM16 mono audio to the voice channel and save the spoken reply.

Input is sent at real-time pace. Without --input the command listens until
interrupted. Transcripts and search activity are printed as they arrive.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inPath, _ := cmd.Flags().GetString("input")
		outPath, _ := cmd.Flags().GetString("output")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		var input io.Reader
		if inPath != "" {
			f, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("failed to open audio input: %w", err)
			}
			defer f.Close()
			input = f
		}

		var output io.Writer
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create audio output: %w", err)
			}
			defer f.Close()
			output = f
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		conn, err := voice.Dial(ctx, a.cfg.Voice.URL, a.session.Token())
		if err != nil {
			return err
		}
		defer conn.Close()

		out := cmd.OutOrStdout()
		session := voice.NewSession(conn, voice.Options{
			SampleRate: a.cfg.Voice.SampleRate,
			ChunkMS:    a.cfg.Voice.ChunkMS,
			OnEvent:    printVoiceEvent(out),
		})

		logger.Info("voice session start", "url", a.cfg.Voice.URL, "input", inPath)
		res, err := session.Run(ctx, input, output)
		if res != nil && res.ConversationID != "" {
			if serr := a.session.SetConversationID(cmd.Context(), res.ConversationID); serr != nil {
				logger.Warn("failed to save voice conversation", "error", serr)
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
		if err != nil {
			return err
		}

		if res != nil && outPath != "" {
			fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("Saved %d bytes of audio to %s.", res.AudioBytes, outPath)))
		}
		return nil
	},
}

func init() {
	voiceCmd.Flags().String("input", "", "raw PCM16 mono file to send")
	voiceCmd.Flags().String("output", "", "file to write the reply audio to")
	voiceCmd.Flags().Duration("timeout", 0, "end the session after this long")
	rootCmd.AddCommand(voiceCmd)
}

func printVoiceEvent(w io.Writer) func(voice.Event) {
	return func(e voice.Event) {
		switch e.Type {
		case voice.TypeInputTranscript:
			fmt.Fprintf(w, "%s %s\n", titleStyle.Render("you:"), e.Transcript)
		case voice.TypeTranscriptDone:
			fmt.Fprintf(w, "%s %s\n", titleStyle.Render("assistant:"), e.Transcript)
		case voice.TypeSearchResults:
			fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("searched %q (%d sources)", e.Query, len(e.URLs))))
		case voice.TypeSpeechStarted:
			fmt.Fprintln(w, hintStyle.Render("listening..."))
		}
	}
}
