package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/latestcomment/go-ai-debate/internal/models"
	"github.com/latestcomment/go-ai-debate/internal/services"
)

var (
	runTopic string
	runStyle string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a whole debate in the terminal",
	Long: `Create a debate and step it to the end, printing each turn.

Examples:
  debate run --topic "Pineapple on pizza?"
  debate run --topic "Tabs or spaces" --style academic`,
	RunE: runDebate,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runTopic, "topic", "t", "", "debate topic (3-200 characters)")
	runCmd.Flags().StringVarP(&runStyle, "style", "s", "", "witty, academic or chaotic (default from DEFAULT_STYLE)")
	_ = runCmd.MarkFlagRequired("topic")
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	metaStyle   = lipgloss.NewStyle().Faint(true)
	sideStyles  = map[models.Side]lipgloss.Style{
		models.SideA: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		models.SideB: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
	}
	bodyStyle = lipgloss.NewStyle().PaddingLeft(2).Width(88)
)

func runDebate(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	debate, err := d.debates.CreateDebate(ctx, services.CreateDebateInput{Topic: runTopic, StyleTag: runStyle})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render(debate.Topic))
	fmt.Fprintln(out, metaStyle.Render(fmt.Sprintf("style %s · debate %s", debate.StyleTag, debate.ID)))

	_, err = d.debates.Run(ctx, debate.ID, func(t models.Turn) {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s %s\n",
			sideStyles[t.Side].Render("Side "+string(t.Side)),
			metaStyle.Render(fmt.Sprintf("round %d · %s", t.RoundNo, t.Role.RoundName())))
		fmt.Fprintln(out, bodyStyle.Render(t.Content))
	})
	if err != nil {
		return fmt.Errorf("debate %s stopped: %w", debate.ID, err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, metaStyle.Render("debate finished"))
	return nil
}
