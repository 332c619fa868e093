// Package askcmder provides the ask command for querying the indexed corpus.
package askcmder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/answer"
	"github.com/arqalabs/arqa/pkg/app"
	"github.com/arqalabs/arqa/pkg/cliui"
	"github.com/arqalabs/arqa/pkg/logger"
)

type askCommander struct {
	question string
	plain    bool

	configDir string
	debug     bool
	logger    *zap.Logger

	// history holds this session's prior questions for the context rewrite.
	history []string
}

const askLongDesc string = `Ask a question against the ingested documents.

The question is rewritten against session history, resolved to its canonical
form, checked against the curated good-answer cache, and finally answered
with ranked retrieval context from the vector index.

Without a question argument, ask starts an interactive session; short
follow-up questions are automatically rewritten using the questions asked
earlier in the session.

Example:
  arqa ask "What is the COM module?"
  arqa ask --plain "How does NM coordinate sleep?"
  arqa ask`

const askShortDesc string = "Ask a question against the ingested documents"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.question = args[0]
			}

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run()
		},
	}

	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print context without markdown rendering")

	return cmd
}

func (c *askCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	a, err := app.New(c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.question != "" {
		return c.askOnce(ctx, a)
	}
	return c.interactive(ctx, a)
}

func (c *askCommander) askOnce(ctx context.Context, a *app.App) error {
	ans, err := a.Answerer.Ask(ctx, c.question, c.history)
	if err != nil {
		return err
	}
	c.history = append(c.history, c.question)
	c.printAnswer(ans)
	return nil
}

func (c *askCommander) interactive(ctx context.Context, a *app.App) error {
	fmt.Println("  Interactive session. Empty line or Ctrl-C to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		ans, err := a.Answerer.Ask(ctx, question, c.history)
		if err != nil {
			fmt.Printf("  %s %s\n", cliui.FailMark, err)
			continue
		}
		c.history = append(c.history, question)
		c.printAnswer(ans)
	}
}

func (c *askCommander) printAnswer(ans *answer.Answer) {
	fmt.Printf("\n  %s %s\n",
		cliui.HeaderStyle.Render("Canonical:"),
		cliui.ValueStyle.Render(ans.Canonical),
	)
	fmt.Printf("  %s %s\n\n",
		cliui.HeaderStyle.Render("Source:"),
		cliui.SourceStyle.Render(ans.Source),
	)

	switch ans.Source {
	case answer.SourceNone:
		fmt.Printf("  %s\n", cliui.DimStyle.Render("No matching material found."))

	case answer.SourceGoodAnswer:
		c.printBody(ans.Text)

	case answer.SourceRetrieval:
		for i, hit := range ans.Hits {
			fmt.Printf("  %s %s %s\n",
				cliui.KeyStyle.Render(fmt.Sprintf("#%d", i+1)),
				cliui.ScoreStyle.Render(fmt.Sprintf("score: %.4f", hit.Score)),
				cliui.DimStyle.Render(hit.Source),
			)
		}
		fmt.Println()
		c.printBody(ans.Context)
	}
}

func (c *askCommander) printBody(body string) {
	if !c.plain {
		if rendered, err := cliui.RenderMarkdown(body); err == nil {
			fmt.Println(rendered)
			return
		}
	}
	fmt.Println(body)
}
