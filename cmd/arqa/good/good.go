// Package goodcmder provides the good command for curating the good-answer
// cache consulted before retrieval.
package goodcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/app"
	"github.com/arqalabs/arqa/pkg/cliui"
	"github.com/arqalabs/arqa/pkg/logger"
)

const goodLongDesc string = `Curate the good-answer cache.

Good answers are human-approved question and answer pairs consulted before
retrieval. A question matching a stored entry above the configured threshold
returns the curated answer directly.

Use subcommands to add entries:
  arqa good add <question> <answer>    Store a curated answer

Examples:
  arqa good add "What is the COM module?" "The AUTOSAR signal gateway."`

const goodShortDesc string = "Curate the good-answer cache"

func NewGoodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "good",
		Short: goodShortDesc,
		Long:  goodLongDesc,
	}

	cmd.AddCommand(newAddCmd())

	return cmd
}

type addCommander struct {
	question string
	answer   string

	configDir string
	debug     bool
	logger    *zap.Logger
}

func newAddCmd() *cobra.Command {
	cmder := &addCommander{}

	cmd := &cobra.Command{
		Use:   "add <question> <answer>",
		Short: "Store a curated answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.question = args[0]
			cmder.answer = args[1]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run()
		},
	}

	return cmd
}

func (c *addCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	a, err := app.New(c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Good.Add(context.Background(), c.question, c.answer); err != nil {
		return err
	}

	fmt.Printf("\n  %s Stored good answer for %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(fmt.Sprintf("%q", c.question)),
	)
	return nil
}
