package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rlch/moviekg/console"
	"github.com/rlch/moviekg/query"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const defaultParallel = 4

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer questions about movies (interactive without arguments)",
		ArgsUsage: "[questions...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "parallel",
				Usage: "questions answered concurrently",
				Value: defaultParallel,
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	answerer, _, err := e.answerer(nil)
	if err != nil {
		return err
	}

	questions := cmd.Args().Slice()
	if len(questions) == 0 {
		return console.Run(ctx, answerer, os.Stdin, os.Stdout)
	}

	answers, err := answerAll(ctx, answerer, questions, cmd.Int("parallel"))
	if err != nil {
		return err
	}

	return printAnswers(os.Stdout, answers, isatty.IsTerminal(os.Stdout.Fd()))
}

// answerAll answers questions concurrently and returns them in input order.
func answerAll(ctx context.Context, asker console.Asker, questions []string, parallel int) ([]query.Answer, error) {
	answers := make([]query.Answer, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))

	for i, q := range questions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			answers[i] = asker.Answer(gctx, q)

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return answers, nil
}

func printAnswers(w io.Writer, answers []query.Answer, styled bool) error {
	styles := console.DefaultStyles()

	for _, a := range answers {
		line := a.Text
		if styled {
			line = styles.RenderQuestion(a.Question) + "\n  " + styles.RenderAnswer(a)
		}

		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return err
		}
	}

	return nil
}
