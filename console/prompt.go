// Package console implements the interactive question prompt.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rlch/moviekg/query"
)

// PromptText is shown to invite a question.
const PromptText = "请输入关于电影的问题（例如：肖申克的救赎的导演是谁？）"

// Words that end an interactive session.
var exitWords = []string{"exit", "quit", "q", "退出"}

// Asker answers a question.
type Asker interface {
	Answer(ctx context.Context, question string) query.Answer
}

// IsTerminal reports whether both ends of the session are terminals.
func IsTerminal(in io.Reader, out io.Writer) bool {
	fin, ok := in.(*os.File)
	if !ok || !isatty.IsTerminal(fin.Fd()) {
		return false
	}

	fout, ok := out.(*os.File)

	return ok && isatty.IsTerminal(fout.Fd())
}

// Run answers questions read from in until EOF, an exit word or ctx ends.
// On a terminal it runs the interactive prompt, otherwise it reads lines.
func Run(ctx context.Context, asker Asker, in io.Reader, out io.Writer) error {
	if IsTerminal(in, out) {
		return RunInteractive(ctx, asker, in, out)
	}

	return RunLines(ctx, asker, in, out)
}

// RunLines answers one question per input line, printing plain answers.
func RunLines(ctx context.Context, asker Asker, in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintln(out, PromptText)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}

		if isExit(q) {
			return nil
		}

		_, err := fmt.Fprintln(out, asker.Answer(ctx, q).Text)
		if err != nil {
			return err
		}
	}

	return scanner.Err()
}

// RunInteractive runs the bubbletea prompt.
func RunInteractive(ctx context.Context, asker Asker, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(newModel(ctx, asker),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}

func isExit(q string) bool {
	for _, w := range exitWords {
		if strings.EqualFold(q, w) {
			return true
		}
	}

	return false
}

// exchange is one answered question.
type exchange struct {
	question string
	answer   query.Answer
}

type answerMsg query.Answer

// model is the bubbletea model of the interactive prompt.
type model struct {
	ctx     context.Context //nolint:containedctx // bubbletea commands run outside Update
	asker   Asker
	styles  *Styles
	input   textinput.Model
	spinner spinner.Model

	history []exchange
	pending string
	busy    bool
	quit    bool
}

func newModel(ctx context.Context, asker Asker) *model {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "肖申克的救赎的导演是谁？"
	ti.Prompt = styles.Muted.Render(styles.SymbolPointer) + " "
	ti.CharLimit = 256
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerFrames(),
		FPS:    time.Second / 10,
	}
	s.Style = styles.Running

	return &model{
		ctx:     ctx,
		asker:   asker,
		styles:  styles,
		input:   ti,
		spinner: s,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // bubbletea.Model interface required by tea.Program
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true

			return m, tea.Quit

		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}

			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}

			if isExit(q) {
				m.quit = true

				return m, tea.Quit
			}

			m.input.SetValue("")
			m.pending = q
			m.busy = true

			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		}

	case answerMsg:
		m.history = append(m.history, exchange{question: m.pending, answer: query.Answer(msg)})
		m.pending = ""
		m.busy = false

		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m *model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg(m.asker.Answer(m.ctx, q))
	}
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("moviekg") + " " + m.styles.Dim.Render(PromptText) + "\n\n")

	for _, ex := range m.history {
		b.WriteString(m.styles.RenderQuestion(ex.question) + "\n")
		b.WriteString("  " + m.styles.RenderAnswer(ex.answer) + "\n")
	}

	if m.quit {
		return b.String()
	}

	if m.busy {
		b.WriteString(m.styles.RenderQuestion(m.pending) + "\n")
		b.WriteString("  " + m.spinner.View() + " " + m.styles.Dim.Render("查询中...") + "\n")
	} else {
		b.WriteString(m.input.View() + "\n")
	}

	b.WriteString("\n" + m.styles.Dim.Render("enter 提问 · esc 退出") + "\n")

	return b.String()
}
