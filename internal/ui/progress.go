package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ReportFunc receives the number of finished items, the total and the
// item just finished.
type ReportFunc func(done, total int, item string)

// ProgressMsg reports one finished item to the progress view.
type ProgressMsg struct {
	Done  int
	Total int
	Item  string
}

type finishedMsg struct{ err error }

// ProgressModel is the bubbletea model behind RunWithProgress.
type ProgressModel struct {
	title    string
	bar      progress.Model
	spinner  spinner.Model
	done     int
	total    int
	current  string
	finished bool
	err      error
	cancel   context.CancelFunc
}

var _ tea.Model = ProgressModel{}

// NewProgressModel creates a progress view. cancel is called when the
// user presses ctrl+c; the view keeps running until the work reports back.
func NewProgressModel(title string, cancel context.CancelFunc) ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return ProgressModel{
		title:   title,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner: sp,
		cancel:  cancel,
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd { return m.spinner.Tick }

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.done, m.total, m.current = msg.Done, msg.Total, msg.Item
		return m, nil
	case finishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = min(40, max(10, msg.Width-30))
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Percent is the finished fraction, 0 before the first report.
func (m ProgressModel) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// Err returns the error the work finished with.
func (m ProgressModel) Err() error { return m.err }

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.finished {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %d/%d\n", m.spinner.View(), titleStyle.Render(m.title),
		m.bar.ViewAs(m.Percent()), m.done, m.total)
	if m.current != "" {
		b.WriteString(dimStyle.Render("  " + m.current))
		b.WriteString("\n")
	}
	return b.String()
}

// RunWithProgress runs work while showing its progress on w. On a terminal
// a bubbletea view is drawn; otherwise each report is printed as a line.
func RunWithProgress(ctx context.Context, w io.Writer, title string, work func(context.Context, ReportFunc) error) error {
	if !IsTerminal(w) {
		return work(ctx, plainReporter(w))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title, cancel), tea.WithOutput(w))
	go func() {
		err := work(ctx, func(done, total int, item string) {
			p.Send(ProgressMsg{Done: done, Total: total, Item: item})
		})
		p.Send(finishedMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running progress view: %w", err)
	}
	return final.(ProgressModel).Err()
}

func plainReporter(w io.Writer) ReportFunc {
	return func(done, total int, item string) {
		fmt.Fprintf(w, "[%d/%d] %s\n", done, total, item)
	}
}
