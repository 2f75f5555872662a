// Package tui runs the solver behind a Bubble Tea progress view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/haloplate/internal/metrics"
	"github.com/san-kum/haloplate/internal/plate"
	"github.com/san-kum/haloplate/internal/solver"
	"github.com/san-kum/haloplate/internal/viz"
)

const (
	barWidth   = 40
	plotWidth  = 50
	plotHeight = 6
	tickRate   = time.Second / 20
)

type TickMsg time.Time

// ProgressMsg reports one rank finishing one iteration.
type ProgressMsg struct {
	Rank     int
	Iter     int
	Residual float64
}

// DoneMsg carries the outcome of the run.
type DoneMsg struct {
	Result *solver.Result
	Err    error
}

// Model shows iteration progress, the residual history and, once finished,
// the heat map of the gathered plate.
type Model struct {
	cfg       plate.Config
	ranks     int
	opts      solver.Options
	ctx       context.Context
	cancel    context.CancelFunc
	updates   chan ProgressMsg
	residuals []float64
	completed []int
	iter      int
	frame     int
	theme     int
	start     time.Time
	elapsed   time.Duration
	result    *solver.Result
	err       error
	done      bool
}

func NewModel(ctx context.Context, cfg plate.Config, ranks int, opts solver.Options) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		cfg:       cfg,
		ranks:     ranks,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		updates:   make(chan ProgressMsg, 256),
		residuals: make([]float64, cfg.Iterations),
		completed: make([]int, cfg.Iterations),
		iter:      -1,
		start:     time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.run(), m.wait(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// run executes the solver; progress is forwarded without blocking the ranks.
func (m Model) run() tea.Cmd {
	return func() tea.Msg {
		opts := m.opts
		opts.Observers = append(append([]solver.Observer{}, opts.Observers...),
			solver.ObserverFunc(func(rank, iter int, residual float64) {
				select {
				case m.updates <- ProgressMsg{Rank: rank, Iter: iter, Residual: residual}:
				default:
				}
			}))
		res, err := solver.Run(m.ctx, m.cfg, m.ranks, opts)
		close(m.updates)
		return DoneMsg{Result: res, Err: err}
	}
}

func (m Model) wait() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.updates
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		case "t":
			m.theme = (m.theme + 1) % len(viz.Themes)
		}
	case ProgressMsg:
		if msg.Iter >= 0 && msg.Iter < len(m.residuals) {
			m.residuals[msg.Iter] = max(m.residuals[msg.Iter], msg.Residual)
			m.completed[msg.Iter]++
			for m.iter+1 < len(m.completed) && m.completed[m.iter+1] >= m.ranks {
				m.iter++
			}
		}
		return m, m.wait()
	case DoneMsg:
		m.done = true
		m.elapsed = time.Since(m.start)
		m.result, m.err = msg.Result, msg.Err
		if msg.Result != nil {
			m.residuals = msg.Result.Residuals
			m.iter = len(m.residuals) - 1
		}
	case TickMsg:
		m.frame++
		if m.done {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

// Result returns the finished run, or nil while running or after a failure.
func (m Model) Result() *solver.Result { return m.result }

func (m Model) Err() error { return m.err }

func (m Model) View() string {
	var s strings.Builder
	theme := viz.Themes[m.theme]

	s.WriteString(viz.HeaderStyle.Render(fmt.Sprintf("HEATED PLATE %dx%d on %d ranks", m.cfg.Rows, m.cfg.Cols, m.ranks)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(viz.StatusFailed.Render("FAILED") + " " + m.err.Error() + "\n")
	case m.done:
		s.WriteString(viz.StatusDone.Render("DONE") + fmt.Sprintf(" in %s\n", m.elapsed.Round(time.Millisecond)))
	default:
		s.WriteString(viz.StatusRunning.Render(viz.Spinner(m.frame)+" RUNNING") + "\n")
	}
	s.WriteString("\n")

	done := m.iter + 1
	pct := 1.0
	if m.cfg.Iterations > 0 {
		pct = float64(done) / float64(m.cfg.Iterations)
	}
	var panel strings.Builder
	panel.WriteString(viz.Title.Render("Convergence") + "\n")
	panel.WriteString(viz.MetricLabel.Render("Iteration") + viz.MetricValue.Render(fmt.Sprintf("%d/%d", done, m.cfg.Iterations)) + "\n")
	panel.WriteString(viz.ProgressBar(pct, barWidth))
	if done > 0 {
		panel.WriteString("\n" + viz.MetricLabel.Render("Residual") + viz.MetricValue.Render(fmt.Sprintf("%.6f", m.residuals[done-1])) + "\n")
		panel.WriteString(viz.Sparkline(m.residuals[:done], barWidth))
	}
	s.WriteString(viz.GlassPanel.Render(panel.String()) + "\n")

	if m.result != nil && m.result.Grid != nil {
		if plot := viz.ResidualPlot(m.residuals, plotWidth, plotHeight); plot != "" {
			s.WriteString("\n" + plot + "\n")
		}
		lo, hi := viz.Range(m.result.Grid)
		s.WriteString("\n" + viz.Heatmap(m.result.Grid, lo, hi, theme))
		s.WriteString(viz.Legend(lo, hi, barWidth, theme) + "\n")
		sum := metrics.Summarize(m.result.Grid)
		s.WriteString(viz.MetricLabel.Render("Mean") + viz.MetricValue.Render(fmt.Sprintf("%.3f", sum["mean"])) + "\n")
	}

	s.WriteString("\n" + viz.KeyHint.Render("t theme · q quit") + "\n")
	return s.String()
}
