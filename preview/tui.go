package preview

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	chainsight "github.com/hari6963/chainsight"
	"github.com/hari6963/chainsight/analysis"
)

// Analyzer provides type-checked files for the previewed path.
type Analyzer interface {
	Analyze(ctx context.Context, path string, src []byte) (*analysis.AnalyzedFile, error)
}

// Model is the bubbletea model for the preview UI. All store access happens
// inside Update, so reconciliation keeps its single-writer contract.
type Model struct {
	path     string
	logger   *zap.Logger
	analyzer Analyzer
	watcher  *Watcher
	store    *RenderStore
	rec      chainsight.Reconciler
	styles   *Styles
	spinner  spinner.Model

	enabled bool
	rule    *chainsight.Rule

	content   string
	stats     chainsight.ReconcileStats
	passes    int
	analyzing bool
	err       error

	width  int
	height int
}

// Messages.
type (
	fileChangedMsg struct{}
	watcherDoneMsg struct{}
	passMsg        struct {
		content string
		batch   chainsight.HintBatch
		err     error
	}
)

// NewModel builds the preview model for one file.
func NewModel(path string, analyzer Analyzer, watcher *Watcher, cfg *chainsight.Config, logger *zap.Logger) (*Model, error) {
	rule, err := cfg.CompiledRule()
	if err != nil {
		return nil, fmt.Errorf("compiling rule: %w", err)
	}

	store := NewRenderStore()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultStyles().Title

	return &Model{
		path:     path,
		logger:   logger,
		analyzer: analyzer,
		watcher:  watcher,
		store:    store,
		rec: chainsight.Reconciler{
			Store:         store,
			Tag:           chainsight.TagMethodChainHints,
			BulkThreshold: cfg.EffectiveBulkThreshold(),
		},
		styles:    DefaultStyles(),
		spinner:   s,
		enabled:   cfg.HintsEnabled(),
		rule:      rule,
		analyzing: true,
		width:     80,
		height:    24,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.analyze(), m.waitForChange())
}

// analyze reads the file and computes its hint batch off the UI loop.
func (m *Model) analyze() tea.Cmd {
	path := m.path
	analyzer := m.analyzer
	enabled := m.enabled
	rule := m.rule

	return func() tea.Msg {
		src, err := os.ReadFile(path)
		if err != nil {
			return passMsg{err: err}
		}

		analyzed, err := analyzer.Analyze(context.Background(), path, src)
		if err != nil {
			return passMsg{content: string(src), err: err}
		}

		batch, err := analyzed.Hints(context.Background(), enabled, rule)
		if err != nil {
			return passMsg{content: string(src), err: err}
		}

		return passMsg{content: string(src), batch: batch}
	}
}

// waitForChange blocks on the watcher until the file changes.
func (m *Model) waitForChange() tea.Cmd {
	events := m.watcher.Events()

	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return watcherDoneMsg{}
		}

		return fileChangedMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // bubbletea.Model interface required by tea.Program
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "j", "down":
			m.store.Scroll(1, m.maxTop())
		case "k", "up":
			m.store.Scroll(-1, m.maxTop())
		case "g", "home":
			m.store.Scroll(-m.store.ScrollTop(), m.maxTop())
		case "G", "end":
			m.store.Scroll(m.maxTop(), m.maxTop())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case spinner.TickMsg:
		if m.analyzing {
			var cmd tea.Cmd

			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case fileChangedMsg:
		m.analyzing = true

		cmds = append(cmds, m.analyze(), m.waitForChange(), m.spinner.Tick)

	case watcherDoneMsg:
		return m, tea.Quit

	case passMsg:
		m.analyzing = false
		m.err = msg.err

		if msg.content != "" || msg.err == nil {
			m.content = msg.content
		}

		if msg.err == nil {
			m.stats = m.rec.Apply(msg.batch, 0, math.MaxInt)
			m.passes++
		}
	}

	return m, tea.Batch(cmds...)
}

// maxTop is the largest valid scroll offset for the current content.
func (m *Model) maxTop() int {
	lines := strings.Count(m.content, "\n") + 1

	return max(lines-m.viewportHeight(), 0)
}

// viewportHeight returns the number of lines available for file content.
func (m *Model) viewportHeight() int {
	reserved := 4 // header + blank + footer + key hint

	return max(m.height-reserved, 1)
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(filepath.Base(m.path)))

	if m.analyzing {
		b.WriteString(" " + m.spinner.View() + m.styles.Dim.Render("analyzing"))
	}

	b.WriteString("\n\n")

	hint := func(label string) string {
		return m.styles.Hint.Render(" " + label)
	}

	lines := m.store.Decorate(m.content, hint)
	top := min(m.store.ScrollTop(), max(len(lines)-1, 0))
	bottom := min(top+m.viewportHeight(), len(lines))

	for i := top; i < bottom; i++ {
		b.WriteString(m.styles.Gutter.Render(fmt.Sprintf("%4d ", i+1)))
		b.WriteString(lines[i])
		b.WriteString("\n")
	}

	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(m.styles.Err.Render("error: " + m.err.Error()))
	default:
		b.WriteString(m.styles.Dim.Render(fmt.Sprintf(
			"%d hints  +%d -%d =%d  pass %d",
			m.store.Len(), m.stats.Added, m.stats.Removed, m.stats.Kept, m.passes)))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render("  j/k scroll · q quit"))

	return b.String()
}

// Run previews path until the user quits, reconciling hints on every write
// to the file.
func Run(ctx context.Context, path string, cfg *chainsight.Config, logger *zap.Logger, w io.Writer) error {
	analyzer := analysis.NewAnalyzer(logger)
	defer analyzer.Close()

	watcher, err := NewWatcher(path, logger)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	defer watcher.Close()

	model, err := NewModel(path, analyzer, watcher, cfg, logger)
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithOutput(w),
		tea.WithoutSignalHandler(),
		tea.WithAltScreen(), // keep scrollback clean while previewing
	}

	// Only use input if we have a TTY
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		opts = append(opts, tea.WithInput(nil))
	}

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("running preview: %w", err)
	}

	return nil
}
