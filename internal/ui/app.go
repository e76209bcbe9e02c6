package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/gallery-feed/pkg/gallery"
	"github.com/Sternrassler/gallery-feed/pkg/pagination"
)

// Options configures the UI.
type Options struct {
	Context context.Context
	Feed    *gallery.Feed
}

// feedStateMsg carries a feed state change from the feed subscription.
type feedStateMsg pagination.State[gallery.Image]

// loadDoneMsg reports the end of a page load started by the UI.
type loadDoneMsg struct {
	next bool
	err  error
}

// submitDoneMsg reports the end of an upload.
type submitDoneMsg struct {
	image gallery.Image
	err   error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx  context.Context
	feed *gallery.Feed

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	theme   theme

	width  int
	height int

	state    pagination.State[gallery.Image]
	items    []gallery.Image
	selected int

	uploading bool
	form      uploadForm
	notice    string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		feed:    opts.Feed,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		theme:   defaultTheme(),
		form:    newUploadForm(),
	}
}

// Run starts the UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Feed == nil {
		return errors.New("feed is required")
	}
	opts.Context = ctx

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := opts.Feed.Subscribe(func(s pagination.State[gallery.Image]) {
		p.Send(feedStateMsg(s))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadFirst())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.uploading {
			return m.handleFormKey(msg)
		}
		return m.handleBrowseKey(msg)

	case feedStateMsg:
		m.applyState(pagination.State[gallery.Image](msg))
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			m.notice = "Load failed: " + msg.err.Error()
		}
		m.applyState(m.feed.State())
		return m, nil

	case submitDoneMsg:
		m.form.submitting = false
		if msg.err != nil {
			m.form.setErrors(msg.err)
			m.notice = "Upload failed"
			return m, nil
		}
		m.uploading = false
		m.form = newUploadForm()
		m.notice = "Image added: " + msg.image.Title
		return m, m.loadFirst()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.uploading {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.items)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.LoadMore):
		if has, _ := m.state.HasNextPage(); !has || m.state.IsFetchingNext {
			return m, nil
		}
		m.notice = ""
		return m, m.loadNext()

	case key.Matches(msg, m.keys.Refresh):
		m.notice = ""
		return m, m.refresh()

	case key.Matches(msg, m.keys.Upload):
		m.uploading = true
		m.notice = ""
		return m, nil
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.submitting {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.uploading = false
		m.form = newUploadForm()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.form.move(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.form.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		payload := m.form.payload()
		if err := payload.Validate(); err != nil {
			m.form.setErrors(err)
			return m, nil
		}
		m.form.setErrors(nil)
		m.form.submitting = true
		return m, m.submit(payload)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m *Model) applyState(s pagination.State[gallery.Image]) {
	m.state = s
	if m.feed != nil {
		m.items = m.feed.Items()
	}
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) loadFirst() tea.Cmd {
	feed, ctx := m.feed, m.ctx
	return func() tea.Msg {
		return loadDoneMsg{err: feed.LoadFirst(ctx)}
	}
}

func (m Model) loadNext() tea.Cmd {
	feed, ctx := m.feed, m.ctx
	return func() tea.Msg {
		return loadDoneMsg{next: true, err: feed.LoadNext(ctx)}
	}
}

func (m Model) refresh() tea.Cmd {
	feed, ctx := m.feed, m.ctx
	return func() tea.Msg {
		return loadDoneMsg{err: feed.Refresh(ctx)}
	}
}

func (m Model) submit(payload gallery.NewImage) tea.Cmd {
	feed, ctx := m.feed, m.ctx
	return func() tea.Msg {
		img, err := feed.Submit(ctx, payload)
		return submitDoneMsg{image: img, err: err}
	}
}
