// Package tui provides a terminal user interface for proma
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"proma/config/models"
)

// Store is the part of the channel store the browser uses
type Store interface {
	List() []models.Channel
	Create(input models.ChannelCreateInput) (*models.Channel, error)
	Update(id string, input models.ChannelUpdateInput) (*models.Channel, error)
	Delete(id string) error
	DecryptAPIKey(id string) (string, error)
	Test(ctx context.Context, id string) (models.TestResult, error)
	FetchChannelModels(ctx context.Context, id string) (models.FetchModelsResult, error)
	MergeFetchedModels(id string, fetched []models.Model) (int, error)
	Path() string
}

// ViewState represents the current view state
type ViewState int

const (
	ViewMain   ViewState = iota // Channel list with detail pane
	ViewAdd                     // Add channel form
	ViewEdit                    // Edit channel form
	ViewDelete                  // Delete confirmation dialog
	ViewHelp                    // Help panel
)

// Model is the core state model for TUI
type Model struct {
	store   Store
	ctx     context.Context
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	changes <-chan struct{}

	channels     []models.Channel
	cursor       int
	scrollOffset int
	viewState    ViewState

	// Form related
	formInputs []textinput.Model
	formFocus  int
	formErr    string
	editingID  string

	// Per channel state, keyed by id
	results  map[string]models.TestResult
	revealed map[string]string
	busy     map[string]string

	message  string
	errorMsg string

	width  int
	height int
}

// Option configures a Model
type Option func(*Model)

// WithChanges reloads the list whenever a value arrives on changes
func WithChanges(changes <-chan struct{}) Option {
	return func(m *Model) {
		m.changes = changes
	}
}

// WithContext sets the context used for probes
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// NewModel creates a new TUI model
func NewModel(store Store, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := Model{
		store:     store,
		ctx:       context.Background(),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   s,
		channels:  []models.Channel{},
		viewState: ViewMain,
		results:   make(map[string]models.TestResult),
		revealed:  make(map[string]string),
		busy:      make(map[string]string),
		width:     100,
		height:    24,
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Init initializes the model and returns initial commands
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadChannels(m.store), waitForChange(m.changes))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.adjustScrollOffset()
		return m, nil

	case ChannelsLoadedMsg:
		m.setChannels(msg.Channels)
		return m, nil

	case FileChangedMsg:
		return m, tea.Batch(loadChannels(m.store), waitForChange(m.changes))

	case ChannelSavedMsg:
		if msg.Err != nil {
			if m.viewState == ViewAdd || m.viewState == ViewEdit {
				m.formErr = msg.Err.Error()
			} else {
				m.errorMsg = msg.Err.Error()
			}
			return m, nil
		}
		if msg.Created {
			m.message = "Channel added: " + msg.Channel.Name
		} else {
			m.message = "Channel updated: " + msg.Channel.Name
		}
		delete(m.results, msg.Channel.ID)
		m.closeForm()
		return m, loadChannels(m.store)

	case ChannelDeletedMsg:
		m.viewState = ViewMain
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
			return m, nil
		}
		m.message = "Channel deleted: " + msg.Name
		delete(m.results, msg.ID)
		delete(m.revealed, msg.ID)
		return m, loadChannels(m.store)

	case TestResultMsg:
		delete(m.busy, msg.ID)
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
			return m, nil
		}
		m.results[msg.ID] = msg.Result
		return m, nil

	case KeyRevealedMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
			return m, nil
		}
		m.revealed[msg.ID] = msg.Key
		return m, nil

	case ModelsMergedMsg:
		delete(m.busy, msg.ID)
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
			return m, nil
		}
		m.message = fmt.Sprintf("%s, %d new (added disabled)", msg.Message, msg.Added)
		return m, loadChannels(m.store)

	case spinner.TickMsg:
		if len(m.busy) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// setChannels replaces the list and keeps the cursor on a valid row
func (m *Model) setChannels(channels []models.Channel) {
	m.channels = channels

	present := make(map[string]bool, len(channels))
	for _, ch := range channels {
		present[ch.ID] = true
	}
	for id := range m.revealed {
		if !present[id] {
			delete(m.revealed, id)
		}
	}
	for id := range m.results {
		if !present[id] {
			delete(m.results, id)
		}
	}

	if m.cursor >= len(m.channels) {
		m.cursor = len(m.channels) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScrollOffset()
}

// Selected returns the channel under the cursor
func (m Model) Selected() (models.Channel, bool) {
	if m.cursor < 0 || m.cursor >= len(m.channels) {
		return models.Channel{}, false
	}
	return m.channels[m.cursor], true
}

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewState {
	case ViewMain:
		return m.handleMainViewKeys(msg)
	case ViewAdd, ViewEdit:
		return m.handleFormViewKeys(msg)
	case ViewDelete:
		return m.handleDeleteViewKeys(msg)
	case ViewHelp:
		return m.handleHelpViewKeys(msg)
	default:
		return m, nil
	}
}

// handleMainViewKeys handles keyboard input in main view
func (m Model) handleMainViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveUp()
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveDown()
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.adjustScrollOffset()
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		if len(m.channels) > 0 {
			m.cursor = len(m.channels) - 1
		}
		m.adjustScrollOffset()
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.initAddForm()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Help):
		m.viewState = ViewHelp
		return m, nil
	}

	ch, ok := m.Selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Test):
		if _, running := m.busy[ch.ID]; running {
			return m, nil
		}
		m.clearMessages()
		delete(m.results, ch.ID)
		return m, m.startBusy(ch.ID, "testing", testChannel(m.ctx, m.store, ch.ID))

	case key.Matches(msg, m.keys.Fetch):
		if _, running := m.busy[ch.ID]; running {
			return m, nil
		}
		m.clearMessages()
		return m, m.startBusy(ch.ID, "fetching models", fetchModels(m.ctx, m.store, ch.ID))

	case key.Matches(msg, m.keys.Reveal):
		if _, shown := m.revealed[ch.ID]; shown {
			delete(m.revealed, ch.ID)
			return m, nil
		}
		return m, revealKey(m.store, ch.ID)

	case key.Matches(msg, m.keys.Toggle):
		m.clearMessages()
		enabled := !ch.Enabled
		return m, updateChannel(m.store, ch.ID, models.ChannelUpdateInput{Enabled: &enabled})

	case key.Matches(msg, m.keys.Edit):
		m.initEditForm(ch)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		m.clearMessages()
		m.viewState = ViewDelete
		return m, nil
	}

	return m, nil
}

// startBusy marks id as running label and starts the spinner if it was idle
func (m *Model) startBusy(id, label string, cmd tea.Cmd) tea.Cmd {
	idle := len(m.busy) == 0
	m.busy[id] = label
	if idle {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

// handleFormViewKeys handles keyboard input in the add and edit forms
func (m Model) handleFormViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.formFocus = NextFormField(m.formInputs, m.formFocus)
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.formFocus = PrevFormField(m.formInputs, m.formFocus)
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	data := GetFormData(m.formInputs)
	editing := m.viewState == ViewEdit

	if err := data.Validate(editing); err != nil {
		m.formErr = err.Error()
		return m, nil
	}
	m.formErr = ""

	if !editing {
		return m, createChannel(m.store, data.CreateInput())
	}

	for _, ch := range m.channels {
		if ch.ID == m.editingID {
			return m, updateChannel(m.store, ch.ID, data.UpdateInput(ch))
		}
	}

	m.formErr = "channel no longer exists"
	return m, nil
}

// handleDeleteViewKeys handles the delete confirmation
func (m Model) handleDeleteViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		ch, ok := m.Selected()
		if !ok {
			m.viewState = ViewMain
			return m, nil
		}
		return m, deleteChannel(m.store, ch.ID, ch.Name)
	case "n", "N", "esc", "q":
		m.viewState = ViewMain
		m.message = "Delete cancelled"
		return m, nil
	}
	return m, nil
}

// handleHelpViewKeys closes the help panel
func (m Model) handleHelpViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel, m.keys.Help, m.keys.Quit) {
		m.viewState = ViewMain
	}
	return m, nil
}

func (m *Model) initAddForm() {
	m.formInputs = FormInputs()
	m.formFocus = FormFieldName
	m.formErr = ""
	m.editingID = ""
	m.viewState = ViewAdd
	m.clearMessages()
}

func (m *Model) initEditForm(ch models.Channel) {
	m.formInputs = FormInputs()
	SetFormData(m.formInputs, ChannelFormData(ch))
	m.formFocus = FormFieldName
	m.formErr = ""
	m.editingID = ch.ID
	m.viewState = ViewEdit
	m.clearMessages()
}

func (m *Model) closeForm() {
	m.formInputs = nil
	m.formFocus = 0
	m.formErr = ""
	m.editingID = ""
	m.viewState = ViewMain
}

func (m *Model) clearMessages() {
	m.message = ""
	m.errorMsg = ""
}

func (m *Model) moveUp() {
	if m.cursor > 0 {
		m.cursor--
		m.adjustScrollOffset()
	}
}

func (m *Model) moveDown() {
	if m.cursor < len(m.channels)-1 {
		m.cursor++
		m.adjustScrollOffset()
	}
}

// visibleListHeight is the number of list rows that fit the window
func (m Model) visibleListHeight() int {
	h := m.height - 8
	if h < 3 {
		return 3
	}
	return h
}

// adjustScrollOffset keeps the cursor inside the visible window
func (m *Model) adjustScrollOffset() {
	visible := m.visibleListHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
	maxOffset := len(m.channels) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// Commands

func loadChannels(store Store) tea.Cmd {
	return func() tea.Msg {
		return ChannelsLoadedMsg{Channels: store.List()}
	}
}

func createChannel(store Store, input models.ChannelCreateInput) tea.Cmd {
	return func() tea.Msg {
		ch, err := store.Create(input)
		return ChannelSavedMsg{Channel: ch, Created: true, Err: err}
	}
}

func updateChannel(store Store, id string, input models.ChannelUpdateInput) tea.Cmd {
	return func() tea.Msg {
		ch, err := store.Update(id, input)
		return ChannelSavedMsg{Channel: ch, Err: err}
	}
}

func deleteChannel(store Store, id, name string) tea.Cmd {
	return func() tea.Msg {
		return ChannelDeletedMsg{ID: id, Name: name, Err: store.Delete(id)}
	}
}

func testChannel(ctx context.Context, store Store, id string) tea.Cmd {
	return func() tea.Msg {
		result, err := store.Test(ctx, id)
		return TestResultMsg{ID: id, Result: result, Err: err}
	}
}

func revealKey(store Store, id string) tea.Cmd {
	return func() tea.Msg {
		key, err := store.DecryptAPIKey(id)
		return KeyRevealedMsg{ID: id, Key: key, Err: err}
	}
}

func fetchModels(ctx context.Context, store Store, id string) tea.Cmd {
	return func() tea.Msg {
		result, err := store.FetchChannelModels(ctx, id)
		if err != nil {
			return ModelsMergedMsg{ID: id, Err: err}
		}
		if !result.Success {
			return ModelsMergedMsg{ID: id, Err: fmt.Errorf("could not fetch models: %s", result.Message)}
		}

		added, err := store.MergeFetchedModels(id, result.Models)
		return ModelsMergedMsg{ID: id, Added: added, Message: result.Message, Err: err}
	}
}
