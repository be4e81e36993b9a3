package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"pronounce/internal/audio"
	"pronounce/internal/client"
	"pronounce/internal/config"
	"pronounce/internal/curriculum"
	"pronounce/internal/models"
	"pronounce/internal/practice"
)

// --- STYLING (using Lipgloss) ---

var (
	styleHeader    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleSubtle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarning   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleGood      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleOK        = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleBad       = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleSentence  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder())
	styleIPA       = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleHighlight = lipgloss.NewStyle().Background(lipgloss.Color("22")).Foreground(lipgloss.Color("0"))
	styleCursor    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleCategory  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	styleRecording = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Blink(true)
	styleDotDone   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDotTodo   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// --- LANDING TABS ---

type landingTab int

const (
	tabCourses landingTab = iota
	tabCustom
)

// lessonEntry flattens the catalog for cursor navigation
type lessonEntry struct {
	category models.Category
	lesson   models.Lesson
	first    bool // first lesson of its category, render the header above it
}

func flattenCatalog() []lessonEntry {
	var entries []lessonEntry
	for _, cat := range curriculum.Categories() {
		for i, lesson := range cat.Lessons {
			entries = append(entries, lessonEntry{category: cat, lesson: lesson, first: i == 0})
		}
	}
	return entries
}

// --- MESSAGES ---

type sessionStartedMsg struct{ err error }
type analysisDoneMsg struct{ err error }
type referenceDoneMsg struct{ err error }
type replayDoneMsg struct{ err error }
type recordStartedMsg struct{ err error }

// --- MODEL ---

type model struct {
	ctrl     *practice.Controller
	recorder audio.Recorder
	player   audio.Player
	replayer audio.Replayer

	tab        landingTab
	entries    []lessonEntry
	cursor     int
	topicInput textinput.Model
	difficulty models.Difficulty
	spinner    spinner.Model

	// audioErr surfaces playback/capture problems without touching the
	// session state
	audioErr string
}

func newModel(ctrl *practice.Controller, recorder audio.Recorder, player audio.Player, replayer audio.Replayer) model {
	ti := textinput.New()
	ti.Placeholder = "e.g. Ordering coffee at a cafe"
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleCursor

	return model{
		ctrl:       ctrl,
		recorder:   recorder,
		player:     player,
		replayer:   replayer,
		entries:    flattenCatalog(),
		topicInput: ti,
		difficulty: models.Intermediate,
		spinner:    sp,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

// --- COMMANDS ---

func startTopicCmd(ctrl *practice.Controller, topic string, difficulty models.Difficulty) tea.Cmd {
	return func() tea.Msg {
		return sessionStartedMsg{err: ctrl.StartTopic(context.Background(), topic, difficulty)}
	}
}

func startLessonCmd(ctrl *practice.Controller, lessonID string) tea.Cmd {
	return func() tea.Msg {
		return sessionStartedMsg{err: ctrl.StartLesson(context.Background(), lessonID)}
	}
}

func startNextLessonCmd(ctrl *practice.Controller) tea.Cmd {
	return func() tea.Msg {
		return sessionStartedMsg{err: ctrl.StartNextLesson(context.Background())}
	}
}

func startRecordingCmd(recorder audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		return recordStartedMsg{err: recorder.Start(context.Background())}
	}
}

func submitRecordingCmd(ctrl *practice.Controller, recorder audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		data, err := recorder.Stop()
		if err != nil {
			ctrl.CancelRecording()
			return analysisDoneMsg{err: err}
		}
		return analysisDoneMsg{err: ctrl.SubmitRecording(context.Background(), data)}
	}
}

func playReferenceCmd(ctrl *practice.Controller, player audio.Player, text string) tea.Cmd {
	return func() tea.Msg {
		err := player.PlayReference(context.Background(), text)
		ctrl.FinishReferencePlayback()
		return referenceDoneMsg{err: err}
	}
}

func replayCmd(ctrl *practice.Controller, replayer audio.Replayer, recording []byte) tea.Cmd {
	return func() tea.Msg {
		err := replayer.Replay(context.Background(), recording)
		ctrl.FinishReplay()
		return replayDoneMsg{err: err}
	}
}

// --- UPDATE ---

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionStartedMsg, analysisDoneMsg:
		// The controller already holds the resulting state; the message
		// only triggers a redraw
		return m, nil

	case recordStartedMsg:
		if msg.err != nil {
			m.ctrl.CancelRecording()
			m.audioErr = msg.err.Error()
		}
		return m, nil

	case referenceDoneMsg:
		if msg.err != nil {
			m.audioErr = msg.err.Error()
		}
		return m, nil

	case replayDoneMsg:
		if msg.err != nil {
			m.audioErr = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.ctrl.Snapshot().Phase {
		case practice.PhaseIdle:
			return m.updateLanding(msg)
		case practice.PhasePracticing:
			return m.updatePracticing(msg)
		case practice.PhaseSessionComplete:
			return m.updateComplete(msg)
		default:
			// Generating and Analyzing only accept quitting
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}
	}
	return m, nil
}

func (m model) updateLanding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyTab, tea.KeyShiftTab:
		if m.tab == tabCourses {
			m.tab = tabCustom
			m.topicInput.Focus()
		} else {
			m.tab = tabCourses
			m.topicInput.Blur()
		}
		return m, nil
	}

	if m.tab == tabCourses {
		switch msg.Type {
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown:
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
			return m, nil
		case tea.KeyEnter:
			m.audioErr = ""
			return m, startLessonCmd(m.ctrl, m.entries[m.cursor].lesson.ID)
		}
		return m, nil
	}

	// Custom topic tab
	switch msg.Type {
	case tea.KeyLeft, tea.KeyRight:
		m.difficulty = cycleDifficulty(m.difficulty, msg.Type == tea.KeyRight)
		return m, nil
	case tea.KeyEnter:
		topic := strings.TrimSpace(m.topicInput.Value())
		if topic == "" {
			return m, nil
		}
		m.audioErr = ""
		return m, startTopicCmd(m.ctrl, topic, m.difficulty)
	}

	var cmd tea.Cmd
	m.topicInput, cmd = m.topicInput.Update(msg)
	return m, cmd
}

func cycleDifficulty(d models.Difficulty, forward bool) models.Difficulty {
	order := []models.Difficulty{models.Beginner, models.Intermediate, models.Advanced}
	for i, v := range order {
		if v == d {
			if forward {
				return order[(i+1)%len(order)]
			}
			return order[(i+len(order)-1)%len(order)]
		}
	}
	return models.Intermediate
}

func (m model) updatePracticing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.ctrl.Snapshot()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc", "q":
		if st.AudioState == practice.AudioRecording {
			// Drop the capture before leaving
			m.recorder.Stop()
			m.ctrl.CancelRecording()
		}
		m.ctrl.Finish()
		return m, nil

	case "p":
		if err := m.ctrl.StartReferencePlayback(); err != nil {
			m.audioErr = err.Error()
			return m, nil
		}
		m.audioErr = ""
		return m, playReferenceCmd(m.ctrl, m.player, st.Session.Sentences[st.Index].Text)

	case "r", " ":
		if st.AudioState == practice.AudioRecording {
			return m, submitRecordingCmd(m.ctrl, m.recorder)
		}
		if err := m.ctrl.StartRecording(); err != nil {
			m.audioErr = err.Error()
			return m, nil
		}
		m.audioErr = ""
		return m, startRecordingCmd(m.recorder)

	case "l":
		recording, err := m.ctrl.StartReplay()
		if err != nil {
			m.audioErr = err.Error()
			return m, nil
		}
		m.audioErr = ""
		return m, replayCmd(m.ctrl, m.replayer, recording)

	case "n", "enter":
		if st.AudioState == practice.AudioRecording {
			return m, nil
		}
		m.ctrl.Next()
		return m, nil

	case "t":
		m.ctrl.Retry()
		return m, nil
	}
	return m, nil
}

func (m model) updateComplete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "n":
		if _, ok := m.ctrl.NextLessonAvailable(); ok {
			return m, startNextLessonCmd(m.ctrl)
		}
		m.ctrl.Finish()
		return m, nil
	case "enter", "esc", "q":
		m.ctrl.Finish()
		return m, nil
	}
	return m, nil
}

// --- VIEW ---

func (m model) View() string {
	st := m.ctrl.Snapshot()
	switch st.Phase {
	case practice.PhaseIdle:
		return m.viewLanding(st)
	case practice.PhaseGeneratingSession:
		return m.viewGenerating()
	case practice.PhasePracticing:
		return m.viewPracticing(st)
	case practice.PhaseAnalyzing:
		return m.viewAnalyzing(st)
	case practice.PhaseSessionComplete:
		return m.viewComplete(st)
	}
	return "Unknown state."
}

func (m model) viewLanding(st practice.State) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Pronounce: English Pronunciation Practice"))
	b.WriteString("\n\n")

	if st.Offline {
		b.WriteString(styleWarning.Render("⚠ Backend is not reachable. Is the server running?"))
		b.WriteString("\n\n")
	}
	if st.ErrMsg != "" {
		b.WriteString(styleError.Render("Error: " + st.ErrMsg))
		b.WriteString("\n\n")
	}

	courses := " Courses "
	custom := " Custom topic "
	if m.tab == tabCourses {
		courses = styleHighlight.Render(courses)
	} else {
		custom = styleHighlight.Render(custom)
	}
	b.WriteString(courses + " " + custom + "\n\n")

	if m.tab == tabCourses {
		for i, entry := range m.entries {
			if entry.first {
				b.WriteString(styleCategory.Render(fmt.Sprintf("%s %s", entry.category.Icon, entry.category.Title)))
				b.WriteString("\n")
			}
			cursor := "  "
			if m.cursor == i {
				cursor = styleCursor.Render("> ")
			}
			line := fmt.Sprintf("%s%s %s", cursor, entry.lesson.Title, styleSubtle.Render(entry.lesson.Description))
			if m.cursor == i {
				line = styleHighlight.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(styleSubtle.Render("\n↑/↓: Navigate | enter: Start lesson | tab: Custom topic | esc: Quit"))
	} else {
		b.WriteString("What do you want to practice?\n")
		b.WriteString(m.topicInput.View())
		b.WriteString("\n\nLevel: ")
		for _, d := range []models.Difficulty{models.Beginner, models.Intermediate, models.Advanced} {
			label := " " + string(d) + " "
			if d == m.difficulty {
				label = styleHighlight.Render(label)
			}
			b.WriteString(label)
		}
		b.WriteString(styleSubtle.Render("\n\n←/→: Level | enter: Start | tab: Courses | esc: Quit"))
	}
	return b.String()
}

func (m model) viewGenerating() string {
	return fmt.Sprintf("\n %s Generating your practice session...\n\n%s",
		m.spinner.View(), styleSubtle.Render(" This usually takes a few seconds."))
}

func (m model) viewPracticing(st practice.State) string {
	var b strings.Builder
	sentence := st.Session.Sentences[st.Index]

	b.WriteString(styleHeader.Render(st.Session.Topic))
	b.WriteString(" " + styleSubtle.Render(fmt.Sprintf("[%s]", st.Session.Difficulty)))
	b.WriteString("\n")
	if st.Session.Scenario != "" {
		b.WriteString(styleSubtle.Render(st.Session.Scenario))
		b.WriteString("\n")
	}
	b.WriteString(renderProgress(st.Index, len(st.Session.Sentences)))
	b.WriteString("\n\n")

	b.WriteString(styleSentence.Render(sentence.Text))
	b.WriteString("\n")
	b.WriteString(styleIPA.Render(sentence.IPA))
	b.WriteString("\n")
	b.WriteString(sentence.Translation)
	b.WriteString("\n")
	if sentence.Note != "" {
		b.WriteString(styleSubtle.Render("Note: " + sentence.Note))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch st.AudioState {
	case practice.AudioRecording:
		b.WriteString(styleRecording.Render("● Recording... press r to stop"))
		b.WriteString("\n")
	case practice.AudioPlayingReference:
		b.WriteString(styleCursor.Render("♪ Playing reference audio..."))
		b.WriteString("\n")
	}
	if st.Replaying {
		b.WriteString(styleCursor.Render("♪ Playing your recording..."))
		b.WriteString("\n")
	}

	if st.Feedback != nil {
		b.WriteString(renderFeedback(st.Feedback))
	}

	if st.ErrMsg != "" {
		b.WriteString(styleError.Render("Error: " + st.ErrMsg))
		b.WriteString("\n")
	}
	if m.audioErr != "" {
		b.WriteString(styleWarning.Render("Audio: " + m.audioErr))
		b.WriteString("\n")
	}

	help := "p: Listen | r: Record | n: Next | esc: End session"
	if st.Feedback != nil {
		help = "p: Listen | r: Record again | l: Replay yours | t: Retry | n: Next | esc: End"
	}
	b.WriteString(styleSubtle.Render("\n" + help))
	return b.String()
}

func renderProgress(index, total int) string {
	var b strings.Builder
	for i := 0; i < total; i++ {
		if i < index {
			b.WriteString(styleDotDone.Render("●"))
		} else if i == index {
			b.WriteString(styleCursor.Render("●"))
		} else {
			b.WriteString(styleDotTodo.Render("○"))
		}
		b.WriteString(" ")
	}
	b.WriteString(styleSubtle.Render(fmt.Sprintf(" %d/%d", index+1, total)))
	return b.String()
}

func renderFeedback(fb *models.PronunciationFeedback) string {
	var b strings.Builder

	scoreStyle := styleBad
	if fb.Score >= 80 {
		scoreStyle = styleGood
	} else if fb.Score >= 60 {
		scoreStyle = styleOK
	}
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Score: %.0f/100", fb.Score)))
	b.WriteString("\n")
	if fb.Transcription != "" {
		b.WriteString(fmt.Sprintf("Heard: %q\n", fb.Transcription))
	}
	b.WriteString("  Accuracy: " + fb.FeedbackDetails.Accuracy + "\n")
	b.WriteString("  Prosody:  " + fb.FeedbackDetails.Prosody + "\n")
	b.WriteString("  Linking:  " + fb.FeedbackDetails.Linking + "\n")
	if len(fb.Mistakes) > 0 {
		b.WriteString("Words to work on:\n")
		for _, mistake := range fb.Mistakes {
			b.WriteString(fmt.Sprintf("  %s → %s\n", styleBad.Render(mistake.Word), styleIPA.Render(mistake.Suggestion)))
		}
	}
	return b.String()
}

func (m model) viewAnalyzing(st practice.State) string {
	return fmt.Sprintf("\n %s Analyzing your pronunciation...\n\n %s\n",
		m.spinner.View(), st.Tip)
}

func (m model) viewComplete(st practice.State) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("🎉 Session complete!"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("You practiced %d sentences about %q.\n\n",
		len(st.Session.Sentences), st.Session.Topic))

	if next, ok := m.ctrl.NextLessonAvailable(); ok {
		b.WriteString("Next up: " + next.Title + "\n")
		b.WriteString(styleSubtle.Render("\nn: Next lesson | enter: Back to menu"))
	} else {
		b.WriteString(styleSubtle.Render("enter: Back to menu"))
	}
	return b.String()
}

// --- MAIN FUNCTION ---

func main() {
	godotenv.Load()
	cfg := config.Load()

	api := client.NewClient(cfg.BackendURL)
	ctrl := practice.NewController(api)

	player, err := audio.NewReferencePlayer()
	if err != nil {
		log.Fatalf("Audio playback unavailable: %v", err)
	}
	recorder, err := audio.NewMicRecorder()
	if err != nil {
		log.Fatalf("Audio capture unavailable: %v", err)
	}
	replayer, err := audio.NewBufferReplayer()
	if err != nil {
		log.Fatalf("Audio playback unavailable: %v", err)
	}

	p := tea.NewProgram(newModel(ctrl, recorder, player, replayer))
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
