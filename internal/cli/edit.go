package cli

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/catalog"
	"github.com/matzehuels/memeforge/pkg/editor"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	memeio "github.com/matzehuels/memeforge/pkg/io"
	"github.com/matzehuels/memeforge/pkg/layer"
	"github.com/matzehuels/memeforge/pkg/render"
	"github.com/matzehuels/memeforge/pkg/resource"
	"github.com/matzehuels/memeforge/pkg/share"
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "edit [state.json|link|token]",
		Short: "Edit a meme in the terminal",
		Long: `Edit a meme in the terminal.

The canvas is previewed with half-block characters. Click a layer to select
it and drag to move it; the keyboard covers everything else (see the help
line at the bottom). Press w to export a PNG, ctrl+s to save the state and
l to copy the share link.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return c.runEdit(cmd.Context(), source, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not cache remote images")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, source string, noCache bool) error {
	// The alternate screen owns the terminal; replay log lines afterwards.
	var logs bytes.Buffer
	c.Logger.SetOutput(&logs)
	defer func() {
		c.Logger.SetOutput(c.logOut)
		_, _ = c.logOut.Write(logs.Bytes())
	}()

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.baseOptions()
	opts.Source = source
	st, err := runner.Prepare(opts)
	if err != nil {
		return err
	}

	comp := render.New(runner.Loader,
		render.WithTextureSeed(c.Config.TextureSeed),
		render.WithJitter(c.Config.Jitter),
		render.WithLogger(c.Logger))
	m := newEditModel(editEnv{
		loader:    runner.Loader,
		catalog:   runner.Catalog,
		comp:      comp,
		shareBase: c.Config.ShareBase,
		base:      basePath("", source, time.Now()),
	}, st)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(editModel); ok {
		for _, path := range fm.written {
			printFile(path)
		}
		if json := fm.env.base + ".json"; slices.Contains(fm.written, json) {
			printNextStep("Share it", appName+" share "+json)
		}
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

const (
	sidebarWidth = 36
	previewTop   = 2 // header and spacer rows above the preview
	footerRows   = 3

	nudgeStep   = 0.01
	scaleStep   = 0.05
	rotateStep  = 5.0
	opacityStep = 0.1
	fontStep    = 4.0
	strokeStep  = 1.0
	spacingStep = 1.0
)

const selectHint = "select a layer first (tab or click)"

var fillCycle = []canvas.Fill{canvas.FillBlank, canvas.FillClassic, canvas.FillDark}

// inputMode is the prompt the editor is collecting a line for.
type inputMode int

const (
	inputNone inputMode = iota
	inputText
	inputRename
	inputImage
	inputReplace
	inputUpload
	inputSize
)

var inputPrompts = map[inputMode]string{
	inputText:   "Caption",
	inputRename: "Name",
	inputImage:   "Image path or URL",
	inputReplace: "Replace with",
	inputUpload:  "Background file",
	inputSize:    "Size (WxH)",
}

// readyMsg carries a finished background image load.
type readyMsg resource.Ready

// editEnv is what the editor needs from the CLI.
type editEnv struct {
	loader    *resource.Loader
	catalog   catalog.Catalog
	comp      *render.Compositor
	shareBase string
	base      string // export path without extension
}

// editModel is the bubbletea model of the terminal editor.
type editModel struct {
	env     editEnv
	session *editor.Session
	surface *render.Surface

	width, height int
	view          preview
	painted       uint64 // session version shown in view
	paintedArea   [2]int

	sticker  int // next catalog sticker
	template int // current catalog template; len(Templates) is none

	mode  inputMode
	input []rune

	status    string
	statusErr bool
	written   []string
}

func newEditModel(env editEnv, st canvas.State) editModel {
	session := editor.New(editor.WithState(st), editor.WithGeometry(env.comp.Geometry()))
	template := len(env.catalog.Templates)
	for i, it := range env.catalog.Templates {
		if it.Ref == session.State().TemplateRef {
			template = i
		}
	}
	return editModel{
		env:      env,
		session:  session,
		surface:  render.NewSurface(),
		width:    80,
		height:   24,
		template: template,
	}
}

func waitReady(events <-chan resource.Ready) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return readyMsg(ev)
	}
}

func (m editModel) Init() tea.Cmd {
	return waitReady(m.env.loader.Events())
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case readyMsg:
		ev := resource.Ready(msg)
		if m.session.HandleReady(ev) && ev.Err != nil {
			m.setStatus(errs.UserMessage(ev.Err), true)
		}
		cmd = waitReady(m.env.loader.Events())
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.KeyMsg:
		if m.mode != inputNone {
			m.handleInput(msg)
		} else {
			cmd = m.handleKey(msg)
		}
	}
	m.repaint()
	return m, cmd
}

func (m *editModel) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

// report shows err in the status line. A missing selection gets a hint
// instead of the raw error.
func (m *editModel) report(err error) {
	switch {
	case err == nil:
	case m.session.SelectedID() == "":
		m.setStatus(selectHint, true)
	default:
		m.setStatus(errs.UserMessage(err), true)
	}
}

// =============================================================================
// Input
// =============================================================================

func (m *editModel) handleMouse(msg tea.MouseMsg) {
	p, inside := m.view.canvasPoint(msg.X, msg.Y-previewTop)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && inside {
			m.session.PointerDown(p)
		}
	case tea.MouseActionMotion:
		m.session.PointerMove(p)
	case tea.MouseActionRelease:
		m.session.PointerUp()
	}
}

func (m *editModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := m.session
	sel, hasSel := s.Selected()
	m.setStatus("", false)

	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "esc":
		s.Deselect()
	case "tab":
		m.cycleSelection(1)
	case "shift+tab":
		m.cycleSelection(-1)

	case "up":
		m.report(s.SetPosition(sel.X, sel.Y-nudgeStep))
	case "down":
		m.report(s.SetPosition(sel.X, sel.Y+nudgeStep))
	case "left":
		m.report(s.SetPosition(sel.X-nudgeStep, sel.Y))
	case "right":
		m.report(s.SetPosition(sel.X+nudgeStep, sel.Y))
	case "+", "=":
		m.report(s.SetScale(sel.EffectiveScale() + scaleStep))
	case "-":
		m.report(s.SetScale(sel.EffectiveScale() - scaleStep))
	case "]":
		m.report(s.SetRotation(sel.Rotation + rotateStep))
	case "[":
		m.report(s.SetRotation(sel.Rotation - rotateStep))
	case "o":
		m.report(s.SetOpacity(sel.Opacity - opacityStep))
	case "O":
		m.report(s.SetOpacity(sel.Opacity + opacityStep))
	case "v":
		if hasSel {
			s.ToggleVisible(sel.ID)
		}
	case "d", "delete", "backspace":
		if hasSel {
			s.Remove(sel.ID)
		}
	case "n":
		m.prompt(inputRename, sel.Name, hasSel)

	case "t":
		s.AddText()
	case "f":
		s.AddFace()
	case "s":
		m.addSticker()
	case "i":
		m.prompt(inputImage, "", true)
	case "I":
		img, ok := sel.ImageContent()
		m.prompt(inputReplace, img.Src, ok)
	case "c":
		s.ClearStickers()
	case "r":
		m.retryFailed()

	case "e":
		t, _ := sel.TextContent()
		m.prompt(inputText, t.Text, sel.Kind() == layer.KindText)
	case ">", ".":
		t, _ := sel.TextContent()
		m.report(s.SetFontSize(t.FontSize + fontStep))
	case "<", ",":
		t, _ := sel.TextContent()
		m.report(s.SetFontSize(t.FontSize - fontStep))
	case "k":
		t, _ := sel.TextContent()
		m.report(s.SetStrokePx(t.StrokePx + strokeStep))
	case "K":
		t, _ := sel.TextContent()
		m.report(s.SetStrokePx(t.StrokePx - strokeStep))
	case "x":
		t, _ := sel.TextContent()
		m.report(s.SetLetterSpacing(t.LetterSpacing + spacingStep))
	case "X":
		t, _ := sel.TextContent()
		m.report(s.SetLetterSpacing(t.LetterSpacing - spacingStep))
	case "a":
		t, _ := sel.TextContent()
		m.report(s.SetAllCaps(!t.AllCaps))

	case "b":
		m.cycleTemplate()
	case "u":
		m.prompt(inputUpload, "", true)
	case "U":
		s.ClearUpload()
	case "p":
		m.cyclePreset()
	case "F":
		m.cycleFill()
	case "S":
		st := s.State()
		m.prompt(inputSize, fmt.Sprintf("%dx%d", st.Size.Width, st.Size.Height), true)

	case "w":
		m.exportPNG()
	case "ctrl+s":
		m.saveJSON()
	case "l":
		m.copyLink()
	}
	return nil
}

// prompt starts collecting a line for mode, prefilled with initial. ok
// false means the mode does not apply to the current selection.
func (m *editModel) prompt(mode inputMode, initial string, ok bool) {
	if !ok {
		m.setStatus(selectHint, true)
		return
	}
	m.mode = mode
	m.input = []rune(initial)
}

func (m *editModel) handleInput(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode, m.input = inputNone, nil
	case tea.KeyEnter:
		mode, line := m.mode, string(m.input)
		m.mode, m.input = inputNone, nil
		m.commit(mode, line)
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	case tea.KeyCtrlC:
		m.mode, m.input = inputNone, nil
	}
}

func (m *editModel) commit(mode inputMode, line string) {
	s := m.session
	switch mode {
	case inputText:
		m.report(s.SetText(line))
	case inputRename:
		m.report(s.Rename(line))
	case inputImage:
		ref := strings.TrimSpace(line)
		if ref == "" {
			return
		}
		_, err := s.AddImage(ref, "")
		m.report(err)
	case inputReplace:
		ref := strings.TrimSpace(line)
		if ref == "" {
			return
		}
		m.report(s.ReplaceImage(s.SelectedID(), ref))
	case inputUpload:
		path := strings.TrimSpace(line)
		if path == "" {
			return
		}
		ref, err := m.env.loader.RegisterFile(path)
		if err != nil {
			m.report(err)
			return
		}
		m.report(s.SetUpload(ref))
	case inputSize:
		ws, hs, ok := strings.Cut(strings.ToLower(line), "x")
		if !ok {
			m.setStatus("size must be WxH", true)
			return
		}
		s.SetSize(canvas.ParseDimension(ws), canvas.ParseDimension(hs))
	}
}

// =============================================================================
// Actions
// =============================================================================

// retryFailed drops every failed ref of the current state from the loader
// so the next paint requests it again.
func (m *editModel) retryFailed() {
	n := 0
	for _, ref := range m.session.State().Refs() {
		if _, status := m.env.loader.Lookup(ref); status == resource.StatusFailed {
			m.env.loader.Forget(ref)
			n++
		}
	}
	if n == 0 {
		m.setStatus("no failed images", false)
		return
	}
	m.setStatus(fmt.Sprintf("retrying %d images", n), false)
	m.view.text = ""
}

// cycleSelection moves the selection through the layers, top first.
func (m *editModel) cycleSelection(dir int) {
	layers := m.session.State().Layers
	if len(layers) == 0 {
		return
	}
	i := layers.Index(m.session.SelectedID())
	switch {
	case i < 0 && dir > 0:
		i = len(layers) - 1
	case i < 0:
		i = 0
	default:
		i = (i - dir + len(layers)) % len(layers)
	}
	m.report(m.session.Select(layers[i].ID))
}

func (m *editModel) addSticker() {
	stickers := m.env.catalog.Stickers
	if len(stickers) == 0 {
		m.setStatus("the sticker gallery is empty", true)
		return
	}
	it := stickers[m.sticker%len(stickers)]
	m.sticker++
	_, err := m.session.AddSticker(it)
	m.report(err)
}

// cycleTemplate steps through the templates and then to no template.
func (m *editModel) cycleTemplate() {
	templates := m.env.catalog.Templates
	m.template = (m.template + 1) % (len(templates) + 1)
	if m.template == len(templates) {
		m.session.ClearTemplate()
		return
	}
	m.report(m.session.SetTemplate(templates[m.template].Ref))
}

func (m *editModel) cyclePreset() {
	size := m.session.State().Size
	next := 0
	for i, p := range canvas.Presets {
		if p.Size == size {
			next = (i + 1) % len(canvas.Presets)
		}
	}
	m.report(m.session.ApplyPreset(canvas.Presets[next].Label))
}

func (m *editModel) cycleFill() {
	i := slices.Index(fillCycle, m.session.State().Fill)
	m.report(m.session.SetFill(fillCycle[(i+1)%len(fillCycle)]))
}

func (m *editModel) exportPNG() {
	var buf bytes.Buffer
	if err := m.env.comp.Export(&buf, m.session.State()); err != nil {
		m.report(err)
		return
	}
	m.write(m.env.base+".png", buf.Bytes())
}

func (m *editModel) saveJSON() {
	data, err := memeio.MarshalJSON(m.session.State())
	if err != nil {
		m.report(err)
		return
	}
	m.write(m.env.base+".json", data)
}

func (m *editModel) write(path string, data []byte) {
	if err := writeFile(path, data); err != nil {
		m.report(err)
		return
	}
	if !slices.Contains(m.written, path) {
		m.written = append(m.written, path)
	}
	m.setStatus("wrote "+path, false)
}

func (m *editModel) copyLink() {
	link, err := share.Link(m.env.shareBase, m.session.State())
	if err != nil {
		m.report(err)
		return
	}
	if err := writeClipboard(link); err != nil {
		m.setStatus("clipboard unavailable: "+link, true)
		return
	}
	m.setStatus(fmt.Sprintf("copied link (%d characters)", len(link)), false)
}

// =============================================================================
// View
// =============================================================================

// repaint renders the canvas again when the session or the terminal changed.
func (m *editModel) repaint() {
	area := [2]int{m.width - sidebarWidth - 1, m.height - previewTop - footerRows}
	if m.view.text != "" && m.painted == m.session.Version() && m.paintedArea == area {
		return
	}
	m.env.comp.Render(m.surface, m.session.Snapshot())
	m.view = newPreview(m.surface.Image(), area[0], area[1])
	m.painted, m.paintedArea = m.session.Version(), area
}

var (
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editHiddenStyle   = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
)

func (m editModel) View() string {
	st := m.session.State()
	bg := "no background"
	if ref := st.ActiveBackground(); ref != "" {
		bg = string(st.BackgroundSource()) + " " + ref
	}
	header := StyleTitle.Render(appName) + "  " +
		StyleDim.Render(fmt.Sprintf("%dx%d · %s · %s", st.Size.Width, st.Size.Height, st.Fill, bg))

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.view.text, " ", m.sidebar())

	var footer string
	switch {
	case m.mode != inputNone:
		footer = StyleHighlight.Render(inputPrompts[m.mode]+": ") + string(m.input) + "▏"
	case m.statusErr:
		footer = StyleWarning.Render(m.status)
	default:
		footer = StyleSuccess.Render(m.status)
	}
	help := lipgloss.NewStyle().Foreground(colorDim).Width(max(m.width, 20)).Render(
		"tab select · arrows move · +/- scale · [ ] rotate · o/O opacity · v hide · d delete · n rename · " +
			"t text · e edit · </> font · k/K stroke · x/X spacing · a caps · s sticker · f face · i image · I replace · c clear stickers · r retry · " +
			"b template · u upload · U clear upload · p preset · S size · F fill · w png · ctrl+s save · l link · q quit")

	return header + "\n\n" + body + "\n" + footer + "\n" + help
}

func (m editModel) sidebar() string {
	st := m.session.State()
	var b strings.Builder

	b.WriteString(StyleHeader.Render("Layers"))
	b.WriteString("\n")
	if len(st.Layers) == 0 {
		b.WriteString(StyleDim.Render("  press t, s or f to add one"))
	}
	for i := len(st.Layers) - 1; i >= 0; i-- {
		l := st.Layers[i]
		line := "  " + layerLabel(l)
		style := lipgloss.NewStyle()
		if l.ID == m.session.SelectedID() {
			line = "▸ " + layerLabel(l)
			style = editSelectedStyle
		}
		if !l.Visible {
			style = editHiddenStyle
		}
		b.WriteString(style.Render(truncate(line, sidebarWidth)))
		b.WriteString("\n")
	}

	if l, ok := m.session.Selected(); ok {
		b.WriteString("\n")
		b.WriteString(StyleHeader.Render("Selected"))
		b.WriteString("\n")
		for _, kv := range selectionDetails(l) {
			b.WriteString(StyleDim.Render(fmt.Sprintf("%-10s", kv[0])))
			b.WriteString(StyleValue.Render(kv[1]))
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().Width(sidebarWidth).Render(strings.TrimRight(b.String(), "\n"))
}

func selectionDetails(l layer.Layer) [][2]string {
	details := [][2]string{
		{"type", string(l.Kind())},
		{"position", fmt.Sprintf("%.2f, %.2f", l.X, l.Y)},
		{"scale", fmt.Sprintf("%.2f", l.EffectiveScale())},
		{"rotation", fmt.Sprintf("%.0f°", l.Rotation)},
		{"opacity", fmt.Sprintf("%.0f%%", l.Opacity*100)},
	}
	if t, ok := l.TextContent(); ok {
		details = append(details,
			[2]string{"font", fmt.Sprintf("%.0fpx", t.FontSize)},
			[2]string{"stroke", fmt.Sprintf("%.0fpx", t.StrokePx)},
			[2]string{"caps", fmt.Sprintf("%t", t.AllCaps)})
	}
	if img, ok := l.ImageContent(); ok {
		details = append(details, [2]string{"source", img.Src})
	}
	return details
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
