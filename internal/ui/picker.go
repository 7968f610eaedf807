package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/search"
	"stockdash/internal/state"
)

// pickerModel is the stock screen: a search box over the ticker universe.
type pickerModel struct {
	input    textinput.Model
	engine   search.Engine
	universe []string
	matches  []string
	cursor   int
}

func newPickerModel() pickerModel {
	input := textinput.New()
	input.Placeholder = "search symbol"
	input.CharLimit = 12
	input.Focus()
	return pickerModel{input: input}
}

func (p pickerModel) typing() bool { return p.input.Focused() }

// setUniverse swaps in the fetched ticker list and rebuilds the index. When
// the index cannot be built, a plain substring scanner takes over.
func (p pickerModel) setUniverse(symbols []string) pickerModel {
	if p.engine != nil {
		p.engine.Close()
	}
	p.universe = symbols
	eng, err := search.NewBleveEngine(symbols)
	if err != nil {
		p.engine = search.NewInMemoryEngine(symbols)
	} else {
		p.engine = eng
	}
	p.matches = symbols
	p.cursor = 0
	return p
}

func (p pickerModel) refilter() pickerModel {
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		p.matches = p.universe
	} else if p.engine != nil {
		p.matches = p.engine.Search(query)
	}
	if p.cursor >= len(p.matches) {
		p.cursor = 0
	}
	return p
}

// update handles picker-local input. A non-empty selected return value means
// the user chose a symbol.
func (p pickerModel) update(msg tea.Msg) (pickerModel, string, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
			return p, "", nil
		case "down":
			if p.cursor < len(p.matches)-1 {
				p.cursor++
			}
			return p, "", nil
		case "enter":
			if p.cursor < len(p.matches) {
				return p, p.matches[p.cursor], nil
			}
			return p, "", nil
		}
	}

	var cmd tea.Cmd
	before := p.input.Value()
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != before {
		p = p.refilter()
	}
	return p, "", cmd
}

func (p pickerModel) view(width, height int, stocks *state.Resource[[]string]) string {
	var b strings.Builder
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	_, loaded, loading, errMsg := stocks.Get()
	switch {
	case loading && !loaded:
		b.WriteString(dimStyle.Render("loading stocks..."))
		return b.String()
	case errMsg != "" && !loaded:
		b.WriteString(errStyle.Render("error: " + errMsg))
		return b.String()
	}

	rows := height - 3
	if rows < 1 {
		rows = 1
	}
	start := 0
	if p.cursor >= rows {
		start = p.cursor - rows + 1
	}
	end := start + rows
	if end > len(p.matches) {
		end = len(p.matches)
	}

	for i := start; i < end; i++ {
		sym := p.matches[i]
		hl := i == p.cursor
		style := hlStyle(symbolStyle, hl)
		if hl {
			style = hlStyle(symbolHlStyle, true)
		}
		b.WriteString(style.Render(fmt.Sprintf(" %-8s", sym)))
		b.WriteString("\n")
	}
	if len(p.matches) == 0 {
		b.WriteString(dimStyle.Render("(no matching symbols)"))
	}
	return strings.TrimRight(b.String(), "\n")
}
