package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pyscope/pyscope/pkg/resolve"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for the interactive package list.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [runtime]",
		Short: "Browse installed packages interactively",
		Long: `Browse the packages installed under a runtime in an interactive list.

Selecting a package prints its short metadata. The runtime defaults to
the newest discovered one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime := ""
			if len(args) == 1 {
				runtime = args[0]
			}
			return c.runBrowse(cmd.Context(), runtime)
		},
	}
}

// runBrowse lists the runtime's packages in a scrolling picker and, on
// selection, prints the package's short metadata.
func (c *CLI) runBrowse(ctx context.Context, runtime string) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	runtime, err = defaultRuntime(ctx, s, runtime)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scanning packages under %s...", runtime))
	spinner.Start()
	recs, err := s.Packages(ctx, runtime)
	spinner.Stop()
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		printInfo("No packages under %s", runtime)
		return nil
	}

	m := NewPackageListModel(runtime, recs)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(PackageListModel)
	if !ok || fm.Selected == nil {
		return nil
	}

	meta, err := s.Inspect(ctx, fm.Selected.Name, runtime, "short metadata")
	if err != nil {
		return err
	}

	printInfo("%s %s", StyleHighlight.Render(fm.Selected.Name), StyleNumber.Render(fm.Selected.Version))
	printAnswer("short metadata", meta)
	return nil
}

// =============================================================================
// PackageListModel - Interactive package selection
// =============================================================================

// PackageListModel is the bubbletea model for the package browser.
type PackageListModel struct {
	Runtime  string
	Packages []*resolve.Record
	Cursor   int
	Selected *resolve.Record
	Height   int
	Offset   int
}

// NewPackageListModel creates a new package list model.
func NewPackageListModel(runtime string, pkgs []*resolve.Record) PackageListModel {
	return PackageListModel{
		Runtime:  runtime,
		Packages: pkgs,
		Cursor:   0,
		Height:   15,
		Offset:   0,
	}
}

func (m PackageListModel) Init() tea.Cmd {
	return nil
}

func (m PackageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Packages)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Packages[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m PackageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Packages under " + m.Runtime))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Packages) {
		end = len(m.Packages)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		rec := m.Packages[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		version := rec.Version
		if version == "" {
			version = "—"
		}

		rows = append(rows, []string{cursor, rec.Name, version, filepath.Base(rec.Dir.Path)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Version", "Distribution").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Packages) {
				return lipgloss.NewStyle()
			}
			if actualIdx == m.Cursor {
				if col == 3 {
					return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
				}
				return listSelectedStyle
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Packages))))

	return b.String()
}
