package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/gallery-feed/pkg/gallery"
	"github.com/Sternrassler/gallery-feed/pkg/pagination"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.uploading {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView(m.keys.formHelp()))
		return b.String()
	}

	b.WriteString(m.renderFeed())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.theme.Muted.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.browseHelp()))
	return b.String()
}

func (m Model) renderHeader() string {
	status := m.state.Status.String()
	switch m.state.Status {
	case pagination.StatusLoadingFirst, pagination.StatusLoadingMore:
		status = m.spinner.View() + " " + status
	}

	header := fmt.Sprintf("gallery  %d images  %s", len(m.items), status)
	if m.width > 0 {
		return m.theme.Header.Width(m.width).Render(header)
	}
	return m.theme.Header.Render(header)
}

func (m Model) renderFeed() string {
	switch {
	case m.state.Status == pagination.StatusIdle:
		return m.theme.Muted.Render("Connecting...")
	case m.state.Status == pagination.StatusError && len(m.items) == 0:
		msg := "Could not load images"
		if m.state.Err != nil {
			msg += ": " + m.state.Err.Error()
		}
		return m.theme.Error.Render(msg) + "\n" + m.theme.Muted.Render("press r to retry")
	case m.state.Status == pagination.StatusLoadingFirst && len(m.items) == 0:
		return m.spinner.View() + " Loading..."
	}

	if len(m.items) == 0 {
		return m.theme.Muted.Render("No images yet. Press u to add one.")
	}

	var b strings.Builder
	for i, img := range m.items {
		b.WriteString(m.renderItem(img, i == m.selected))
		b.WriteString("\n")
	}

	switch {
	case m.state.IsFetchingNext:
		b.WriteString(m.spinner.View() + " Loading more...")
	case m.state.NextErr != nil:
		b.WriteString(m.theme.Error.Render("Loading more failed: " + m.state.NextErr.Error()))
	default:
		if has, known := m.state.HasNextPage(); has && known {
			b.WriteString(m.theme.Muted.Render("more images available"))
		}
	}
	return b.String()
}

func (m Model) renderItem(img gallery.Image, selected bool) string {
	cursor := "  "
	title := m.theme.Title.Render(img.Title)
	if selected {
		cursor = m.theme.Selected.Render("▸ ")
		title = m.theme.Selected.Render(img.Title)
	}

	line := cursor + title
	if img.Description != "" {
		line += m.theme.Muted.Render("  " + img.Description)
	}
	if selected {
		line += "\n    " + m.theme.Label.Render(img.URL) +
			m.theme.Muted.Render("  "+img.Created().Format("2006-01-02 15:04"))
	}
	return line
}

func (m Model) renderForm() string {
	labels := [3]string{"Title", "Description", "Image URL"}

	var rows []string
	rows = append(rows, m.theme.Title.Render("Add image"), "")
	for i, input := range m.form.inputs {
		rows = append(rows, m.theme.Label.Render(labels[i]), input.View())
		if msg, ok := m.form.errors[formFields[i]]; ok {
			rows = append(rows, m.theme.Error.Render(msg))
		}
		rows = append(rows, "")
	}

	if msg, ok := m.form.errors[""]; ok {
		rows = append(rows, m.theme.Error.Render(msg))
	}
	if m.form.submitting {
		rows = append(rows, m.spinner.View()+" Sending...")
	}

	return m.theme.Box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
