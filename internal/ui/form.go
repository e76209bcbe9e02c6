package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/gallery-feed/pkg/gallery"
	"github.com/Sternrassler/gallery-feed/pkg/mutation"
)

var formFields = [...]string{"title", "description", "url"}

// uploadForm holds the add-image inputs and their field errors.
type uploadForm struct {
	inputs     [3]textinput.Model
	focus      int
	errors     map[string]string
	submitting bool
}

func newUploadForm() uploadForm {
	placeholders := [3]string{"Image title...", "Image description...", "https://..."}
	limits := [3]int{gallery.TitleMaxLength, gallery.DescriptionMaxLength, 2048}

	var f uploadForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Prompt = "› "
		f.inputs[i] = ti
	}
	f.inputs[0].Focus()
	f.errors = make(map[string]string)
	return f
}

func (f uploadForm) payload() gallery.NewImage {
	return gallery.NewImage{
		Title:       f.inputs[0].Value(),
		Description: f.inputs[1].Value(),
		URL:         f.inputs[2].Value(),
	}
}

func (f *uploadForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// setErrors shows the field messages of err. Any other error is shown on
// the form as a whole.
func (f *uploadForm) setErrors(err error) {
	f.errors = make(map[string]string)
	if err == nil {
		return
	}

	var ve *mutation.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		for _, fe := range ve.Fields {
			f.errors[fe.Field] = fe.Message
		}
		return
	}
	f.errors[""] = err.Error()
}

func (f uploadForm) update(msg tea.Msg) (uploadForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}
