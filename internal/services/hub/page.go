package hub

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

//go:embed page.html
var pageHTML string

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"celsius": model.FormatTemperature,
	"yesNo":   model.YesNo,
	"onOff":   model.OnOff,
}).Parse(pageHTML))

// PageData is what the control panel renders.
type PageData struct {
	Data     model.SensorSnapshot
	Commands model.ControlState
}

// renderPage executes into a buffer first so a template error never leaves a half-written page.
func renderPage(w io.Writer, pd PageData) error {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, pd); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
