package settings

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"strconv"

	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/utility"
)

const fieldTitle = `"Remember Me" Login Length`

var defaultValue = strconv.Itoa(domain.DefaultExpiration)

var selectTmpl = template.Must(template.New("select").Parse(
	`<select id='{{.ID}}' name='{{.ID}}'>
{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected="selected"{{end}}>{{.Label}}</option>
{{end}}</select>
`))

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

// ExpirationField is the dropdown for the remember-me lifetime.
type ExpirationField struct {
	options domain.OptionRepository
}

func NewExpirationField(options domain.OptionRepository) *ExpirationField {
	return &ExpirationField{options: options}
}

// Register declares the option and its field on the general page. Calling
// it more than once has no further effect.
func (f *ExpirationField) Register(reg *Registry) {
	reg.RegisterSetting(domain.GeneralPage, domain.ExpirationOption, ValidateInput)
	reg.AddField(Field{
		ID:     domain.ExpirationOption,
		Title:  fieldTitle,
		Page:   domain.GeneralPage,
		Render: f.Render,
	})
}

// Render writes the dropdown. The preset matching the stored value is
// preselected; the default preset is preselected when nothing is stored.
// A stored value outside the presets leaves every option unselected.
func (f *ExpirationField) Render(ctx context.Context, w io.Writer) error {
	value, err := f.options.GetOption(ctx, domain.ExpirationOption)
	if err != nil || value == "" || value == "0" {
		value = defaultValue
	}

	opts := make([]selectOption, 0, len(Presets))
	for _, p := range Presets {
		v := strconv.Itoa(p.Seconds)
		opts = append(opts, selectOption{
			Value:    v,
			Label:    p.Label,
			Selected: utility.LooseEqual(v, value),
		})
	}

	return selectTmpl.Execute(w, struct {
		ID      string
		Options []selectOption
	}{domain.ExpirationOption, opts})
}

// ValidateInput returns input unchanged when it is numeric and the default
// lifetime otherwise. There is no range check.
func ValidateInput(input string) string {
	if !utility.IsNumeric(input) {
		return defaultValue
	}
	return input
}

// ValidateValue sanitizes a decoded JSON value. Strings and numbers are
// checked like form input; null, booleans, objects and arrays get the
// default.
func ValidateValue(v any) string {
	switch x := v.(type) {
	case string:
		return ValidateInput(x)
	case json.Number:
		return ValidateInput(x.String())
	case float64:
		return ValidateInput(strconv.FormatFloat(x, 'f', -1, 64))
	case int:
		return strconv.Itoa(x)
	default:
		return defaultValue
	}
}
