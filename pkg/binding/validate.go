package binding

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/i18n"
)

// Validation marker classes.
const (
	ClassRequired         = "af-required"
	ClassValidationFailed = "af-validation-failed"
)

// Validate checks every field and reports the outcome in the page. A field
// fails the required check when it is required and not modified, and the
// validity check when its validators reject it. Both marker classes are
// toggled on the field node and on its label. The container named by
// containerID receives one paragraph per non-empty failure list and the
// af-validation-failed class. The label of a field is the text of the <label>
// inside its nearest ancestor matching labelSelector, or field.Label().
func Validate(fields []field.Field, containerID string, doc *html.Node, labelSelector string, tr i18n.Translator, locale string) bool {
	if tr == nil {
		tr = i18n.Default()
	}
	var missing, invalid []string
	for _, f := range fields {
		requiredOK := !f.Required() || f.Modified()
		validOK := f.Validate()

		labelNode, labelText := fieldLabel(f, labelSelector)
		for _, n := range []*html.Node{f.Node(), labelNode} {
			if n == nil {
				continue
			}
			dom.ToggleClass(n, ClassRequired, !requiredOK)
			dom.ToggleClass(n, ClassInvalid, !validOK)
		}
		if !requiredOK {
			missing = append(missing, labelText)
		}
		if !validOK {
			invalid = append(invalid, labelText)
		}
	}

	ok := len(missing) == 0 && len(invalid) == 0
	container := dom.ByID(doc, containerID)
	if container == nil {
		return ok
	}
	dom.RemoveChildren(container)
	for _, group := range []struct {
		key    string
		labels []string
	}{
		{key: i18n.ValidationRequired, labels: missing},
		{key: i18n.ValidationInvalid, labels: invalid},
	} {
		if len(group.labels) == 0 {
			continue
		}
		p := dom.Element("p")
		dom.SetText(p, tr.Translate(locale, group.key, i18n.Vars{
			"fields": i18n.List(group.labels),
			"count":  len(group.labels),
		}))
		container.AppendChild(p)
	}
	dom.ToggleClass(container, ClassValidationFailed, !ok)
	return ok
}

func fieldLabel(f field.Field, labelSelector string) (*html.Node, string) {
	if strings.TrimSpace(labelSelector) == "" {
		return nil, f.Label()
	}
	scope := dom.Closest(f.Node(), dom.Selector(labelSelector))
	if scope == nil {
		return nil, f.Label()
	}
	label := dom.First(scope, dom.Tag("label"))
	if label == nil {
		return nil, f.Label()
	}
	text := strings.Join(strings.Fields(dom.Text(label)), " ")
	text = strings.TrimSuffix(strings.TrimSpace(text), ":")
	if text == "" {
		text = f.Label()
	}
	return label, strings.TrimSpace(text)
}
