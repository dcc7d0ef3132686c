package command

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

// DataInput is the name of the hidden form input receiving the serialized
// editor.
const DataInput = "data"

const formContentType = "application/x-www-form-urlencoded"

// Submit copies the serialized target editor into the form named by
// data-form and submits the form.
type Submit struct {
	env  *Env
	node *html.Node
	form string
}

func newSubmit(env *Env, node *html.Node) (Command, error) {
	form := strings.TrimSpace(dom.AttrOr(node, AttrForm, ""))
	if form == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAttr, AttrForm)
	}
	s := &Submit{env: env, node: node, form: form}
	env.OnClick(node, NameSubmit, s)
	return s, nil
}

func (s *Submit) Execute(ctx context.Context) error {
	ed, err := s.env.TargetEditor(s.node)
	if err != nil {
		return err
	}
	form := dom.ByID(s.env.Document, s.form)
	if form == nil {
		return fmt.Errorf("form %q not found", s.form)
	}
	if s.env.Client == nil {
		return fmt.Errorf("command: submit: no client configured")
	}
	data, err := ed.Serialize()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", ed.Key(), err)
	}

	input := dom.First(form, dom.All(dom.Tag("input"), dom.AttrEquals("name", DataInput)))
	if input == nil {
		input = dom.Element("input", "type", "hidden", "name", DataInput)
		form.AppendChild(input)
	}
	dom.SetAttr(input, "value", string(data))

	action := s.env.resolve(dom.AttrOr(form, "action", ""), form)
	if action == "" {
		return fmt.Errorf("form %q has no action", s.form)
	}
	values := FormValues(form)
	req := transport.Request{Method: strings.ToUpper(dom.AttrOr(form, "method", http.MethodPost)), URL: action}
	if req.Method == http.MethodGet {
		for name, vs := range values {
			for _, v := range vs {
				req.URL = transport.WithQuery(req.URL, name, v)
			}
		}
	} else {
		req.Body = []byte(values.Encode())
		req.ContentType = formContentType
	}

	resp, err := s.env.Client.Submit(ctx, req)
	if err != nil {
		return s.fail(ctx, ed.Key(), ed.Node(), transport.DecodeError(nil, err))
	}
	switch transport.Classify(resp) {
	case transport.Redirect:
		s.env.navigate(ctx, s.env.resolve(resp.Location, form))
	case transport.Success, transport.Confirm:
		var message string
		if envelope, err := resp.Envelope(); err == nil {
			message = envelope.Message
		}
		s.env.dispatch(ctx, ed.Node(), events.SaveDone, events.SaveDonePayload{Editor: ed.Key(), Status: resp.Status, Message: message})
	default:
		return s.fail(ctx, ed.Key(), ed.Node(), transport.DecodeError(resp, nil))
	}
	return nil
}

func (s *Submit) fail(ctx context.Context, key string, node *html.Node, err *transport.Error) error {
	s.env.dispatch(ctx, node, events.SaveError, events.SaveErrorPayload{Editor: key, Err: err})
	return err
}

// FormValues collects the successful controls of form the way a browser
// would encode them.
func FormValues(form *html.Node) url.Values {
	values := url.Values{}
	controls := dom.Find(form, dom.Any(dom.Tag("input"), dom.Tag("select"), dom.Tag("textarea")))
	for _, n := range controls {
		name := dom.AttrOr(n, "name", "")
		if name == "" || dom.Disabled(n) {
			continue
		}
		switch n.Data {
		case "input":
			switch strings.ToLower(dom.AttrOr(n, "type", "text")) {
			case "checkbox", "radio":
				if dom.HasAttr(n, "checked") {
					values.Add(name, dom.AttrOr(n, "value", "on"))
				}
			case "submit", "button", "reset", "file", "image":
			default:
				values.Add(name, dom.AttrOr(n, "value", ""))
			}
		case "textarea":
			values.Add(name, dom.Text(n))
		case "select":
			options := dom.Find(n, dom.Tag("option"))
			var picked bool
			for _, opt := range options {
				if dom.HasAttr(opt, "selected") {
					values.Add(name, optionValue(opt))
					picked = true
				}
			}
			if !picked && !dom.HasAttr(n, "multiple") && len(options) > 0 {
				values.Add(name, optionValue(options[0]))
			}
		}
	}
	return values
}

func optionValue(opt *html.Node) string {
	if v, ok := dom.Attr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(dom.Text(opt))
}
