package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/binding"
	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

// Replace strategies for data-replace-type.
const (
	ReplaceAll     = "all"
	ReplaceSwap    = "swap"
	ReplaceAppend  = "append"
	ReplacePrepend = "prepend"
)

// Marker classes used by save.
const (
	ClassBusy = "af-busy"
	ClassSwap = "af-swap"
)

// TransactionParam carries the editor's data-transaction on save requests.
const TransactionParam = "transaction"

const xmlContentType = "application/xml; charset=UTF-8"

var (
	payloadPolicyOnce sync.Once
	payloadPolicy     *bluemonday.Policy
)

// sanitizer for server payloads inserted in the page. Data attributes are
// kept so inserted markup can declare commands and bindings.
func payloadSanitizer() *bluemonday.Policy {
	payloadPolicyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Globally()
		p.AllowDataAttributes()
		payloadPolicy = p
	})
	return payloadPolicy
}

// Save submits the serialized target editor. A 202 answer is a request for
// confirmation: the user is asked, and the same payload is sent again with
// the confirmation flag.
type Save struct {
	env     *Env
	node    *html.Node
	running bool
}

func newSave(env *Env, node *html.Node) (Command, error) {
	s := &Save{env: env, node: node}
	env.OnClick(node, NameSave, s)
	return s, nil
}

// Running reports whether a submission is in flight.
func (s *Save) Running() bool { return s.running }

func (s *Save) Execute(ctx context.Context) error {
	if s.running {
		return ErrBusy
	}
	ed, err := s.env.TargetEditor(s.node)
	if err != nil {
		return err
	}
	if msg := dom.AttrOr(s.node, AttrConfirm, ""); msg != "" && !s.env.confirm(ctx, msg) {
		return nil
	}
	if out := dom.AttrOr(s.node, AttrValidationOutput, s.env.ErrorContainer); out != "" {
		label := dom.AttrOr(s.node, AttrValidationLabel, "")
		if !binding.Validate(ed.Fields(), out, s.env.Document, label, s.env.Translator, s.env.Locale) {
			s.env.logger().Info("save blocked by validation", "editor", ed.Key())
			return nil
		}
	}
	if s.env.Client == nil {
		return errors.New("command: save: no client configured")
	}
	payload, err := ed.Serialize()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", ed.Key(), err)
	}
	target := s.url(ed)
	if target == "" {
		return fmt.Errorf("%w: %s", ErrMissingAttr, AttrSrc)
	}

	s.begin()
	defer s.end()

	req := transport.Request{
		Method:      strings.ToUpper(dom.AttrOr(s.node, AttrMethod, http.MethodPost)),
		URL:         target,
		Body:        payload,
		ContentType: xmlContentType,
	}
	for {
		resp, err := s.env.Client.Submit(ctx, req)
		if err != nil {
			return s.fail(ctx, ed, transport.DecodeError(nil, err))
		}
		switch transport.Classify(resp) {
		case transport.Redirect:
			s.env.navigate(ctx, s.env.resolve(resp.Location, s.node))
			return nil
		case transport.Confirm:
			if req.Confirmed {
				return s.succeed(ctx, ed, resp)
			}
			if !s.env.confirm(ctx, s.confirmMessage(resp)) {
				s.env.logger().Info(s.env.translate(i18n.SaveCancelled, nil), "editor", ed.Key())
				s.env.dispatch(ctx, ed.Node(), events.SaveCancel, events.SaveCancelPayload{Editor: ed.Key()})
				return nil
			}
			req.Confirmed = true
		case transport.Success:
			return s.succeed(ctx, ed, resp)
		default:
			return s.fail(ctx, ed, transport.DecodeError(resp, nil))
		}
	}
}

func (s *Save) begin() {
	s.running = true
	dom.Disable(s.node)
	dom.AddClass(s.node, ClassBusy)
}

func (s *Save) end() {
	s.running = false
	dom.Enable(s.node)
	dom.RemoveClass(s.node, ClassBusy)
}

// url is the save node's data-src, or the editor's, with the editor's
// transaction appended.
func (s *Save) url(ed editor.Editor) string {
	src := dom.AttrOr(s.node, AttrSrc, "")
	if src == "" {
		src = dom.AttrOr(ed.Node(), AttrSrc, "")
	}
	if src == "" {
		return ""
	}
	target := s.env.resolve(src, s.node)
	if tx := strings.TrimSpace(dom.AttrOr(ed.Node(), AttrTransaction, "")); tx != "" {
		target = transport.WithQuery(target, TransactionParam, tx)
	}
	return target
}

func (s *Save) confirmMessage(resp *transport.Response) string {
	var message string
	if env, err := resp.Envelope(); err == nil {
		message = env.Message
	}
	return s.env.translate(i18n.SaveConfirm, i18n.Vars{"message": message})
}

// Failure is the error returned by a save that reached a terminal failure.
// Its message is localized.
type Failure struct {
	Editor  string
	Message string
	Err     *transport.Error
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Err }

func (s *Save) fail(ctx context.Context, ed editor.Editor, err *transport.Error) error {
	reason := err.Message
	if reason == "" {
		reason = err.Error()
	}
	failure := &Failure{
		Editor:  ed.Key(),
		Message: s.env.translate(i18n.SaveFailed, i18n.Vars{"error": reason}),
		Err:     err,
	}
	s.env.dispatch(ctx, ed.Node(), events.SaveError, events.SaveErrorPayload{Editor: ed.Key(), Err: failure})
	return failure
}

func (s *Save) succeed(ctx context.Context, ed editor.Editor, resp *transport.Response) error {
	var message, payload string
	var forward *transport.Forward
	envelope, err := resp.Envelope()
	switch {
	case err == nil:
		message, payload, forward = envelope.Message, envelope.Payload, envelope.Forward
	case !errors.Is(err, transport.ErrNoEnvelope):
		s.env.logger().Debug("undecodable save response", "editor", ed.Key(), "error", err)
	}

	if payload != "" {
		if err := s.replace(ctx, payload); err != nil {
			s.env.Report(ctx, fmt.Errorf("command save: %w", err))
		}
	}
	if forward != nil {
		s.forward(ctx, forward)
	}

	done := events.SaveDonePayload{Editor: ed.Key(), Status: resp.Status, Message: message, Payload: payload}
	s.env.dispatch(ctx, ed.Node(), events.SaveDone, done)
	if key := strings.TrimSpace(dom.AttrOr(s.node, AttrEventTarget, "")); key != "" && s.env.Editors != nil {
		if other, ok := s.env.Editors.Lookup(key); ok && other.Node() != ed.Node() {
			s.env.dispatch(ctx, other.Node(), events.SaveDone, done)
		}
	}
	return nil
}

func (s *Save) forward(ctx context.Context, fwd *transport.Forward) {
	target := strings.TrimSpace(fwd.Target)
	if s.env.Commands == nil {
		return
	}
	cmd, ok := s.env.Commands.Lookup(target, fwd.Command)
	if !ok {
		s.env.Report(ctx, fmt.Errorf("command save: forward: no %s command on %q", fwd.Command, target))
		return
	}
	if err := cmd.Execute(ctx); err != nil {
		s.env.Report(ctx, fmt.Errorf("command save: forward %s(%s): %w", fwd.Command, target, err))
	}
}

// replace inserts the sanitized payload according to data-replace-type. The
// inserted range is then installed.
func (s *Save) replace(ctx context.Context, payload string) error {
	kind := strings.TrimSpace(dom.AttrOr(s.node, AttrReplaceType, ""))
	if kind == "" {
		return nil
	}
	id := dom.AttrOr(s.node, AttrReplaceTarget, "")
	target := dom.ByID(s.env.Document, id)
	if target == nil {
		return fmt.Errorf("replace target %q not found", id)
	}
	nodes, err := dom.ParseFragment(payloadSanitizer().Sanitize(payload), target)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	if len(nodes) == 0 {
		return nil
	}

	switch kind {
	case ReplaceAll:
		dom.RemoveChildren(target)
		for _, n := range nodes {
			target.AppendChild(n)
		}
	case ReplaceAppend:
		for _, n := range nodes {
			target.AppendChild(n)
		}
	case ReplacePrepend:
		for i := len(nodes) - 1; i >= 0; i-- {
			dom.Prepend(target, nodes[i])
		}
	case ReplaceSwap:
		wrapper := dom.Element("div", "class", ClassSwap)
		for _, n := range nodes {
			wrapper.AppendChild(n)
		}
		dom.Hide(target)
		dom.InsertAfter(target, wrapper)
		s.env.Subscribe(wrapper, NameSave, events.CancelEdit, func(context.Context, *events.Event) {
			dom.Detach(wrapper)
			dom.Show(target)
		})
		nodes = []*html.Node{wrapper}
	default:
		return fmt.Errorf("unknown %s %q", AttrReplaceType, kind)
	}

	if s.env.Installer != nil {
		first, last := nodes[0], nodes[len(nodes)-1]
		s.env.Installer.InstallCommands(ctx, s.env.Document, first, last)
		s.env.Installer.InstallBindings(ctx, s.env.Document, first, last)
	}
	return nil
}
