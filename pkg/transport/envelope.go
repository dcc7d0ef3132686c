package transport

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Outcome classifies a response for the save protocol.
type Outcome int

const (
	Failure Outcome = iota
	Success
	Confirm
	Redirect
	Conflict
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Confirm:
		return "confirm"
	case Redirect:
		return "redirect"
	case Conflict:
		return "conflict"
	default:
		return "failure"
	}
}

// Classify maps a response to its outcome. A Location header supersedes
// everything else, including 409.
func Classify(resp *Response) Outcome {
	switch {
	case resp == nil:
		return Failure
	case resp.Location != "":
		return Redirect
	case resp.Status == http.StatusAccepted:
		return Confirm
	case resp.Status == http.StatusConflict:
		return Conflict
	case resp.Status >= 200 && resp.Status < 300:
		return Success
	default:
		return Failure
	}
}

// Forward asks the page to run a command after a successful save.
type Forward struct {
	Command string `xml:"command,attr" json:"command"`
	Target  string `xml:",chardata" json:"target"`
}

// Envelope is the decoded server feedback.
type Envelope struct {
	// Kind is "success" or "error".
	Kind    string
	Message string
	// Payload is markup (XML envelope) or text (JSON envelope) to insert in
	// the page.
	Payload string
	Forward *Forward
}

// ErrNoEnvelope is returned when the body is neither an XML nor a JSON
// envelope.
var ErrNoEnvelope = errors.New("transport: no envelope")

type xmlEnvelope struct {
	XMLName xml.Name
	Message string `xml:"message"`
	Payload *struct {
		Inner string `xml:",innerxml"`
	} `xml:"payload"`
	Forward *Forward `xml:"forward"`
}

type jsonEnvelope struct {
	Message json.RawMessage `json:"message"`
	Payload json.RawMessage `json:"payload"`
	Forward *Forward        `json:"forward"`
	Error   json.RawMessage `json:"error"`
}

// Envelope decodes the response body.
func (r *Response) Envelope() (*Envelope, error) {
	if r == nil {
		return nil, ErrNoEnvelope
	}
	body := bytes.TrimSpace(r.Body)
	if len(body) == 0 {
		return nil, ErrNoEnvelope
	}
	if env, err := decodeXMLEnvelope(body); err == nil {
		return env, nil
	}
	if env, err := decodeJSONEnvelope(body); err == nil {
		if env.Kind == "" {
			env.Kind = "success"
			if r.Status >= 400 {
				env.Kind = "error"
			}
		}
		return env, nil
	}
	return nil, ErrNoEnvelope
}

func decodeXMLEnvelope(body []byte) (*Envelope, error) {
	if body[0] != '<' {
		return nil, ErrNoEnvelope
	}
	var raw xmlEnvelope
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	kind := strings.ToLower(raw.XMLName.Local)
	if kind != "success" && kind != "error" {
		return nil, fmt.Errorf("%w: root <%s>", ErrNoEnvelope, raw.XMLName.Local)
	}
	env := &Envelope{Kind: kind, Message: strings.TrimSpace(raw.Message), Forward: raw.Forward}
	if raw.Payload != nil {
		env.Payload = strings.TrimSpace(raw.Payload.Inner)
	}
	if env.Forward != nil {
		env.Forward.Target = strings.TrimSpace(env.Forward.Target)
	}
	return env, nil
}

func decodeJSONEnvelope(body []byte) (*Envelope, error) {
	if body[0] != '{' {
		return nil, ErrNoEnvelope
	}
	var raw jsonEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	env := &Envelope{Forward: raw.Forward}
	if len(raw.Error) > 0 {
		env.Kind = "error"
		env.Message = jsonText(raw.Error)
		// {"error": {"message": "..."}}
		var nested struct {
			Message json.RawMessage `json:"message"`
		}
		if json.Unmarshal(raw.Error, &nested) == nil && len(nested.Message) > 0 {
			env.Message = jsonText(nested.Message)
		}
	}
	if msg := jsonText(raw.Message); msg != "" {
		env.Message = msg
	}
	env.Payload = jsonText(raw.Payload)
	if env.Message == "" && env.Payload == "" && env.Forward == nil && env.Kind == "" {
		return nil, ErrNoEnvelope
	}
	return env, nil
}

// jsonText returns strings unquoted and any other JSON value verbatim.
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
