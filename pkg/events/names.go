package events

import "golang.org/x/net/html"

// Name identifies an event kind.
type Name string

// Event names exchanged between controllers. The payload type dispatched with
// each name is listed next to it.
const (
	// SaveDone follows a successful save (SaveDonePayload).
	SaveDone Name = "axel-save-done"
	// SaveError follows a failed save (SaveErrorPayload).
	SaveError Name = "axel-save-error"
	// SaveCancel fires when the user declines a save confirmation (SaveCancelPayload).
	SaveCancel Name = "axel-save-cancel"
	// ContentReady fires once an editor is materialized or reloaded (ContentReadyPayload).
	ContentReady Name = "axel-content-ready"
	// ItemAdded fires when a repeated group inserts new siblings (ItemAddedPayload).
	ItemAdded Name = "axel-add-item"
	// SelectAll asks choice fields to select or clear every option (SelectAllPayload).
	SelectAll Name = "axel-select-all"
	// Update fires when a field value changes through user input (UpdatePayload).
	Update Name = "axel-update"
	// CancelEdit asks the editor hosting the target to abandon editing (no payload).
	CancelEdit Name = "axel-cancel-edit"
	// Click stands in for user activation of a control (no payload).
	Click Name = "click"
)

// SaveDonePayload accompanies SaveDone.
type SaveDonePayload struct {
	Editor  string
	Status  int
	Message string
	Payload string
}

// SaveErrorPayload accompanies SaveError.
type SaveErrorPayload struct {
	Editor string
	Err    error
}

// SaveCancelPayload accompanies SaveCancel.
type SaveCancelPayload struct {
	Editor string
}

// ContentReadyPayload accompanies ContentReady.
type ContentReadyPayload struct {
	Editor string
}

// ItemAddedPayload accompanies ItemAdded: the inserted sibling range.
type ItemAddedPayload struct {
	First *html.Node
	Last  *html.Node
}

// SelectAllPayload accompanies SelectAll.
type SelectAllPayload struct {
	Variable string
	Select   bool
}

// UpdatePayload accompanies Update.
type UpdatePayload struct {
	Variable string
	Values   []string
}
