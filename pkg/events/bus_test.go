package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/events"
)

func TestDispatch_BubblesNearestFirst(t *testing.T) {
	doc, err := dom.ParseString(`<body><div id="outer"><p id="inner"><span id="leaf"></span></p></div></body>`)
	require.NoError(t, err)

	bus := events.NewBus()
	var order []string
	for _, id := range []string{"outer", "inner"} {
		id := id
		bus.On(dom.ByID(doc, id), events.Update, func(_ context.Context, ev *events.Event) {
			order = append(order, id)
			require.Equal(t, "leaf", dom.AttrOr(ev.Target, "id", ""))
		})
	}

	ev := bus.Dispatch(context.Background(), dom.ByID(doc, "leaf"), events.Update, events.UpdatePayload{Variable: "v"})
	require.Equal(t, []string{"inner", "outer"}, order)
	require.NotEmpty(t, ev.ID)
	require.Nil(t, ev.CurrentScope)
}

func TestDispatch_StopPropagation(t *testing.T) {
	doc, err := dom.ParseString(`<body><div id="outer"><p id="inner"></p></div></body>`)
	require.NoError(t, err)

	bus := events.NewBus()
	outerCalls := 0
	bus.On(dom.ByID(doc, "outer"), events.SaveDone, func(context.Context, *events.Event) { outerCalls++ })
	bus.On(dom.ByID(doc, "inner"), events.SaveDone, func(_ context.Context, ev *events.Event) { ev.StopPropagation() })

	ev := bus.Dispatch(context.Background(), dom.ByID(doc, "inner"), events.SaveDone, nil)
	require.True(t, ev.Stopped())
	require.Zero(t, outerCalls)
}

func TestOff_RemovesOnlyThatSubscription(t *testing.T) {
	node := dom.Element("div")
	bus := events.NewBus()
	calls := 0
	first := bus.On(node, events.Click, func(context.Context, *events.Event) { calls++ })
	bus.On(node, events.Click, func(context.Context, *events.Event) { calls += 10 })
	require.Equal(t, 2, bus.Count(node, events.Click))

	bus.Off(first)
	bus.Dispatch(context.Background(), node, events.Click, nil)
	require.Equal(t, 10, calls)
	require.Equal(t, 1, bus.Count(node, events.Click))
}

func TestScope_FallsBackToRoot(t *testing.T) {
	doc, err := dom.ParseString(`<body><form class="editor"><input id="f"></form><input id="g"></body>`)
	require.NoError(t, err)

	require.Equal(t, "form", events.Scope(dom.ByID(doc, "f"), dom.Selector("form.editor")).Data)
	require.Equal(t, doc, events.Scope(dom.ByID(doc, "g"), dom.Selector("form.editor")))
}
