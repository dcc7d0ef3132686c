package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-axelforms/pkg/transport"
)

func TestSubmit_ConfirmedRetryCarriesFlagAndBody(t *testing.T) {
	var queries []string
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if r.URL.Query().Get(transport.ConfirmedParam) == "1" {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<success><message>Saved</message></success>`)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `<success><message>Really overwrite?</message></success>`)
	}))
	defer srv.Close()

	client := transport.New()
	req := transport.Request{URL: srv.URL + "/save?transaction=7", Body: []byte("<Data/>"), ContentType: "application/xml"}

	resp, err := client.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, transport.Confirm, transport.Classify(resp))

	req.Confirmed = true
	resp, err = client.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, transport.Success, transport.Classify(resp))

	env, err := resp.Envelope()
	require.NoError(t, err)
	require.Equal(t, "Saved", env.Message)
	require.Equal(t, []string{"transaction=7", "_confirmed=1&transaction=7"}, queries)
	require.Equal(t, []string{"<Data/>", "<Data/>"}, bodies)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		resp   *transport.Response
		expect transport.Outcome
	}{
		{name: "nil", resp: nil, expect: transport.Failure},
		{name: "ok", resp: &transport.Response{Status: 200}, expect: transport.Success},
		{name: "created", resp: &transport.Response{Status: 201}, expect: transport.Success},
		{name: "accepted", resp: &transport.Response{Status: 202}, expect: transport.Confirm},
		{name: "conflict", resp: &transport.Response{Status: 409}, expect: transport.Conflict},
		{name: "conflict with location", resp: &transport.Response{Status: 409, Location: "/login"}, expect: transport.Redirect},
		{name: "redirect", resp: &transport.Response{Status: 302, Location: "/next"}, expect: transport.Redirect},
		{name: "server error", resp: &transport.Response{Status: 500}, expect: transport.Failure},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, transport.Classify(tc.resp))
		})
	}
}

func TestEnvelope(t *testing.T) {
	resp := &transport.Response{Status: 200, Body: []byte(`<success>
  <message>Done</message>
  <payload><p class="row">New <b>row</b></p></payload>
  <forward command="reset">editor</forward>
</success>`)}
	env, err := resp.Envelope()
	require.NoError(t, err)
	require.Equal(t, "success", env.Kind)
	require.Equal(t, "Done", env.Message)
	require.Equal(t, `<p class="row">New <b>row</b></p>`, env.Payload)
	require.Equal(t, &transport.Forward{Command: "reset", Target: "editor"}, env.Forward)

	resp = &transport.Response{Status: 200, Body: []byte(`{"message":"Ok","payload":"<li>x</li>","forward":{"command":"trigger","target":"list"}}`)}
	env, err = resp.Envelope()
	require.NoError(t, err)
	require.Equal(t, "success", env.Kind)
	require.Equal(t, "<li>x</li>", env.Payload)
	require.Equal(t, "trigger", env.Forward.Command)

	_, err = (&transport.Response{Status: 200, Body: []byte("plain text")}).Envelope()
	require.ErrorIs(t, err, transport.ErrNoEnvelope)
}

func TestDecodeError_Chain(t *testing.T) {
	cases := []struct {
		name     string
		resp     *transport.Response
		message  string
		redirect string
	}{
		{
			name:     "redirect wins",
			resp:     &transport.Response{Status: 409, Location: "/login", Body: []byte(`<error><message>x</message></error>`)},
			message:  "redirected to /login",
			redirect: "/login",
		},
		{
			name:    "xml envelope",
			resp:    &transport.Response{Status: 400, Body: []byte(`<error><message>Title is missing</message></error>`)},
			message: "Title is missing",
		},
		{
			name:    "json envelope",
			resp:    &transport.Response{Status: 422, Body: []byte(`{"error":{"message":"Bad date"}}`)},
			message: "Bad date",
		},
		{
			name:    "html page",
			resp:    &transport.Response{Status: 500, Body: []byte(`<html><head><title>Oops</title></head><body><h1>Internal  Error</h1><p>trace</p></body></html>`)},
			message: "Internal Error",
		},
		{
			name:    "html body text",
			resp:    &transport.Response{Status: 500, Body: []byte(`<html><body><script>var x;</script><div>Database <em>unavailable</em></div></body></html>`)},
			message: "Database unavailable",
		},
		{
			name:    "fallback",
			resp:    &transport.Response{Status: 503},
			message: "503 Service Unavailable",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := transport.DecodeError(tc.resp, nil)
			require.Equal(t, tc.message, got.Message)
			require.Equal(t, tc.redirect, got.Redirect)
			require.Equal(t, tc.resp.Status, got.StatusCode())
		})
	}
}

func TestFetch_TimeoutIsReported(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := transport.New(transport.WithTimeout(20 * time.Millisecond))
	_, err := client.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	decoded := transport.DecodeError(nil, err)
	require.True(t, decoded.Timeout())
	require.Equal(t, 0, decoded.StatusCode())
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := transport.New().Fetch(context.Background(), srv.URL+"/t.xml")
	var te *transport.Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusNotFound, te.Status)
}

func TestSubmit_BaseURLResolvesRelativeTargets(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client := transport.New(transport.WithBaseURL(srv.URL + "/app/page.html"))
	ctx := context.Background()

	_, err := client.Fetch(ctx, "/forms/a.xml")
	require.NoError(t, err)
	_, err = client.Fetch(ctx, "data/b.xml?id=1")
	require.NoError(t, err)
	_, err = client.Fetch(ctx, srv.URL+"/abs")
	require.NoError(t, err)

	require.Equal(t, []string{"/forms/a.xml", "/app/data/b.xml?id=1", "/abs"}, paths)
}

func TestSetBaseURL_AppliesToLaterRequests(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client := transport.New()
	client.SetBaseURL("relative/page.html")
	client.SetBaseURL(srv.URL + "/site/index.html")

	_, err := client.Fetch(context.Background(), "forms/c.xml")
	require.NoError(t, err)
	require.Equal(t, []string{"/site/forms/c.xml"}, paths)
}
