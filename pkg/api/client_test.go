package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ptscope/ptscope/pkg/model"
)

func TestClient_ListTrials(t *testing.T) {
	var gotQuery url.Values
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/trials" {
			t.Errorf("path = %q, want /api/trials", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"id":"NCT1","sponsor":"Novarex","pts":85.5,"status":"active"},
			{"id":"NCT2","sponsor":"Biomed","pts":20.1,"status":"recruiting"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	q := url.Values{}
	q.Set("sort", "pts")
	q.Set("order", "desc")
	q.Set("filter[therapeuticArea]", "Oncology")

	trials, err := c.ListTrials(context.Background(), q)
	if err != nil {
		t.Fatalf("ListTrials: %v", err)
	}
	if len(trials) != 2 || trials[0].ID != "NCT1" || trials[1].PTS != 20.1 {
		t.Errorf("unexpected trials: %+v", trials)
	}
	if gotQuery.Get("filter[therapeuticArea]") != "Oncology" {
		t.Errorf("query not forwarded: %v", gotQuery)
	}
	if !strings.HasPrefix(gotUA, "ptscope/") {
		t.Errorf("User-Agent = %q, want ptscope/ prefix", gotUA)
	}
}

func TestClient_ListTrials_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"database unavailable"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	_, err := c.ListTrials(context.Background(), nil)
	if err == nil {
		t.Fatalf("expected error for 500 response")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", reqErr.StatusCode)
	}
	if reqErr.Message != "database unavailable" {
		t.Errorf("Message = %q, want server-sent reason", reqErr.Message)
	}
}

func TestClient_ListTrials_EnvelopeFailure(t *testing.T) {
	// success=false with HTTP 200 still counts as a request failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"unknown sort field"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	_, err := c.ListTrials(context.Background(), nil)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if reqErr.Message != "unknown sort field" {
		t.Errorf("Message = %q", reqErr.Message)
	}
}

func TestClient_Explanation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/trials/NCT42/shap" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"trial not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"trialId":"NCT42","baseValue":52.0,"predictedPTS":74.5,
			"features":[{"feature":"enrollment","contribution":22.5}]
		}}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	exp, err := c.Explanation(context.Background(), "NCT42")
	if err != nil {
		t.Fatalf("Explanation: %v", err)
	}
	if exp.TrialID != "NCT42" || len(exp.Features) != 1 {
		t.Errorf("unexpected explanation: %+v", exp)
	}

	_, err = c.Explanation(context.Background(), "MISSING")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusNotFound {
		t.Errorf("missing trial error = %v, want 404 RequestError", err)
	}

	if _, err := c.Explanation(context.Background(), ""); err == nil {
		t.Errorf("empty id should fail before hitting the network")
	}
}

func TestClient_Analytics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/trials/analytics" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"summary":{"totalTrials":120,"averagePTS":55.4,"highRiskTrials":30,"lowRiskTrials":40},
			"ptsDistribution":[{"range":"0-20","count":10}],
			"bySponsor":[{"sponsor":"Novarex","trials":12,"avgPTS":60.2,"successRate":0.5}],
			"byTherapeuticArea":[{"area":"Oncology","trials":50,"avgPTS":48.7}]
		}}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	snap, err := c.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if snap.Summary.TotalTrials != 120 || len(snap.BySponsor) != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("got %s %s, want POST /api/chat", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body.Message != "top oncology trials" {
			t.Errorf("message = %q", body.Message)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"type":"table","title":"Top trials",
			"columns":["ID","PTS"],"rows":[["NCT1","85.5"]]
		}}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	resp, err := c.Chat(context.Background(), "top oncology trials")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Kind != model.KindTable || len(resp.Rows) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_Chat_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL)
	_, err := c.Chat(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		t.Errorf("transport failures must not masquerade as server errors: %v", err)
	}
}

func TestRequestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  RequestError
		want string
	}{
		{"WithMessage", RequestError{StatusCode: 404, Message: "trial not found"}, "api: trial not found (status 404)"},
		{"StatusOnly", RequestError{StatusCode: 502}, "api: request failed with status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
