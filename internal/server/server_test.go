package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"annual-report-analyzer/internal/types"
)

type stubPipeline struct {
	res   *types.RunResult
	err   error
	block   chan struct{}
	started chan struct{}
}

func (p *stubPipeline) Run(context.Context) (*types.RunResult, error) {
	if p.started != nil {
		close(p.started)
	}
	if p.block != nil {
		<-p.block
	}
	return p.res, p.err
}

func TestHealth(t *testing.T) {
	srv := New(":0", &stubPipeline{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestProcess(t *testing.T) {
	run := &types.RunResult{
		RunID:      "run-42",
		Discovered: 3,
		Succeeded:  1,
		Records: []*types.AnalysisRecord{{
			Extracted: types.ExtractedSections{SourceURL: "https://example.com/a.pdf"},
			Sentiment: map[string]types.SentimentResult{types.SectionMDA: types.NeutralSentiment()},
			Actions:   map[string]types.ActionLabel{types.SectionMDA: types.ActionSell},
		}},
	}
	srv := New(":0", &stubPipeline{res: run})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Results []struct {
			PDFURL          string            `json:"pdf_url"`
			BuySellAnalysis map[string]string `json:"buy_sell_analysis"`
		} `json:"results"`
		Discovered int    `json:"discovered"`
		Succeeded  int    `json:"succeeded"`
		RunID      string `json:"run_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RunID != "run-42" || body.Discovered != 3 || body.Succeeded != 1 {
		t.Errorf("Unexpected summary %+v", body)
	}
	if len(body.Results) != 1 || body.Results[0].PDFURL != "https://example.com/a.pdf" || body.Results[0].BuySellAnalysis["MD&A"] != "Sell" {
		t.Errorf("Unexpected results %+v", body.Results)
	}
}

func TestProcessRunError(t *testing.T) {
	srv := New(":0", &stubPipeline{err: errors.New("discovery failed: listing region not found")})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}

func TestProcessRejectsConcurrentRun(t *testing.T) {
	p := &stubPipeline{res: &types.RunResult{}, block: make(chan struct{}), started: make(chan struct{})}
	srv := New(":0", p)

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))
		done <- rec.Code
	}()

	<-p.started

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", rec.Code)
	}

	close(p.block)
	if code := <-done; code != http.StatusOK {
		t.Errorf("Expected first run to succeed, got %d", code)
	}
}

func TestProcessMethodNotAllowed(t *testing.T) {
	srv := New(":0", &stubPipeline{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}
