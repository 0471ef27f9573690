package httpjson

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vshulcz/Perfwatch/internal/adapters/transport/gzjson"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/misc"
)

func decodeBatch(t *testing.T, r *http.Request) ([]domain.EventEnvelope, []byte) {
	t.Helper()
	gr, err := gzip.NewReader(r.Body)
	if err != nil {
		t.Errorf("request body not gzipped: %v", err)
		return nil, nil
	}
	defer func() {
		_ = gr.Close()
	}()
	raw, err := io.ReadAll(gr)
	if err != nil {
		t.Errorf("read: %v", err)
		return nil, nil
	}
	var items []domain.EventEnvelope
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Errorf("bad json: %v; body=%q", err, raw)
	}
	return items, raw
}

func TestSendEvents_VariousResponses(t *testing.T) {
	batch := []domain.EventEnvelope{
		{Type: domain.KindMemory, UsageMB: 128.5, TS: 1000},
		{Type: domain.KindRebuild, Key: "Header", TS: 1001},
	}

	tests := []struct {
		name    string
		reply   func(w http.ResponseWriter)
		wantErr string
	}{
		{
			name: "all_accepted",
			reply: func(w http.ResponseWriter) {
				_, _ = fmt.Fprint(w, `{"accepted":2}`)
			},
		},
		{
			name: "partially_accepted",
			reply: func(w http.ResponseWriter) {
				_, _ = fmt.Fprint(w, `{"accepted":1}`)
			},
			wantErr: "accepted 1 of 2",
		},
		{
			name: "status_400",
			reply: func(w http.ResponseWriter) {
				http.Error(w, "bad", http.StatusBadRequest)
			},
			wantErr: "400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []domain.EventEnvelope
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != eventsPath {
					t.Errorf("%s %s, want POST %s", r.Method, r.URL.Path, eventsPath)
				}
				if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
					t.Errorf("Content-Type=%q", ct)
				}
				got, _ = decodeBatch(t, r)
				tt.reply(w)
			}))
			defer srv.Close()

			c, err := New(srv.URL, &http.Client{Timeout: 2 * time.Second}, "", gzjson.WithBackoff(nil))
			if err != nil {
				t.Fatal(err)
			}
			err = c.SendEvents(context.Background(), batch)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err=%v want contains %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SendEvents: %v", err)
			}
			if len(got) != 2 || got[0].UsageMB != 128.5 || got[1].Key != "Header" {
				t.Fatalf("server got %+v", got)
			}
		})
	}
}

func TestSendEvents_EmptyBatchIsNoop(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, nil, "")
	if err := c.SendEvents(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 0 {
		t.Fatalf("server called %d times", calls.Load())
	}
}

func TestSendEvents_HashHeader(t *testing.T) {
	const key = "k3y"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items, raw := decodeBatch(t, r)
		if want := misc.SumSHA256(raw, key); r.Header.Get(gzjson.HashHeader) != want {
			t.Errorf("hash=%q want %q", r.Header.Get(gzjson.HashHeader), want)
		}
		_, _ = fmt.Fprintf(w, `{"accepted":%d}`, len(items))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, nil, key)
	if err := c.SendEvents(context.Background(), []domain.EventEnvelope{{Type: domain.KindFrame, TotalMs: 20}}); err != nil {
		t.Fatal(err)
	}
}

func TestSendEvents_RetryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		items, _ := decodeBatch(t, r)
		_, _ = fmt.Fprintf(w, `{"accepted":%d}`, len(items))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, nil, "", gzjson.WithBackoff([]time.Duration{time.Millisecond}))
	if err := c.SendEvents(context.Background(), []domain.EventEnvelope{{Type: domain.KindMemory, UsageMB: 1}}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls=%d want 2", calls.Load())
	}
}

func TestSendEvents_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, nil, "", gzjson.WithBackoff(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.SendEvents(ctx, []domain.EventEnvelope{{Type: domain.KindMemory, UsageMB: 1}}); err == nil {
		t.Fatal("expected error on canceled context")
	}
}
