package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vidfetch-go/models"
)

type fakeSaver struct {
	mu       sync.Mutex
	filename string
	payload  []byte
	calls    int
	released atomic.Bool
}

func (f *fakeSaver) SaveAs(filename string, payload []byte) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filename = filename
	f.payload = payload
	f.calls++
	return func() { f.released.Store(true) }, nil
}

func (f *fakeSaver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestOrchestrator(endpoint string, saver Saver, timeout time.Duration) (*Orchestrator, chan TaskUpdate) {
	o := &Orchestrator{
		Client:     http.DefaultClient,
		Endpoint:   endpoint,
		Timeout:    timeout,
		GraceDelay: 10 * time.Millisecond,
		Saver:      saver,
		registry:   make(map[models.FormatKey]taskEntry),
	}

	updates := make(chan TaskUpdate, 16)
	o.SetUpdateCallback(func(u TaskUpdate) { updates <- u })
	return o, updates
}

func waitForState(t *testing.T, updates chan TaskUpdate, state models.TaskState) TaskUpdate {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.State == state {
				return u
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for state %s", state)
		}
	}
}

func TestInitiate_Success(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte("payload-bytes"))
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 5*time.Second)

	variant := models.FormatVariant{FormatID: "137", Type: models.MediaTypeVideo, Ext: "mp4", Height: 1080}
	started := o.Initiate(variant, DownloadContext{
		SourceURL: "https://example.com/watch?v=abc",
		Title:     "My Video",
	})
	if !started {
		t.Fatal("Expected download to start")
	}

	done := waitForState(t, updates, models.TaskCompleted)
	if done.Filename != "My_Video.mp4" {
		t.Errorf("Expected filename 'My_Video.mp4', got '%s'", done.Filename)
	}

	waitForState(t, updates, models.TaskIdle)

	if o.State(variant.Key()) != models.TaskIdle {
		t.Errorf("Expected registry to rest at Idle, got %s", o.State(variant.Key()))
	}

	q := gotQuery.Load().(url.Values)
	if q.Get("url") != "https://example.com/watch?v=abc" {
		t.Errorf("Unexpected url param: %v", q.Get("url"))
	}
	if q.Get("format_id") != "137" {
		t.Errorf("Unexpected format_id param: %v", q.Get("format_id"))
	}
	if q.Get("title") != "My Video" {
		t.Errorf("Unexpected title param: %v", q.Get("title"))
	}
	if q.Get("type") != "video" {
		t.Errorf("Unexpected type param: %v", q.Get("type"))
	}

	if saver.callCount() != 1 {
		t.Errorf("Expected exactly one save, got %d", saver.callCount())
	}
	if string(saver.payload) != "payload-bytes" {
		t.Errorf("Unexpected payload: %q", saver.payload)
	}
}

func TestInitiate_AudioFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 5*time.Second)

	variant := models.FormatVariant{FormatID: "140", Type: models.MediaTypeAudio, Ext: "m4a"}
	o.Initiate(variant, DownloadContext{SourceURL: "https://example.com/watch?v=x"})

	done := waitForState(t, updates, models.TaskCompleted)
	if done.Filename != "video.mp3" {
		t.Errorf("Expected fallback filename 'video.mp3', got '%s'", done.Filename)
	}
}

func TestInitiate_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 5*time.Second)

	variant := models.FormatVariant{FormatID: "137", Type: models.MediaTypeVideo, Ext: "mp4"}
	o.Initiate(variant, DownloadContext{SourceURL: "https://example.com/watch?v=x", Title: "Empty"})

	failed := waitForState(t, updates, models.TaskFailed)

	var de *DownloadError
	if !errors.As(failed.Err, &de) || de.Kind != DownloadEmptyPayload {
		t.Errorf("Expected DownloadEmptyPayload, got %v", failed.Err)
	}

	waitForState(t, updates, models.TaskIdle)
	if o.State(variant.Key()) != models.TaskIdle {
		t.Error("Expected task to return to Idle")
	}

	if saver.callCount() != 0 {
		t.Errorf("Expected no save for empty payload, got %d saves", saver.callCount())
	}
}

func TestInitiate_DuplicateInFlight(t *testing.T) {
	var requests atomic.Int32
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-block
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 5*time.Second)

	variant := models.FormatVariant{FormatID: "22", Type: models.MediaTypeVideo, Ext: "mp4"}
	dctx := DownloadContext{SourceURL: "https://example.com/watch?v=x", Title: "Dup"}

	if !o.Initiate(variant, dctx) {
		t.Fatal("Expected first initiation to start")
	}
	waitForState(t, updates, models.TaskInFlight)

	if o.Initiate(variant, dctx) {
		t.Error("Expected second initiation to be a no-op")
	}

	// A different key is not blocked by the first task
	other := models.FormatVariant{FormatID: "140", Type: models.MediaTypeAudio, Ext: "m4a"}
	if !o.Initiate(other, dctx) {
		t.Error("Expected a distinct variant to start concurrently")
	}

	close(block)
	waitForState(t, updates, models.TaskIdle)

	// Allow the pending request count to settle
	time.Sleep(50 * time.Millisecond)
	if n := requests.Load(); n != 2 {
		t.Errorf("Expected 2 network requests (one per distinct key), got %d", n)
	}
}

func TestInitiate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("too late"))
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 50*time.Millisecond)

	variant := models.FormatVariant{FormatID: "137", Type: models.MediaTypeVideo, Ext: "mp4"}
	o.Initiate(variant, DownloadContext{SourceURL: "https://example.com/watch?v=x", Title: "Slow"})

	failed := waitForState(t, updates, models.TaskFailed)

	var de *DownloadError
	if !errors.As(failed.Err, &de) || de.Kind != DownloadTimeout {
		t.Errorf("Expected DownloadTimeout, got %v", failed.Err)
	}

	waitForState(t, updates, models.TaskIdle)
	if o.State(variant.Key()) != models.TaskIdle {
		t.Error("Expected task to return to Idle after timeout")
	}
	if saver.callCount() != 0 {
		t.Error("Expected no partial file on timeout")
	}
}

func TestInitiate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 5*time.Second)

	variant := models.FormatVariant{FormatID: "137", Type: models.MediaTypeVideo, Ext: "mp4"}
	o.Initiate(variant, DownloadContext{SourceURL: "https://example.com/watch?v=x", Title: "Busy"})

	failed := waitForState(t, updates, models.TaskFailed)

	var de *DownloadError
	if !errors.As(failed.Err, &de) || de.Kind != DownloadHTTPError {
		t.Fatalf("Expected DownloadHTTPError, got %v", failed.Err)
	}
	if de.Status != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", de.Status)
	}
}

func TestInitiate_ReleaseAfterGrace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 5*time.Second)

	variant := models.FormatVariant{FormatID: "18", Type: models.MediaTypeVideo, Ext: "mp4"}
	o.Initiate(variant, DownloadContext{SourceURL: "https://example.com/watch?v=x", Title: "Grace"})

	waitForState(t, updates, models.TaskCompleted)

	if saver.released.Load() {
		t.Error("Expected release to be deferred past the save")
	}

	deadline := time.After(2 * time.Second)
	for !saver.released.Load() {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for release")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestInitiate_ReinitiateDuringSettleWindow(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	saver := &fakeSaver{}
	o, updates := newTestOrchestrator(srv.URL, saver, 5*time.Second)

	variant := models.FormatVariant{FormatID: "137", Type: models.MediaTypeVideo, Ext: "mp4"}
	dctx := DownloadContext{SourceURL: "https://example.com/watch?v=x", Title: "Again"}

	// Re-initiate for the same key from the observation callback, in the
	// transient window between settle and the reset to Idle. The new
	// attempt takes the key over; the finished attempt's reset must not
	// free the key underneath it.
	var reinitiated atomic.Bool
	o.SetUpdateCallback(func(u TaskUpdate) {
		if u.State == models.TaskCompleted && reinitiated.CompareAndSwap(false, true) {
			if !o.Initiate(variant, dctx) {
				t.Error("Expected re-initiation in the settle window to start")
			}
			if o.Initiate(variant, dctx) {
				t.Error("Expected initiation to be a no-op while the re-initiated attempt is in flight")
			}
		}
		updates <- u
	})

	if !o.Initiate(variant, dctx) {
		t.Fatal("Expected first initiation to start")
	}

	waitForState(t, updates, models.TaskIdle)

	if n := maxInFlight.Load(); n != 1 {
		t.Errorf("Expected at most 1 request in flight per key, got %d", n)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("Expected 2 sequential requests, got %d", n)
	}
	if o.State(variant.Key()) != models.TaskIdle {
		t.Errorf("Expected key to rest at Idle, got %s", o.State(variant.Key()))
	}
}

type panicSaver struct{}

func (panicSaver) SaveAs(string, []byte) (func(), error) {
	panic("saver blew up")
}

func TestInitiate_PanicReportsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	o, updates := newTestOrchestrator(srv.URL, panicSaver{}, 5*time.Second)

	variant := models.FormatVariant{FormatID: "137", Type: models.MediaTypeVideo, Ext: "mp4"}
	o.Initiate(variant, DownloadContext{SourceURL: "https://example.com/watch?v=x", Title: "Boom"})

	failed := waitForState(t, updates, models.TaskFailed)

	var de *DownloadError
	if !errors.As(failed.Err, &de) || de.Kind != DownloadGeneric {
		t.Errorf("Expected classified DownloadGeneric from recovered panic, got %v", failed.Err)
	}

	waitForState(t, updates, models.TaskIdle)
	if o.State(variant.Key()) != models.TaskIdle {
		t.Error("Expected task to return to Idle after panic")
	}
}

func TestDiskSaver_SaveAs(t *testing.T) {
	dir := t.TempDir()
	saver := &DiskSaver{Dir: dir}

	release, err := saver.SaveAs("clip.mp4", []byte("bytes"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if release != nil {
		release()
	}

	data, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	if err != nil {
		t.Fatalf("Expected saved file, got %v", err)
	}
	if string(data) != "bytes" {
		t.Errorf("Unexpected file content: %q", data)
	}

	// No tmp leftovers under the final name scheme
	if _, err := os.Stat(filepath.Join(dir, "clip.mp4.tmp")); !os.IsNotExist(err) {
		t.Error("Expected tmp file to be gone after rename")
	}
}

func TestState_UnknownKeyIsIdle(t *testing.T) {
	o, _ := newTestOrchestrator("http://127.0.0.1:0", &fakeSaver{}, time.Second)

	key := models.FormatKey{ID: "never-seen"}
	if o.State(key) != models.TaskIdle {
		t.Errorf("Expected Idle for unknown key, got %s", o.State(key))
	}
}
