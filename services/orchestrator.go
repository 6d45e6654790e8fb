package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vidfetch-go/config"
	"vidfetch-go/models"
	"vidfetch-go/utils"

	"github.com/jaevor/go-nanoid"
)

var newAttemptID func() string

func init() {
	id, err := nanoid.Standard(config.AttemptIDLength)
	if err != nil {
		panic(err)
	}
	newAttemptID = id
}

// Saver persists an in-memory payload under a filename. SaveAs may return a
// release func for any transient handle it created; the orchestrator invokes
// it after a short grace delay so the save action has finished consuming the
// handle first.
type Saver interface {
	SaveAs(filename string, payload []byte) (release func(), err error)
}

// DiskSaver writes payloads into Dir, tmp-then-rename so a failed write
// never leaves a partial file under the final name
type DiskSaver struct {
	Dir string
}

func (d *DiskSaver) SaveAs(filename string, payload []byte) (func(), error) {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return nil, err
	}

	finalPath := filepath.Join(d.Dir, filename)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, payload, 0644); err != nil {
		return nil, err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	return nil, nil
}

// DownloadContext carries the source URL and display title for a download
type DownloadContext struct {
	SourceURL string
	Title     string
}

// TaskUpdate is delivered to the observation callback on every state
// transition of a task, including the final reset to Idle.
type TaskUpdate struct {
	AttemptID string
	Key       models.FormatKey
	Variant   models.FormatVariant
	State     models.TaskState
	Filename  string
	Err       error
}

// taskEntry is a registry slot: the current state plus the attempt that
// owns it. The owner check keeps a finished attempt's reset from stomping
// a newer attempt that took the key over during the transient settle
// window.
type taskEntry struct {
	state   models.TaskState
	attempt string
}

// Orchestrator drives per-variant downloads. The registry maps identity
// keys to task states and is the only shared mutable state; downloads for
// distinct keys run concurrently without any pool limit, while a second
// initiation for an in-flight key is a no-op.
type Orchestrator struct {
	Client     *http.Client
	Endpoint   string
	Timeout    time.Duration
	GraceDelay time.Duration
	Saver      Saver

	mu       sync.Mutex
	registry map[models.FormatKey]taskEntry
	onUpdate func(TaskUpdate)
}

// NewOrchestrator returns an orchestrator wired to the configured download
// endpoint, saving payloads into the download directory
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		Client:     config.DownloadClient,
		Endpoint:   config.DownloadEndpoint,
		Timeout:    config.DownloadTimeout,
		GraceDelay: config.ReleaseGrace,
		Saver:      &DiskSaver{Dir: config.DownloadDir},
		registry:   make(map[models.FormatKey]taskEntry),
	}
}

// SetUpdateCallback sets the callback invoked on task state transitions
func (o *Orchestrator) SetUpdateCallback(fn func(TaskUpdate)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onUpdate = fn
}

// State returns the registry state for an identity key; Idle when the key
// has never been seen
func (o *Orchestrator) State(key models.FormatKey) models.TaskState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if entry, ok := o.registry[key]; ok {
		return entry.state
	}
	return models.TaskIdle
}

// Initiate starts a download for the variant unless one is already in
// flight for the same identity key, in which case it returns false without
// issuing a request. The download itself runs asynchronously; failures are
// classified and reported through the update callback, never raised to the
// caller.
func (o *Orchestrator) Initiate(variant models.FormatVariant, dctx DownloadContext) bool {
	key := variant.Key()
	attemptID := newAttemptID()

	o.mu.Lock()
	if o.registry[key].state == models.TaskInFlight {
		o.mu.Unlock()
		return false
	}
	o.registry[key] = taskEntry{state: models.TaskInFlight, attempt: attemptID}
	o.mu.Unlock()

	o.notify(TaskUpdate{AttemptID: attemptID, Key: key, Variant: variant, State: models.TaskInFlight})

	go o.run(attemptID, key, variant, dctx)
	return true
}

func (o *Orchestrator) run(attemptID string, key models.FormatKey, variant models.FormatVariant, dctx DownloadContext) {
	// Whatever happens, the key must come back to rest at Idle. The reset
	// is owner-checked: a new attempt may legally take the key over during
	// the transient Completed/Failed window, and this attempt must not
	// stomp it back to Idle while the newer request is outstanding.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Task %s] Panic: %v\n", attemptID, r)
			derr := ClassifyDownload(fmt.Errorf("%v", r))
			o.setState(key, models.TaskFailed, attemptID)
			o.notify(TaskUpdate{AttemptID: attemptID, Key: key, Variant: variant, State: models.TaskFailed, Err: derr})
		}
		if o.clear(key, attemptID) {
			o.notify(TaskUpdate{AttemptID: attemptID, Key: key, Variant: variant, State: models.TaskIdle})
		}
	}()

	filename, err := o.download(variant, dctx)
	if err != nil {
		derr := ClassifyDownload(err)
		log.Printf("[Task %s] %v\n", attemptID, derr)
		o.setState(key, models.TaskFailed, attemptID)
		o.notify(TaskUpdate{AttemptID: attemptID, Key: key, Variant: variant, State: models.TaskFailed, Err: derr})
		return
	}

	log.Printf("[Task %s] Saved %s\n", attemptID, filename)
	o.setState(key, models.TaskCompleted, attemptID)
	o.notify(TaskUpdate{AttemptID: attemptID, Key: key, Variant: variant, State: models.TaskCompleted, Filename: filename})
}

// download issues the request under the 120s deadline, validates the
// payload, and triggers the save-as action. The deadline context covers the
// body read as well, so an expiry mid-transfer cancels the transfer and no
// partial file is produced.
func (o *Orchestrator) download(variant models.FormatVariant, dctx DownloadContext) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", o.Endpoint, nil)
	if err != nil {
		return "", err
	}

	q := req.URL.Query()
	q.Set("url", dctx.SourceURL)
	q.Set("format_id", variant.FormatID) // empty string when none assigned
	q.Set("title", dctx.Title)
	q.Set("type", string(variant.Type))
	req.URL.RawQuery = q.Encode()

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DownloadError{Kind: DownloadHTTPError, Status: resp.StatusCode}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", &DownloadError{Kind: DownloadEmptyPayload}
	}

	filename := utils.OutputFilename(dctx.Title, variant.Type)

	release, err := o.Saver.SaveAs(filename, payload)
	if err != nil {
		return "", err
	}
	if release != nil {
		delay := o.GraceDelay
		if delay <= 0 {
			release()
		} else {
			time.AfterFunc(delay, release)
		}
	}

	return filename, nil
}

// setState records a transition for the attempt, unless the attempt has
// lost ownership of the key
func (o *Orchestrator) setState(key models.FormatKey, state models.TaskState, attemptID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.registry[key].attempt != attemptID {
		return
	}
	o.registry[key] = taskEntry{state: state, attempt: attemptID}
}

// clear resets the key to Idle and reports whether it did; it leaves the
// entry alone when another attempt owns it
func (o *Orchestrator) clear(key models.FormatKey, attemptID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.registry[key].attempt != attemptID {
		return false
	}
	o.registry[key] = taskEntry{state: models.TaskIdle}
	return true
}

func (o *Orchestrator) notify(update TaskUpdate) {
	o.mu.Lock()
	fn := o.onUpdate
	o.mu.Unlock()
	if fn != nil {
		fn(update)
	}
}
