package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matt-g-everett/ledmagnet/stream"
)

// Animation is the spring state reported by /api/state.
type Animation interface {
	Values() map[string]float64
	Running() bool
}

// FrameCounter reports how many frames have been streamed.
type FrameCounter interface {
	Frames() uint64
}

// PointerSink accepts pointer messages.
type PointerSink interface {
	Apply(msg stream.PointerMessage)
}

// State is the body of GET /api/state.
type State struct {
	Values  map[string]float64 `json:"values"`
	Running bool               `json:"running"`
	Frames  uint64             `json:"frames"`
}

type Api struct {
	server    *http.Server
	animation Animation
	frames    FrameCounter
	pointer   PointerSink
	logger    *zap.Logger
}

// NewApi creates an Api listening on addr and serving static files from dir.
func NewApi(addr, dir string, animation Animation, frames FrameCounter, pointer PointerSink,
	logger *zap.Logger) *Api {

	if logger == nil {
		logger = zap.NewNop()
	}

	a := new(Api)
	a.animation = animation
	a.frames = frames
	a.pointer = pointer
	a.logger = logger

	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/pointer", a.handlePointer)
	mux.Handle("/", http.FileServer(http.Dir(dir)))

	a.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a
}

// Handler returns the routes, for mounting elsewhere or testing.
func (a *Api) Handler() http.Handler {
	return a.server.Handler
}

func (a *Api) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := State{
		Values:  a.animation.Values(),
		Running: a.animation.Running(),
		Frames:  a.frames.Frames(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		a.logger.Warn("writing state", zap.Error(err))
	}
}

func (a *Api) handlePointer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := stream.ParsePointerMessage(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.pointer.Apply(msg)
	w.WriteHeader(http.StatusNoContent)
}

// Serve listens until ctx is done, then shuts down gracefully.
func (a *Api) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", a.server.Addr))
		errc <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", a.server.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
