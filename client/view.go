package client

import (
	"time"
)

// SlowLoadThreshold is how long the view stays in plain Loading before the
// "taking longer than usual" hint appears. Purely presentational; the
// fetcher's own timeout is independent.
const SlowLoadThreshold = 5 * time.Second

// LoadFailureCauses is the static checklist shown alongside a load error.
var LoadFailureCauses = []string{
	"the signature is invalid or incomplete",
	"the transaction has not been confirmed yet",
	"the transaction was processed on a different cluster",
	"the RPC node is behind or rate limiting requests",
}

// Phase is the coarse render state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseSuccess
)

// ViewState is everything a renderer needs to draw the transaction view.
type ViewState struct {
	Phase Phase

	// Loading
	Slow bool

	// Error
	Message string
	Causes  []string

	// Success
	Record *TransactionRecord
}

// Renderer draws a successfully loaded transaction. Which concrete
// visualization is wired in, and how its load failures degrade, is the
// embedding's concern.
type Renderer interface {
	Render(record *TransactionRecord)
}

// View derives render state from a coordinator and exposes the
// select-transaction callback that child visualizations invoke.
type View struct {
	coord    *Coordinator
	renderer Renderer
	now      func() time.Time
}

// NewView attaches a view to a coordinator. The renderer may be nil; the
// embedding can also poll State and draw itself. The view chains onto the
// coordinator's OnChange hook, preserving any existing subscriber.
func NewView(coord *Coordinator, renderer Renderer) *View {
	v := &View{
		coord:    coord,
		renderer: renderer,
		now:      time.Now,
	}
	prev := coord.OnChange
	coord.OnChange = func(snap Snapshot) {
		if snap.State == StateSuccess && v.renderer != nil {
			v.renderer.Render(snap.Record)
		}
		if prev != nil {
			prev(snap)
		}
	}
	return v
}

// State derives the current render state. Idle is reported as Loading: the
// view only exists once a signature is on its way in.
func (v *View) State() ViewState {
	snap := v.coord.Snapshot()
	switch snap.State {
	case StateSuccess:
		return ViewState{Phase: PhaseSuccess, Record: snap.Record}
	case StateFailed:
		message := ""
		if snap.Err != nil {
			message = snap.Err.Error()
		}
		return ViewState{Phase: PhaseError, Message: message, Causes: LoadFailureCauses}
	case StateLoading:
		return ViewState{
			Phase: PhaseLoading,
			Slow:  v.now().Sub(snap.LoadingSince) >= SlowLoadThreshold,
		}
	default:
		return ViewState{Phase: PhaseLoading}
	}
}

// SelectTransaction is the callback wired to child visualizations.
func (v *View) SelectTransaction(signature string) {
	v.coord.SelectTransaction(signature)
}

// Retry re-runs the whole flow for the current signature, bypassing the
// session cache. There is no automatic retry or backoff anywhere in the
// controller; this manual action is the only path out of an error state.
func (v *View) Retry() {
	v.coord.Reload()
}
