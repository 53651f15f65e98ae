package convert

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/felixgeelhaar/statekit"

	"github.com/a3tai/pdf2docx/internal/logging"
)

// State is a conversion pipeline state.
type State string

const (
	StateExtracting     State = "extracting"
	StateAllTextPresent State = "all_text_present"
	StateScannedFound   State = "scanned_pages_found"
	StateAwaitingChoice State = "awaiting_user_choice"
	StateRunningOCR     State = "running_ocr"
	StateSynthesizing   State = "synthesizing"
	StateAssembling     State = "assembling"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

const machineID = "conversion"

const (
	evTextPresent  statekit.EventType = "TEXT_PRESENT"
	evScannedFound statekit.EventType = "SCANNED_FOUND"
	evAwaitChoice  statekit.EventType = "AWAIT_CHOICE"
	evChooseImage  statekit.EventType = "CHOOSE_IMAGE"
	evChooseOCR    statekit.EventType = "CHOOSE_OCR"
	evSynthesize   statekit.EventType = "SYNTHESIZE"
	evAssemble     statekit.EventType = "ASSEMBLE"
	evComplete     statekit.EventType = "COMPLETE"
	evFail         statekit.EventType = "FAIL"
)

func sid(s State) statekit.StateID {
	return statekit.StateID(s)
}

// run is the machine context: everything one conversion accumulates.
type run struct {
	pages           []ExtractedPage
	method          Method
	warnings        []Warning
	imagesExtracted int
	events          []statekit.EventType
	logger          *bolt.Logger
}

func (r *run) scannedCount() int {
	n := 0
	for _, p := range r.pages {
		if !p.HasText {
			n++
		}
	}
	return n
}

func (r *run) warn(w Warning) {
	r.warnings = append(r.warnings, w)
	logging.With(r.logger.Warn()).
		Add(logging.Page(w.Page)).
		Add(logging.Warning(string(w.Kind), w.Message)).
		Msg("conversion warning")
}

func enterState(r **run, e statekit.Event) {
	if r == nil || *r == nil || (*r).logger == nil {
		return
	}
	logging.With((*r).logger.Debug()).
		Add(logging.Str("event", string(e.Type))).
		Msg("state entered")
}

func recordEvent(r **run, e statekit.Event) {
	if r == nil || *r == nil {
		return
	}
	(*r).events = append((*r).events, e.Type)
}

func allPagesHaveText(r *run, _ statekit.Event) bool {
	return r != nil && r.scannedCount() == 0
}

func scannedPagesPresent(r *run, _ statekit.Event) bool {
	return r != nil && r.scannedCount() > 0
}

// newMachine builds the conversion statechart.
func newMachine() (*statekit.MachineConfig[*run], error) {
	return statekit.NewMachine[*run](machineID).
		WithInitial(sid(StateExtracting)).
		WithContext(&run{}).
		WithAction("enter", enterState).
		WithAction("record", recordEvent).
		WithGuard("allPagesHaveText", allPagesHaveText).
		WithGuard("scannedPagesPresent", scannedPagesPresent).
		State(sid(StateExtracting)).
			OnEntry("enter").
			On(evTextPresent).Target(sid(StateAllTextPresent)).Guard("allPagesHaveText").Do("record").
			On(evScannedFound).Target(sid(StateScannedFound)).Guard("scannedPagesPresent").Do("record").
			On(evFail).Target(sid(StateFailed)).Do("record").
			Done().
		State(sid(StateAllTextPresent)).
			OnEntry("enter").
			On(evSynthesize).Target(sid(StateSynthesizing)).Do("record").
			On(evFail).Target(sid(StateFailed)).Do("record").
			Done().
		State(sid(StateScannedFound)).
			OnEntry("enter").
			On(evAwaitChoice).Target(sid(StateAwaitingChoice)).Do("record").
			On(evFail).Target(sid(StateFailed)).Do("record").
			Done().
		State(sid(StateAwaitingChoice)).
			OnEntry("enter").
			On(evChooseImage).Target(sid(StateSynthesizing)).Do("record").
			On(evChooseOCR).Target(sid(StateRunningOCR)).Do("record").
			On(evFail).Target(sid(StateFailed)).Do("record").
			Done().
		State(sid(StateRunningOCR)).
			OnEntry("enter").
			On(evSynthesize).Target(sid(StateSynthesizing)).Do("record").
			On(evFail).Target(sid(StateFailed)).Do("record").
			Done().
		State(sid(StateSynthesizing)).
			OnEntry("enter").
			On(evAssemble).Target(sid(StateAssembling)).Do("record").
			On(evFail).Target(sid(StateFailed)).Do("record").
			Done().
		State(sid(StateAssembling)).
			OnEntry("enter").
			On(evComplete).Target(sid(StateDone)).Do("record").
			On(evFail).Target(sid(StateFailed)).Do("record").
			Done().
		State(sid(StateDone)).
			Final().
			OnEntry("enter").
			Done().
		State(sid(StateFailed)).
			Final().
			OnEntry("enter").
			Done().
		Build()
}

// machine drives one conversion through the statechart.
type machine struct {
	interp *statekit.Interpreter[*run]
	run    *run
}

func newInterpreter(r *run) (*statekit.Interpreter[*run], error) {
	cfg, err := newMachine()
	if err != nil {
		return nil, fmt.Errorf("build state machine: %w", err)
	}
	interp := statekit.NewInterpreter(cfg)
	interp.UpdateContext(func(c **run) {
		*c = r
	})
	return interp, nil
}

// startMachine enters the initial extracting state.
func startMachine(r *run) (*machine, error) {
	interp, err := newInterpreter(r)
	if err != nil {
		return nil, err
	}
	interp.Start()
	return &machine{interp: interp, run: r}, nil
}

// restoreMachine resumes a machine suspended in state.
func restoreMachine(r *run, state State) (*machine, error) {
	interp, err := newInterpreter(r)
	if err != nil {
		return nil, err
	}
	snapshot := statekit.Snapshot[*run]{
		MachineID:    machineID,
		CurrentState: sid(state),
		Context:      r,
		CreatedAt:    time.Now(),
	}
	if err := interp.Restore(snapshot); err != nil {
		return nil, fmt.Errorf("restore state machine: %w", err)
	}
	return &machine{interp: interp, run: r}, nil
}

func (m *machine) state() State {
	return State(m.interp.State().Value)
}

// send fires ev and checks that the machine landed in want.
func (m *machine) send(ev statekit.EventType, want State) error {
	from := m.state()
	m.interp.Send(statekit.Event{Type: ev})
	if got := m.state(); got != want {
		return fmt.Errorf("event %s from %s: reached %s, want %s", ev, from, got, want)
	}
	return nil
}

// fail moves the machine to failed and wraps err with the state it left.
func (m *machine) fail(err error) error {
	from := m.state()
	if !m.interp.Done() {
		m.interp.Send(statekit.Event{Type: evFail})
	}
	logging.With(m.run.logger.Error()).
		Add(logging.State(string(from))).
		Add(logging.Err(err)).
		Msg("conversion failed")
	return &ConversionError{State: from, Err: err}
}
