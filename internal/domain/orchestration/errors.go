package orchestration

// Stage names the pipeline step an Error came from.
type Stage string

const (
	StageValidate   Stage = "validate"
	StagePlan       Stage = "plan"
	StageExecute    Stage = "execute"
	StageSynthesize Stage = "synthesize"
)

// Error is the only error Orchestrate returns. Its message is deliberately
// generic; the cause is reachable through errors.Is and errors.As.
type Error struct {
	SessionID string
	Stage     Stage
	Err       error
}

func (e *Error) Error() string { return "orchestration failed" }

func (e *Error) Unwrap() error { return e.Err }
