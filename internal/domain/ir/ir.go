// Package ir defines the canonical, validated spell representation the
// interpreter consumes (spec §3.4): a SpellIR built from a SpellSource by
// generate.go, with every embedded expression re-hydrated into a typed
// ast.Expression tree and every step lowered into one Go type per kind
// implementing the closed Step interface.
package ir

import "github.com/grimoire-lang/grimoire/internal/lang/ast"

// Kind tags which concrete step type a Step value is, so executors can
// switch-dispatch on it rather than relying on virtual method-per-kind
// behaviour (spec §9's "exhaustive pattern matching" guidance).
type Kind string

const (
	KindCompute     Kind = "compute"
	KindConditional Kind = "conditional"
	KindAction      Kind = "action"
	KindLoop        Kind = "loop"
	KindTry         Kind = "try"
	KindParallel    Kind = "parallel"
	KindPipeline    Kind = "pipeline"
	KindAdvisory    Kind = "advisory"
	KindWait        Kind = "wait"
	KindEmit        Kind = "emit"
	KindHalt        Kind = "halt"
)

// Step is the closed union every lowered step record implements.
type Step interface {
	Kind() Kind
	StepID() string
}

// base carries the fields every step kind shares.
type base struct {
	ID        string
	DependsOn []string
}

func (b base) StepID() string { return b.ID }

// Assignment is one `variable = expression` pair within a compute step.
type Assignment struct {
	Variable   string
	Expression ast.Expression
}

// ComputeStep evaluates one or more expressions and binds their results.
type ComputeStep struct {
	base
	Assignments []Assignment
}

func (ComputeStep) Kind() Kind { return KindCompute }

// ConditionalStep branches execution on a boolean expression.
type ConditionalStep struct {
	base
	Condition ast.Expression
	ThenSteps []string
	ElseSteps []string
}

func (ConditionalStep) Kind() Kind { return KindConditional }

// ActionStep dispatches a venue action. Amount accepts the literal
// sentinel string "max" in addition to a parsed numeric expression, so
// Amount is carried as a raw string rather than forced through the
// expression re-parser.
type ActionStep struct {
	base
	Type          string
	Venue         string
	Asset         string
	Amount        string
	To            string
	ToChain       string
	Collateral    string
	Constraints   map[string]string
	OutputBinding string
	OnFailure     string
}

func (ActionStep) Kind() Kind { return KindAction }

// LoopVariant distinguishes a loop step's iteration strategy.
type LoopVariant string

const (
	LoopRepeat LoopVariant = "repeat"
	LoopFor    LoopVariant = "for"
	LoopUntil  LoopVariant = "until"
)

// LoopStep is the union of `repeat(count)`, `for(variable, source)` and
// `loop.until(condition)`.
type LoopStep struct {
	base
	Variant       LoopVariant
	Count         ast.Expression // LoopRepeat
	Variable      string         // LoopFor
	Source        ast.Expression // LoopFor
	Condition     ast.Expression // LoopUntil
	BodySteps     []string
	MaxIterations int
	Parallel      bool
	OutputBinding string
}

func (LoopStep) Kind() Kind { return KindLoop }

// RetrySpec configures a catch block's retry action.
type RetrySpec struct {
	MaxAttempts int
	Backoff     string
	BackoffBase float64
	MaxBackoff  float64
}

// CatchBlock handles one matched error kind within a try step. ErrorType
// has already been reduced to the fixed vocabulary (or "*") by the time
// it reaches here.
type CatchBlock struct {
	ErrorType string
	Action    string
	Steps     []string
	Retry     *RetrySpec
}

// TryStep executes TrySteps with error recovery via CatchBlocks.
type TryStep struct {
	base
	TrySteps     []string
	CatchBlocks  []CatchBlock
	FinallySteps []string
}

func (TryStep) Kind() Kind { return KindTry }

// Branch is one named concurrent branch of a parallel step.
type Branch struct {
	Name  string
	Steps []string
}

// Join configures how a parallel step's branches are joined.
type Join struct {
	Mode   string
	Count  int
	Metric ast.Expression
	Order  string
}

// ParallelStep runs Branches concurrently under a join policy.
type ParallelStep struct {
	base
	Branches []Branch
	Join     *Join
	OnFail   string
}

func (ParallelStep) Kind() Kind { return KindParallel }

// PipelineStage references exactly one statement's step id per stage, the
// result of the "one statement per stage" decision (DESIGN.md).
type PipelineStage struct {
	Op     string
	Arg    ast.Expression
	SortBy ast.Expression
	Order  string
	Step   string
}

// PipelineStep streams Source through Stages.
type PipelineStep struct {
	base
	Source        ast.Expression
	Stages        []PipelineStage
	OutputBinding string
}

func (PipelineStep) Kind() Kind { return KindPipeline }

// Fallback distinguishes a literal fallback value from an expression
// fallback for an advisory step.
type Fallback struct {
	Literal interface{}
	Expr    ast.Expression
	HasExpr bool
}

// AdvisoryStep invokes a named advisor.
type AdvisoryStep struct {
	base
	Prompt       string
	Advisor      string
	Output       string
	Timeout      float64
	Fallback     Fallback
	OutputSchema map[string]interface{}
}

func (AdvisoryStep) Kind() Kind { return KindAdvisory }

// WaitStep suspends for a duration expression (seconds).
type WaitStep struct {
	base
	Duration ast.Expression
}

func (WaitStep) Kind() Kind { return KindWait }

// EmitStep appends a ledger event with evaluated Data.
type EmitStep struct {
	base
	Event string
	Data  map[string]ast.Expression
}

func (EmitStep) Kind() Kind { return KindEmit }

// HaltStep stops the run successfully with a Reason.
type HaltStep struct {
	base
	Reason ast.Expression
	HasReason bool
}

func (HaltStep) Kind() Kind { return KindHalt }

// Alias is one resolved venue alias's chain metadata and group label.
type Alias struct {
	Name    string
	Chain   string
	Address string
	Label   string
}

// Asset describes one tradable asset's chain metadata.
type Asset struct {
	Symbol   string
	Chain    string
	Address  string
	Decimals int
}

// ParamType is the inferred simple-form type of a param's default value.
type ParamType string

const (
	ParamNumber  ParamType = "number"
	ParamBool    ParamType = "bool"
	ParamString  ParamType = "string"
	ParamAddress ParamType = "address"
	ParamOther   ParamType = ""
)

// Param is one declared (or limit-derived) spell parameter.
type Param struct {
	Name    string
	Type    ParamType
	Default ast.Expression
}

// StateField is one persistent or ephemeral state slot.
type StateField struct {
	Key          string
	InitialValue ast.Expression
}

// StateShape holds the two state scopes.
type StateShape struct {
	Persistent []StateField
	Ephemeral  []StateField
}

// Skill is a reusable capability binding.
type Skill struct {
	Name    string
	Adapter string
	Config  map[string]ast.Expression
}

// Advisor is a named advice source.
type Advisor struct {
	Name   string
	Model  string
	Config map[string]ast.Expression
}

// Guard is a pre/post-execution assertion.
type Guard struct {
	Name       string
	Check      ast.Expression
	IsAdvisory bool
	Advisor    string
	Severity   string
}

// Trigger is one lowered, flattened trigger condition. SpellSource's
// `{any: [...]}` disjunction flattens to one Trigger per disjunct; a
// single trigger yields exactly one Trigger.
type Trigger struct {
	Schedule     string
	Condition    ast.Expression
	HasCondition bool
	PollInterval int
	EventName    string
	FilterExpr   ast.Expression
	HasFilter    bool
}

// Meta carries the spell's descriptive and content-addressing metadata.
type Meta struct {
	Name        string
	Description string
	Created     string
	Hash        string
}

// SpellIR is the canonical, validated form the interpreter executes
// (spec §3.4).
type SpellIR struct {
	ID        string
	Version   string
	Meta      Meta
	Aliases   []Alias
	Assets    []Asset
	Skills    []Skill
	Advisors  []Advisor
	Params    []Param
	State     StateShape
	Steps     []Step
	Guards    []Guard
	Triggers  []Trigger
	SourceMap map[string]SourceLocation
}

// SourceLocation is a line/column marker carried from SpellSource's
// `_sourceLocation` step annotations.
type SourceLocation struct {
	Line   int
	Column int
}
