// Package source defines SpellSource (spec §3.3): the loose,
// transport-shaped record the transformer produces from an AST, and which
// the IR generator later validates into canonical IR. Every expression
// embedded in this shape is carried as its canonical stringified surface
// form (spec §4.4) rather than as a typed tree, so the record stays a
// human-readable, round-trippable configuration artifact.
package source

// Location is a lightweight line/column marker a transformer step stamps
// onto the first step it emits for a source statement.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// AssetRef describes one tradable asset's chain metadata.
type AssetRef struct {
	Chain    string `json:"chain"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// VenueRef describes one venue alias's chain metadata and group label.
type VenueRef struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
	Label   string `json:"label"`
}

// ParamExt is the extended form of a param value, used when a param needs
// more than a bare literal (reserved for future constraint metadata).
type ParamExt struct {
	Value interface{} `json:"value"`
}

// StateShape holds the two state scopes as key→initial-value-expression
// maps (values are canonical stringified expressions or literals).
type StateShape struct {
	Persistent map[string]string `json:"persistent,omitempty"`
	Ephemeral  map[string]string `json:"ephemeral,omitempty"`
}

// SkillRef is a reusable capability binding.
type SkillRef struct {
	Adapter string            `json:"adapter"`
	Config  map[string]string `json:"config,omitempty"`
}

// AdvisorRef is a named advice source.
type AdvisorRef struct {
	Model  string            `json:"model"`
	Config map[string]string `json:"config,omitempty"`
}

// Guard is a pre/post-execution assertion.
type Guard struct {
	Name       string `json:"name"`
	Check      string `json:"check"`
	IsAdvisory bool   `json:"isAdvisory,omitempty"`
	Advisor    string `json:"advisor,omitempty"`
	Severity   string `json:"severity"`
}

// Trigger is the lowered trigger shape: either a single cron/condition/
// event record, or an `Any` disjunction when the spell declared more than
// one `on` block.
type Trigger struct {
	Schedule     string   `json:"schedule,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	PollInterval int      `json:"pollInterval,omitempty"`
	EventName    string   `json:"eventName,omitempty"`
	FilterExpr   string   `json:"filterExpr,omitempty"`
	Any          []Trigger `json:"any,omitempty"`
}

// Step is a free-form record distinguished by which of its Kind-tagged
// payload fields is populated. Exactly one of Compute/Action/If/For/
// Repeat/Loop/Try/Parallel/Pipeline/Advisory/Wait/Emit/Halt is non-nil.
type Step struct {
	ID             string            `json:"id"`
	SourceLocation *Location         `json:"_sourceLocation,omitempty"`
	Compute        *ComputeStep      `json:"compute,omitempty"`
	Action         *ActionStep       `json:"action,omitempty"`
	If             *IfStep           `json:"if,omitempty"`
	For            *ForStep          `json:"for,omitempty"`
	Repeat         *RepeatStep       `json:"repeat,omitempty"`
	Loop           *LoopUntilStep    `json:"loop,omitempty"`
	Try            *TryStep          `json:"try,omitempty"`
	Parallel       *ParallelStep     `json:"parallel,omitempty"`
	Pipeline       *PipelineStep     `json:"pipeline,omitempty"`
	Advisory       *AdvisoryStep     `json:"advisory,omitempty"`
	Wait           *WaitStep         `json:"wait,omitempty"`
	Emit           *EmitStep         `json:"emit,omitempty"`
	Halt           *HaltStep         `json:"halt,omitempty"`
	DependsOn      []string          `json:"dependsOn,omitempty"`
	OnFailure      string            `json:"onFailure,omitempty"`
}

// Assignment is one `variable = expression` pair within a compute step.
type Assignment struct {
	Variable   string `json:"variable"`
	Expression string `json:"expression"`
}

// ComputeStep evaluates one or more expressions and binds their results.
type ComputeStep struct {
	Assignments []Assignment `json:"assignments"`
}

// ActionStep dispatches a venue action.
type ActionStep struct {
	Type          string            `json:"type"`
	Venue         string            `json:"venue"`
	Asset         string            `json:"asset,omitempty"`
	Amount        string            `json:"amount,omitempty"`
	To            string            `json:"to,omitempty"`
	ToChain       string            `json:"toChain,omitempty"`
	Collateral    string            `json:"collateral,omitempty"`
	Constraints   map[string]string `json:"constraints,omitempty"`
	OutputBinding string            `json:"outputBinding,omitempty"`
}

// IfStep is a raw conditional. It never carries an inlined action: its
// branches reference other steps (actions included) by id.
type IfStep struct {
	Condition string   `json:"condition"`
	ThenSteps []string `json:"thenSteps"`
	ElseSteps []string `json:"elseSteps"`
}

// ForStep iterates a source collection binding a loop variable.
type ForStep struct {
	Variable      string   `json:"variable"`
	Source        string   `json:"source"`
	BodySteps     []string `json:"bodySteps"`
	MaxIterations int      `json:"maxIterations"`
}

// RepeatStep iterates a fixed count.
type RepeatStep struct {
	Count         string   `json:"count"`
	BodySteps     []string `json:"bodySteps"`
	MaxIterations int      `json:"maxIterations"`
}

// LoopUntilStep iterates until a condition becomes truthy.
type LoopUntilStep struct {
	Condition     string   `json:"condition"`
	BodySteps     []string `json:"bodySteps"`
	MaxIterations int      `json:"maxIterations"`
}

// CatchBlock handles one matched error kind within a try step.
type CatchBlock struct {
	ErrorType string     `json:"errorType"`
	Action    string     `json:"action"`
	Steps     []string   `json:"steps,omitempty"`
	Retry     *RetrySpec `json:"retry,omitempty"`
}

// RetrySpec configures a catch block's retry action.
type RetrySpec struct {
	MaxAttempts int     `json:"maxAttempts"`
	Backoff     string  `json:"backoff"`
	BackoffBase float64 `json:"backoffBase,omitempty"`
	MaxBackoff  float64 `json:"maxBackoff,omitempty"`
}

// TryStep executes trySteps with error recovery.
type TryStep struct {
	TrySteps     []string     `json:"trySteps"`
	CatchBlocks  []CatchBlock `json:"catchBlocks"`
	FinallySteps []string     `json:"finallySteps,omitempty"`
}

// Branch is one named concurrent branch of a parallel step.
type Branch struct {
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}

// Join configures how a parallel step's branches are joined.
type Join struct {
	Mode   string `json:"mode"`
	Count  int    `json:"count,omitempty"`
	Metric string `json:"metric,omitempty"`
	Order  string `json:"order,omitempty"`
}

// ParallelStep runs branches concurrently under a join policy.
type ParallelStep struct {
	Branches []Branch `json:"branches"`
	Join     *Join    `json:"join,omitempty"`
	OnFail   string   `json:"onFail"`
}

// PipelineStageRef references exactly one statement's step id per stage.
type PipelineStageRef struct {
	Op     string `json:"op"`
	Arg    string `json:"arg,omitempty"`
	SortBy string `json:"sortBy,omitempty"`
	Order  string `json:"order,omitempty"`
	Step   string `json:"step,omitempty"`
}

// PipelineStep streams a source collection through declared stages.
type PipelineStep struct {
	Source        string             `json:"source"`
	Stages        []PipelineStageRef `json:"stages"`
	OutputBinding string             `json:"outputBinding,omitempty"`
}

// Fallback distinguishes a literal fallback value from an expression
// fallback for an advisory step.
type Fallback struct {
	Literal interface{} `json:"__literal,omitempty"`
	Expr    string      `json:"__expr,omitempty"`
}

// AdvisoryStep invokes a named advisor.
type AdvisoryStep struct {
	Prompt       string                 `json:"prompt"`
	Advisor      string                 `json:"advisor"`
	Output       string                 `json:"output,omitempty"`
	Timeout      float64                `json:"timeout"`
	Fallback     Fallback               `json:"fallback"`
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`
}

// WaitStep suspends for a duration in seconds.
type WaitStep struct {
	Duration string `json:"duration"`
}

// EmitStep appends a ledger event with evaluated data.
type EmitStep struct {
	Event string            `json:"event"`
	Data  map[string]string `json:"data,omitempty"`
}

// HaltStep stops the run successfully with a reason.
type HaltStep struct {
	Reason string `json:"reason,omitempty"`
}

// SpellSource is the transformer's output record (spec §3.3).
type SpellSource struct {
	Spell       string                `json:"spell"`
	Version     string                `json:"version,omitempty"`
	Description string                `json:"description,omitempty"`
	Assets      map[string]AssetRef   `json:"assets,omitempty"`
	Venues      map[string]VenueRef   `json:"venues,omitempty"`
	Params      map[string]string     `json:"params,omitempty"`
	State       StateShape            `json:"state"`
	Skills      map[string]SkillRef   `json:"skills,omitempty"`
	Advisors    map[string]AdvisorRef `json:"advisors,omitempty"`
	Guards      []Guard               `json:"guards,omitempty"`
	Trigger     Trigger               `json:"trigger"`
	Steps       []Step                `json:"steps"`
}
