package ir

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

// cronPattern is a simple 5-field syntactic check, registered as a
// custom validator tag the way the teacher's config package registers
// "semver"/"step_id"/"git_url" (internal/config/validator_instance.go).
var cronPattern = regexp.MustCompile(`^\S+\s+\S+\s+\S+\s+\S+\s+\S+$`)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("cron5", func(fl validator.FieldLevel) bool {
			return cronPattern.MatchString(fl.Field().String())
		})
		validatorInst = v
	})
	return validatorInst
}

// guardShape validates a Guard's required fields and severity vocabulary
// (spec.md §4.5, §7: guard severities gate run-abort vs. warn vs. pause).
type guardShape struct {
	Name     string `validate:"required"`
	Severity string `validate:"required,oneof=halt warn revert pause"`
}

// paramShape validates a Param's inferred simple-form type vocabulary
// (spec.md §4.5).
type paramShape struct {
	Name string    `validate:"required"`
	Type ParamType `validate:"omitempty,oneof=number bool string address"`
}

// triggerShape validates a lowered cron schedule, when present.
type triggerShape struct {
	Schedule string `validate:"omitempty,cron5"`
}

// validateStruct runs the shared validator instance against s, recording
// one VALIDATION_ERROR per failing field rather than aborting on the
// first (spec.md §7: IR generator "collect all").
func (g *generator) validateStruct(s interface{}) {
	if err := validatorInstance().Struct(s); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			g.fail("VALIDATION_ERROR", fmt.Sprintf("%s: failed %q constraint", fe.Namespace(), fe.Tag()))
		}
	}
}
