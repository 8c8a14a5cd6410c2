package pkg

import (
	"errors"
	"strings"

	"github.com/chainreactors/logs"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	ErrRequestFailed = errors.New("request failed")
	ErrBadStatus     = errors.New("status code mismatch")
	ErrBodyMissing   = errors.New("required content not found")
	ErrBodyForbidden = errors.New("forbidden content found")
	ErrCustomFilter  = errors.New("filtered by custom expression")
)

// Criteria holds the configured success predicates. A zero value means the
// corresponding check is not evaluated; all configured checks must pass.
type Criteria struct {
	Status      int
	Contains    string
	NotContains string
}

// Check evaluates the configured predicates in order and short-circuits on
// the first failing one. A nil error means SUCCESS.
func (c *Criteria) Check(o *Outcome) error {
	if c.Status != 0 && o.Status != c.Status {
		return ErrBadStatus
	}

	if c.Contains == "" && c.NotContains == "" {
		return nil
	}

	body := o.BodyText()
	if c.Contains != "" && !strings.Contains(body, c.Contains) {
		return ErrBodyMissing
	}
	if c.NotContains != "" && strings.Contains(body, c.NotContains) {
		return ErrBodyForbidden
	}
	return nil
}

func CompareWithExpr(exp *vm.Program, params map[string]interface{}) bool {
	res, err := expr.Run(exp, params)
	if err != nil {
		logs.Log.Warn(err.Error())
	}

	if res == true {
		return true
	} else {
		return false
	}
}
