package scheduler

import (
	"fmt"
	"reflect"

	"github.com/xlatomapp/racebacktest/internal/apperror"
)

// WrapCallback inspects fn's arity, mirroring the original's
// inspect.signature check, and returns a Callback the engine can invoke
// uniformly. fn must be either func() or func(strategy interface{}).
func WrapCallback(fn interface{}) (cb Callback, wantsStrategy bool, err error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, false, apperror.NewInvalidSchedule(fmt.Sprintf("schedule callback must be a function, got %T", fn))
	}
	t := v.Type()
	switch t.NumIn() {
	case 0:
		return func(_ interface{}) { v.Call(nil) }, false, nil
	case 1:
		return func(strategy interface{}) {
			v.Call([]reflect.Value{reflect.ValueOf(strategy)})
		}, true, nil
	default:
		return nil, false, apperror.NewInvalidSchedule("schedule callback must take zero or one argument")
	}
}
