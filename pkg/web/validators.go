package web

import (
	"net/url"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// Gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func Gt(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// IntParamOrDefault reads the query parameter key as an int. Missing, non-numeric or
// rejected values fall back to def instead of failing the request.
func IntParamOrDefault(values url.Values, key string, def int, pValidator ParamValidator) int {
	value := values.Get(key)
	if value == "" {
		return def
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		return def
	}
	return int(intValue)
}
