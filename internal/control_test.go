package internal_test

import (
	"testing"

	"github.com/zephyrtronium/iocore"
	"github.com/zephyrtronium/iocore/testutils"
)

// TestLoops tests for, while, and loop along with break and continue.
func TestLoops(t *testing.T) {
	vm, _ := testutils.NewVM()
	cases := map[string]map[string]testutils.SourceTestCase{
		"for": {
			"sum":      {Source: `s := 0; for(i, 1, 4, s = s + i); s`, Pass: testutils.PassEqual(vm.NewNumber(10))},
			"step":     {Source: `s := 0; for(i, 10, 1, 0 - 3, s = s + i); s`, Pass: testutils.PassEqual(vm.NewNumber(22))},
			"result":   {Source: `for(i, 1, 3, i * 2)`, Pass: testutils.PassEqual(vm.NewNumber(6))},
			"empty":    {Source: `for(i, 3, 1, i)`, Pass: testutils.PassIdentical(vm.Nil)},
			"break":    {Source: `for(i, 1, 10, if(i == 4, break(i)))`, Pass: testutils.PassEqual(vm.NewNumber(4))},
			"continue": {Source: `s := 0; for(i, 1, 5, if(i % 2 == 0, continue); s = s + i); s`, Pass: testutils.PassEqual(vm.NewNumber(9))},
			"counter":  {Source: `for(j, 1, 2, nil); j`, Pass: testutils.PassEqual(vm.NewNumber(2))},
			"badArgs":  {Source: `for(i, 1)`, Pass: testutils.PassFailureIs(iocore.ErrInvalidArgumentType)},
			"badBound": {Source: `for(i, 1, "a", nil)`, Pass: testutils.PassFailureIs(iocore.ErrInvalidArgumentType)},
			"zeroStep": {Source: `for(i, 1, 2, 0, nil)`, Pass: testutils.PassFailure()},
		},
		"while": {
			"count":   {Source: `n := 0; while(n < 5, n = n + 1); n`, Pass: testutils.PassEqual(vm.NewNumber(5))},
			"never":   {Source: `while(false, Exception raise("x"))`, Pass: testutils.PassIdentical(vm.Nil)},
			"break":   {Source: `n := 0; while(true, n = n + 1; if(n == 3, break)); n`, Pass: testutils.PassEqual(vm.NewNumber(3))},
			"badArgs": {Source: `while(true)`, Pass: testutils.PassFailureIs(iocore.ErrInvalidArgumentType)},
			"raise":   {Source: `while(Exception raise("x"), nil)`, Pass: testutils.PassFailure()},
		},
		"loop": {
			"break":    {Source: `n := 0; loop(n = n + 1; if(n > 4, break(n)))`, Pass: testutils.PassEqual(vm.NewNumber(5))},
			"continue": {Source: `n := 0; loop(n = n + 1; if(n < 3, continue); break(n * 10))`, Pass: testutils.PassEqual(vm.NewNumber(30))},
			"raise":    {Source: `loop(Exception raise("x"))`, Pass: testutils.PassFailure()},
			"badArgs":  {Source: `loop`, Pass: testutils.PassFailureIs(iocore.ErrInvalidArgumentType)},
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			for name, c := range s {
				t.Run(name, func(t *testing.T) {
					c.Run(t, vm, "TestLoops")
				})
			}
		})
	}
}

// TestConditionals tests the conditional methods installed at startup.
func TestConditionals(t *testing.T) {
	vm, _ := testutils.NewVM()
	cases := map[string]map[string]testutils.SourceTestCase{
		"if": {
			"true":      {Source: `if(true, 1, 2)`, Pass: testutils.PassEqual(vm.NewNumber(1))},
			"false":     {Source: `if(false, 1, 2)`, Pass: testutils.PassEqual(vm.NewNumber(2))},
			"nil":       {Source: `if(nil, 1, 2)`, Pass: testutils.PassEqual(vm.NewNumber(2))},
			"object":    {Source: `if(Object, 1, 2)`, Pass: testutils.PassEqual(vm.NewNumber(1))},
			"noElse":    {Source: `if(false, 1)`, Pass: testutils.PassIdentical(vm.False)},
			"condition": {Source: `if(1)`, Pass: testutils.PassIdentical(vm.True)},
			"lazy":      {Source: `x := 0; if(true, x = 1, x = 2); x`, Pass: testutils.PassEqual(vm.NewNumber(1))},
			"compare":   {Source: `if(1 < 2, "yes", "no")`, Pass: testutils.PassEqual(vm.NewString("yes"))},
		},
		"then": {
			"then":     {Source: `x := 0; if(1 < 2) then(x = 3) else(x = 4); x`, Pass: testutils.PassEqual(vm.NewNumber(3))},
			"else":     {Source: `x := 0; if(2 < 1) then(x = 3) else(x = 4); x`, Pass: testutils.PassEqual(vm.NewNumber(4))},
			"elseif":   {Source: `x := 0; if(false) then(x = 1) elseif(true) then(x = 2) else(x = 3); x`, Pass: testutils.PassEqual(vm.NewNumber(2))},
			"fallback": {Source: `x := 0; if(false) then(x = 1) elseif(nil) then(x = 2) else(x = 3); x`, Pass: testutils.PassEqual(vm.NewNumber(3))},
			"result":   {Source: `true then(1)`, Pass: testutils.PassIdentical(vm.Nil)},
		},
		"ifTrue": {
			"true":     {Source: `x := 0; (1 < 2) ifTrue(x = 1) ifFalse(x = 2); x`, Pass: testutils.PassEqual(vm.NewNumber(1))},
			"false":    {Source: `x := 0; (2 < 1) ifTrue(x = 1) ifFalse(x = 2); x`, Pass: testutils.PassEqual(vm.NewNumber(2))},
			"self":     {Source: `5 ifTrue(6)`, Pass: testutils.PassEqual(vm.NewNumber(5))},
			"ifNil":    {Source: `x := 0; nil ifNil(x = 5); x`, Pass: testutils.PassEqual(vm.NewNumber(5))},
			"notNil":   {Source: `x := 0; 1 ifNil(x = 9); x`, Pass: testutils.PassEqual(vm.NewNumber(0))},
			"ifNonNil": {Source: `x := 0; 1 ifNonNil(x = 7); x`, Pass: testutils.PassEqual(vm.NewNumber(7))},
		},
		"logic": {
			"and":       {Source: `true and(false)`, Pass: testutils.PassIdentical(vm.False)},
			"andTrue":   {Source: `1 and(2)`, Pass: testutils.PassIdentical(vm.True)},
			"andShort":  {Source: `false and(Exception raise("x"))`, Pass: testutils.PassIdentical(vm.False)},
			"or":        {Source: `nil or(1)`, Pass: testutils.PassIdentical(vm.True)},
			"orShort":   {Source: `1 or(Exception raise("x"))`, Pass: testutils.PassIdentical(vm.True)},
			"orFalse":   {Source: `false or(nil)`, Pass: testutils.PassIdentical(vm.False)},
			"&&":        {Source: `false && true`, Pass: testutils.PassIdentical(vm.False)},
			"||":        {Source: `1 || false`, Pass: testutils.PassIdentical(vm.True)},
			"opPrec":    {Source: `1 < 2 && 3 < 4`, Pass: testutils.PassIdentical(vm.True)},
			"not":       {Source: `nil not`, Pass: testutils.PassIdentical(vm.True)},
			"notObject": {Source: `Object not`, Pass: testutils.PassIdentical(vm.False)},
			"isTrue":    {Source: `false isTrue`, Pass: testutils.PassIdentical(vm.False)},
			"isNil":     {Source: `nil isNil`, Pass: testutils.PassIdentical(vm.True)},
		},
		"brackets": {
			"list":  {Source: `[1, 2 + 3]`, Pass: testutils.PassList(vm.NewNumber(1), vm.NewNumber(5))},
			"empty": {Source: `[] size`, Pass: testutils.PassEqual(vm.NewNumber(0))},
		},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			for name, c := range s {
				t.Run(name, func(t *testing.T) {
					c.Run(t, vm, "TestConditionals")
				})
			}
		})
	}
}
