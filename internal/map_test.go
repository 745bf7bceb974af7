package internal_test

import (
	"testing"

	"github.com/zephyrtronium/iocore"
	"github.com/zephyrtronium/iocore/testutils"
)

// TestMapMethods tests the slots of Map.
func TestMapMethods(t *testing.T) {
	vm, _ := testutils.NewVM()
	vm.MustDoString(`m := Map clone atPut("b", 2) atPut("a", 1) atPut("c", 3)`)
	a, b, c := vm.NewString("a"), vm.NewString("b"), vm.NewString("c")
	cases := map[string]testutils.SourceTestCase{
		"at":         {Source: `m at("b")`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"atMissing":  {Source: `m at("z")`, Pass: testutils.PassIdentical(vm.Nil)},
		"atBad":      {Source: `m at(1)`, Pass: testutils.PassFailureIs(iocore.ErrInvalidArgumentType)},
		"size":       {Source: `m size`, Pass: testutils.PassEqual(vm.NewNumber(3))},
		"hasKey":     {Source: `m hasKey("a")`, Pass: testutils.PassIdentical(vm.True)},
		"noKey":      {Source: `m hasKey("z")`, Pass: testutils.PassIdentical(vm.False)},
		"keys":       {Source: `m keys`, Pass: testutils.PassList(a, b, c)},
		"values":     {Source: `m values`, Pass: testutils.PassList(vm.NewNumber(1), vm.NewNumber(2), vm.NewNumber(3))},
		"foreach":    {Source: `s := ""; m foreach(k, v, s = s .. k .. v); s`, Pass: testutils.PassEqual(vm.NewString("a1b2c3"))},
		"foreachVal": {Source: `n := 0; m foreach(v, n = n + v); n`, Pass: testutils.PassEqual(vm.NewNumber(6))},
		"break":      {Source: `m foreach(k, v, if(v == 2, break(k)))`, Pass: testutils.PassEqual(b)},
		"removeAt":   {Source: `Map clone atPut("x", 1) removeAt("x") size`, Pass: testutils.PassEqual(vm.NewNumber(0))},
		"clone":      {Source: `m clone atPut("d", 4); m size`, Pass: testutils.PassEqual(vm.NewNumber(3))},
		"cloneKeeps": {Source: `m clone at("a")`, Pass: testutils.PassEqual(vm.NewNumber(1))},
		"empty":      {Source: `Map clone keys`, Pass: testutils.PassList()},
		"type":       {Source: `m type`, Pass: testutils.PassEqual(vm.NewString("Map"))},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			c.Run(t, vm, "TestMapMethods")
		})
	}
}
