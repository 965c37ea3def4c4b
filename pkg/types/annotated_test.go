package types

import (
	"strings"
	"testing"
)

func TestAnnotated_AbsenceNeverPanics(t *testing.T) {
	var a Annotated[string]

	if a.Value() != nil {
		t.Error("Value() on zero Annotated should be nil")
	}
	if _, ok := a.Get(); ok {
		t.Error("Get() on zero Annotated should report absence")
	}
	if _, ok := a.Take(); ok {
		t.Error("Take() on zero Annotated should report absence")
	}
	a.Map(func(s string) string { return s + "!" })
	if a.IsPresent() {
		t.Error("Map() must not create a value")
	}
	if !a.IsEmpty() {
		t.Error("zero Annotated should be empty")
	}
}

func TestAnnotated_SetAndTakeKeepMeta(t *testing.T) {
	a := New("secret")
	a.AddRemark(NewRemark("rule", RemarkRemove))

	a.Set("other")
	if got, _ := a.Get(); got != "other" {
		t.Errorf("Get() = %q, want %q", got, "other")
	}
	if len(a.Meta().Remarks) != 1 {
		t.Fatalf("Set() dropped meta, remarks = %d", len(a.Meta().Remarks))
	}

	v, ok := a.Take()
	if !ok || v != "other" {
		t.Errorf("Take() = %q, %v; want %q, true", v, ok, "other")
	}
	if a.IsPresent() {
		t.Error("Take() should leave the value absent")
	}
	if len(a.Meta().Remarks) != 1 {
		t.Error("Take() must leave meta untouched")
	}
}

func TestAnnotated_MapPreservesMeta(t *testing.T) {
	a := New(int64(2))
	a.AddError(NewError(ErrorInvalidData))
	a.Map(func(i int64) int64 { return i * 21 })

	if got, _ := a.Get(); got != 42 {
		t.Errorf("Map() result = %d, want 42", got)
	}
	if !a.Meta().HasErrors() {
		t.Error("Map() dropped errors")
	}
}

func TestAnnotated_EqualDistinguishesAbsentWithMeta(t *testing.T) {
	bare := Empty[Value]()
	withMeta := FromError[Value](NewError(ErrorTooDeep))

	if bare.Equal(&withMeta) {
		t.Error("absent with meta must not equal absent without meta")
	}

	other := FromError[Value](NewError(ErrorTooDeep))
	if !withMeta.Equal(&other) {
		t.Error("identical absent values with meta should be equal")
	}
}

func TestMeta_SetOriginalLengthFirstWins(t *testing.T) {
	var m Meta
	m.SetOriginalLength(25)
	m.SetOriginalLength(10)

	if m.OriginalLength == nil || *m.OriginalLength != 25 {
		t.Errorf("OriginalLength = %v, want 25", m.OriginalLength)
	}
}

func TestMeta_ReplaceRangedRemarks(t *testing.T) {
	var m Meta
	m.AddRemark(NewRangedRemark("a", RemarkMask, 0, 3))
	m.AddRemark(NewRemark("b", RemarkRemove))
	m.AddRemark(NewRangedRemark("c", RemarkHash, 4, 8))

	m.ReplaceRangedRemarks([]Remark{NewRangedRemark("d", RemarkReplace, 1, 2)})

	if len(m.Remarks) != 2 {
		t.Fatalf("len(Remarks) = %d, want 2", len(m.Remarks))
	}
	if m.Remarks[0].RuleID != "b" || m.Remarks[1].RuleID != "d" {
		t.Errorf("Remarks = %+v, want whole-value remark then new ranged remark", m.Remarks)
	}
}

func TestError_WithOriginalIsBounded(t *testing.T) {
	small := NewError(ErrorInvalidData).WithOriginal(String("abc"))
	if small.Original == nil {
		t.Error("small values should be snapshotted")
	}

	large := NewError(ErrorInvalidData).WithOriginal(String(strings.Repeat("x", 2000)))
	if large.Original != nil {
		t.Error("large values should not be snapshotted")
	}
}

func TestObject_InsertionOrder(t *testing.T) {
	obj := NewObject[Value]()
	obj.Set("b", Int(1))
	obj.Set("a", Int(2))
	obj.Set("c", Int(3))
	obj.Set("a", Int(4))

	want := []string{"b", "a", "c"}
	got := obj.Keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, _ := obj.Get("a").Value().AsInt(); v != 4 {
		t.Errorf("Get(a) = %d, want 4", v)
	}

	obj.Remove("b")
	obj.Truncate(1)
	if got := obj.Keys(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Keys() after Remove/Truncate = %v, want [a]", got)
	}
}

func TestArray_Truncate(t *testing.T) {
	arr := Array[Value]{}
	for i := 0; i < 5; i++ {
		arr.Append(Int(int64(i)))
	}
	arr.Truncate(2)
	if arr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", arr.Len())
	}
	arr.Truncate(10)
	if arr.Len() != 2 {
		t.Errorf("Truncate beyond length changed Len() to %d", arr.Len())
	}
}

func TestPairList_Get(t *testing.T) {
	var headers PairList
	headers.Add("Content-Type", "text/plain")
	headers.Add("Cookie", "a=b")

	v := headers.Get("Cookie")
	if v == nil {
		t.Fatal("Get(Cookie) = nil")
	}
	if s, _ := v.Value().AsString(); s != "a=b" {
		t.Errorf("Get(Cookie) = %q, want %q", s, "a=b")
	}
	if headers.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
}
