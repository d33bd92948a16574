package org

import "testing"

const inheritanceFixture = "#+PROPERTY: Category general\n" +
	"#+PROPERTY: Budget 100\n" +
	"* Root\n" +
	":PROPERTIES:\n" +
	":OWNER: alice\n" +
	":END:\n" +
	"** Child\n" +
	":PROPERTIES:\n" +
	":OWNER: bob\n" +
	":END:\n" +
	"*** Grandchild\n" +
	"** Sibling\n"

func TestInheritedProperty_NearestWins(t *testing.T) {
	doc := ParseString(inheritanceFixture)
	grandchild, _ := FindHeadline(doc, func(h *Headline) bool { return h.Title == "Grandchild" })
	sibling, _ := FindHeadline(doc, func(h *Headline) bool { return h.Title == "Sibling" })

	if v, ok := InheritedProperty(doc, grandchild, "OWNER"); !ok || v != "bob" {
		t.Errorf("grandchild OWNER = %q, %v; want bob", v, ok)
	}
	if v, ok := InheritedProperty(doc, sibling, "OWNER"); !ok || v != "alice" {
		t.Errorf("sibling OWNER = %q, %v; want alice", v, ok)
	}
}

func TestInheritedProperty_FallsBackToDocument(t *testing.T) {
	doc := ParseString(inheritanceFixture)
	grandchild, _ := FindHeadline(doc, func(h *Headline) bool { return h.Title == "Grandchild" })

	if v, ok := InheritedProperty(doc, grandchild, "Category"); !ok || v != "general" {
		t.Errorf("Category = %q, %v; want general", v, ok)
	}
	if _, ok := InheritedProperty(doc, grandchild, "NOPE"); ok {
		t.Error("undefined key should report false")
	}
}

func TestInheritedProperty_OwnDrawerFirst(t *testing.T) {
	doc := ParseString(inheritanceFixture)
	child, _ := FindHeadline(doc, func(h *Headline) bool { return h.Title == "Child" })
	if v, _ := InheritedProperty(doc, child, "owner"); v != "bob" {
		t.Errorf("child owner = %q, want bob", v)
	}
}

func TestEffectiveProperties(t *testing.T) {
	doc := ParseString(inheritanceFixture)
	grandchild, _ := FindHeadline(doc, func(h *Headline) bool { return h.Title == "Grandchild" })

	props := EffectiveProperties(doc, grandchild)
	if props["OWNER"] != "bob" {
		t.Errorf("OWNER = %q, want bob", props["OWNER"])
	}
	if props["CATEGORY"] != "general" || props["BUDGET"] != "100" {
		t.Errorf("document defaults missing: %v", props)
	}
}

func TestDocumentProperties_LastDefinitionWins(t *testing.T) {
	doc := ParseString("#+PROPERTY: K first\n#+PROPERTY: K second\n* H\n")
	h := doc.Children[0]
	if v, _ := InheritedProperty(doc, h, "K"); v != "second" {
		t.Errorf("K = %q, want second", v)
	}
}

func TestPropertyDrawer_SetPreservesOrder(t *testing.T) {
	d := &PropertyDrawer{}
	d.Set("B", "1")
	d.Set("A", "2")
	d.Set("b", "3")
	keys := d.Keys()
	if len(keys) != 2 || keys[0] != "B" || keys[1] != "A" {
		t.Errorf("keys = %v, want [B A]", keys)
	}
	if v, _ := d.Get("B"); v != "3" {
		t.Errorf("B = %q, want 3", v)
	}
}

func TestPropertyDrawer_NilSafe(t *testing.T) {
	var d *PropertyDrawer
	if _, ok := d.Get("X"); ok {
		t.Error("nil drawer Get should report false")
	}
	if d.Len() != 0 {
		t.Errorf("nil drawer Len = %d", d.Len())
	}
}
