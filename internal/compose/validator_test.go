package compose

import (
	"testing"

	"yago/internal/modlang"
)

func TestValidateBalanced(t *testing.T) {
	doc := modlang.Parse("[S]\nif $a == 1\nrun = X\nelse\nrun = Y\nendif\n")
	if err := ValidateIfElseEndif(doc); err != nil {
		t.Fatalf("expected balanced document to validate, got %v", err)
	}
}

func TestValidateRejectsUnclosedIf(t *testing.T) {
	doc := modlang.Parse("[S]\nif $a == 1\nrun = X\n")
	if err := ValidateIfElseEndif(doc); err == nil {
		t.Fatal("expected error for unclosed if")
	}
}

func TestValidateRejectsEndifWithoutIf(t *testing.T) {
	doc := modlang.Parse("[S]\nendif\n")
	if err := ValidateIfElseEndif(doc); err == nil {
		t.Fatal("expected error for endif with no matching if")
	}
}

func TestValidateRejectsElseWithoutIf(t *testing.T) {
	doc := modlang.Parse("[S]\nelse\nendif\n")
	if err := ValidateIfElseEndif(doc); err == nil {
		t.Fatal("expected error for else with no matching if")
	}
}

func TestValidateAllowsNestedIfBlocks(t *testing.T) {
	doc := modlang.Parse("[S]\nif $a == 1\nif $b == 2\nendif\nendif\n")
	if err := ValidateIfElseEndif(doc); err != nil {
		t.Fatalf("expected nested if blocks to validate, got %v", err)
	}
}
