package domain

import (
	"reflect"
	"testing"
)

func TestSnapshot_PreservesOrder(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{ID: 5, Name: "e", Price: 1.25, ImageURL: "e.jpg", Amount: 2},
		{ID: 1, Name: "a", Price: 99.9, ImageURL: "a.jpg", Amount: 1},
	}}

	data, err := EncodeSnapshot(cart)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !reflect.DeepEqual(cart, got) {
		t.Errorf("expected %+v, got %+v", cart, got)
	}
}

func TestSnapshot_EmptyCartEncodesAsArray(t *testing.T) {
	data, err := EncodeSnapshot(Cart{})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected [], got %s", data)
	}
}

func TestDecodeSnapshot_Rejects(t *testing.T) {
	inputs := map[string]string{
		"garbage":   "not json",
		"object":    `{"id":1}`,
		"duplicate": `[{"id":1,"amount":1},{"id":1,"amount":3}]`,
		"negative":  `[{"id":1,"amount":-1}]`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeSnapshot([]byte(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
