package tsgen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrint_Module(t *testing.T) {
	f := File{Sections: []Section{
		{Import{Names: []string{"JSONValue"}, From: "./_types"}},
		{
			Interface{
				Doc:  Doc{Lines: []string{"Table: shop.users"}},
				Name: "UsersDto",
				Fields: []Field{
					{Doc: Doc{Lines: []string{"Type: bigint unsigned", "Default: none"}}, Name: "id", Type: "number"},
					{Name: "bio", Type: "string | null"},
				},
			},
			Alias{Name: "WritableUsersDto", Type: "UsersDto"},
		},
		{Interface{Name: "EmptyDto"}},
	}}

	want := `import { JSONValue } from './_types';

/**
 * Table: shop.users
 */
export interface UsersDto {
  /**
   * Type: bigint unsigned
   * Default: none
   */
  id: number;
  bio: string | null;
}
export type WritableUsersDto = UsersDto;

export interface EmptyDto {}
`
	if diff := cmp.Diff(want, Print(f)); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_Union(t *testing.T) {
	f := File{Sections: []Section{{Union{
		Name:    "JSONValue",
		Members: []string{"string", "number", "JSONValue[]"},
	}}}}

	want := `export type JSONValue =
  | string
  | number
  | JSONValue[];
`
	if diff := cmp.Diff(want, Print(f)); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_Extends(t *testing.T) {
	f := File{Sections: []Section{{Interface{
		Name:    "OrdersDto",
		Extends: "WritableOrdersDto",
		Fields:  []Field{{Name: "id", Type: "number"}},
	}}}}

	want := "export interface OrdersDto extends WritableOrdersDto {\n  id: number;\n}\n"
	if diff := cmp.Diff(want, Print(f)); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_SkipsEmptySections(t *testing.T) {
	f := File{Sections: []Section{
		{Alias{Name: "A", Type: "string"}},
		{},
		{Alias{Name: "B", Type: "number"}},
	}}

	want := "export type A = string;\n\nexport type B = number;\n"
	if diff := cmp.Diff(want, Print(f)); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestDoc_EscapesAndSplits(t *testing.T) {
	f := File{Sections: []Section{{Alias{
		Doc:  Doc{Lines: []string{"closes */ early", "first\nsecond", ""}},
		Name: "A",
		Type: "string",
	}}}}

	want := `/**
 * closes *\/ early
 * first
 * second
 *
 */
export type A = string;
`
	if diff := cmp.Diff(want, Print(f)); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestPropertyName(t *testing.T) {
	tests := map[string]string{
		"id":          "id",
		"created_at":  "created_at",
		"$meta":       "$meta",
		"order-id":    "'order-id'",
		"2fa_enabled": "'2fa_enabled'",
		"first name":  "'first name'",
		"it's":        `'it\'s'`,
	}
	for in, want := range tests {
		if got := PropertyName(in); got != want {
			t.Errorf("PropertyName(%q) = %q, want %q", in, got, want)
		}
	}
}
