package main

import "testing"

func TestRootCommandWiring(t *testing.T) {
	root := rootCommand()
	want := []string{"selftest", "init", "checkpoints", "describe", "bench"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}

func TestFormatShape(t *testing.T) {
	cases := []struct {
		shape []int
		want  string
	}{
		{[]int{10, 4, 3, 84, 84}, "(10, 4, 3, 84, 84)"},
		{[]int{10, 2}, "(10, 2)"},
		{[]int{7}, "(7)"},
	}
	for _, tc := range cases {
		if got := formatShape(tc.shape); got != tc.want {
			t.Fatalf("formatShape(%v): got=%q want=%q", tc.shape, got, tc.want)
		}
	}
}
