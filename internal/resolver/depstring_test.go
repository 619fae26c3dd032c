package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDependency(t *testing.T) {
	cases := map[string]string{
		"foo":        "foo",
		"foo>=1.2":   "foo",
		"foo<=1.2":   "foo",
		"foo=1.2":    "foo",
		"foo>1.2":    "foo",
		"foo<1.2":    "foo",
		"foo-bar>=1": "foo-bar",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanDependency(in))
	}
}

func TestCleanDependencyIdempotent(t *testing.T) {
	assert.Equal(t, CleanDependency("foo"), CleanDependency(CleanDependency("foo")))
	assert.Equal(t, CleanDependency("foo>=1.2"), CleanDependency(CleanDependency("foo>=1.2")))
}
