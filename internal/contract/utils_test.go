package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/pmdminer/schema"
)

func TestShortHash(t *testing.T) {
	assert.Equal(t, "deadbeef", ShortHash("deadbeefcafe0123456789"))
	assert.Equal(t, "abc", ShortHash("abc"))
	assert.Equal(t, "", ShortHash(""))
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excludes []string
		want     bool
	}{
		{"no excludes", "src/Main.java", nil, false},
		{"prefix match", "vendor/lib/Util.java", []string{"vendor/"}, true},
		{"prefix miss", "src/vendorish/Util.java", []string{"vendor/"}, false},
		{"suffix match", "src/Main.min.js", []string{".min.js"}, true},
		{"glob on basename", "src/FooTest.java", []string{"*Test.java"}, true},
		{"glob miss", "src/Foo.java", []string{"*Test.java"}, false},
		{"substring match", "src/generated/Foo.java", []string{"generated"}, true},
		{"empty pattern skipped", "src/Foo.java", []string{"", "  "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldIgnore(tt.path, tt.excludes))
		})
	}
}

func TestEligibleFile(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"plain java file", "src/main/App.java", true},
		{"wrong extension", "src/main/App.kt", false},
		{"dot directory", ".git/hooks/App.java", false},
		{"nested dot directory", "src/.cache/App.java", false},
		{"dot file allowed by extension only", "src/.hidden.java", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleFile(tt.path, ".java", nil))
		})
	}

	assert.False(t, EligibleFile("vendor/App.java", ".java", []string{"vendor/"}))
}

func TestMiningErrorKinds(t *testing.T) {
	setup := NewSetupError(errors.New("no commits"))
	checkout := NewCheckoutError("deadbeefcafe", errors.New("index locked"))
	analysis := NewAnalysisError("deadbeefcafe", errors.New("pmd exploded"))

	assert.Equal(t, schema.SetupError, KindOf(setup))
	assert.Equal(t, schema.CheckoutError, KindOf(checkout))
	assert.Equal(t, schema.AnalysisError, KindOf(analysis))
	assert.Equal(t, schema.AnalysisError, KindOf(errors.New("anonymous")))

	assert.Contains(t, checkout.Error(), "deadbeef")
	assert.NotContains(t, checkout.Error(), "deadbeefcafe")

	var me *MiningError
	assert.ErrorAs(t, analysis, &me)
	assert.Equal(t, "deadbeefcafe", me.Commit)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "CyclomaticCom...", TruncateText("CyclomaticComplexity", 16))
	assert.Equal(t, "abc", TruncateText("abc", 3))
}
