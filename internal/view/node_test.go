package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_EscapesText(t *testing.T) {
	n := El("p", Class("a", "", "b"), "<script>")
	assert.Equal(t, `<p class="a b">&lt;script&gt;</p>`, Render(n))
}

func TestWhen(t *testing.T) {
	n := El("input", When(true, A("disabled", "")), When(false, A("required", "")))
	_, disabled := GetAttr(n, "disabled")
	_, required := GetAttr(n, "required")
	assert.True(t, disabled)
	assert.False(t, required)
}

func TestFindAndTextContent(t *testing.T) {
	root := El("div",
		El("label", A("data-role", "label"), "Name", El("span", "*")),
		El("p", A("data-role", "helper"), "help"),
	)
	label := Find(root, ByAttr("data-role", "label"))
	if assert.NotNil(t, label) {
		assert.Equal(t, "Name*", TextContent(label))
	}
	assert.Len(t, FindAll(root, HasAttr("data-role")), 2)
	assert.Nil(t, Find(root, ByAttr("data-role", "missing")))
}
