package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Feedback(t *testing.T) {
	p, err := Load(Feedback)
	require.NoError(t, err)

	assert.Contains(t, p.System, "skipped")
	assert.Equal(t, []string{"Transcript"}, p.Placeholders())
	for _, category := range []string{
		"Communication Skills", "Technical Knowledge", "Problem Solving", "Cultural Fit", "Confidence and Clarity",
	} {
		assert.Contains(t, p.User, category)
	}
}

func TestLoad_Questions(t *testing.T) {
	p, err := Load(Questions)
	require.NoError(t, err)
	assert.Equal(t, []string{"Role", "Level", "Techstack", "Type", "Amount"}, p.Placeholders())
}

func TestLoad_UnknownTask(t *testing.T) {
	_, err := Load("cover-letter")
	assert.ErrorContains(t, err, "no prompt")
}

func TestFill(t *testing.T) {
	p := Prompt{System: "sys", User: "Role {{.Role}}, {{.Amount}} questions for {{.Role}}"}

	out, err := p.Fill(map[string]string{"Role": "Backend Engineer", "Amount": "5"})
	require.NoError(t, err)
	assert.Equal(t, "sys", out.System)
	assert.Equal(t, "Role Backend Engineer, 5 questions for Backend Engineer", out.User)
}

func TestFill_MissingValue(t *testing.T) {
	p := Prompt{User: "{{.Role}} {{.Level}}"}

	_, err := p.Fill(map[string]string{"Role": "QA"})
	assert.ErrorContains(t, err, "Level")
}

func TestFill_DoesNotExpandValues(t *testing.T) {
	p := Prompt{User: "Transcript:\n{{.Transcript}}"}

	out, err := p.Fill(map[string]string{"Transcript": "- user: what is {{.Role}}?"})
	require.NoError(t, err)
	assert.Equal(t, "Transcript:\n- user: what is {{.Role}}?", out.User)
}

func TestRender(t *testing.T) {
	out, err := Render(Feedback, map[string]string{"Transcript": "- user: hello\n"})
	require.NoError(t, err)
	assert.Contains(t, out.User, "- user: hello")
	assert.NotContains(t, out.User, "{{.Transcript}}")

	_, err = Render(Questions, map[string]string{"Role": "QA"})
	assert.Error(t, err)
}
