package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const applicationPage = `<html><body>
<form action="/apply" method="POST">
  <label for="full_name">Full Name *</label>
  <input type="text" id="full_name" name="full_name" required>
  <input type="email" name="email" aria-label="Email address">
  <input type="hidden" name="csrf" value="x">
  <label>Resume <input type="file" name="resume_file"></label>
  <select id="work_type" name="work_type">
    <option value="">Choose</option>
    <option value="remote">Remote</option>
    <option value="onsite">On-site</option>
  </select>
  <select name="skills" multiple><option>Go</option><option>SQL</option></select>
  <textarea id="cover" name="cover_letter" placeholder="Tell us about you" aria-required="true"></textarea>
  <input type="checkbox" name="relocate" value="yes">
  <input type="radio" name="remote_ok" value="yes">
  <input type="radio" name="remote_ok" value="no">
  <input type="submit" value="Send">
  <button type="submit" id="send">Send</button>
</form>
</body></html>`

func TestParseHTML(t *testing.T) {
	t.Parallel()

	forms, err := ParseHTML(applicationPage)
	require.NoError(t, err)
	require.Len(t, forms, 1)

	form := forms[0]
	assert.Equal(t, "/apply", form.Action)
	assert.Equal(t, "post", form.Method)
	assert.Equal(t, `[id="send"]`, form.Submit)

	byID := map[string]Field{}
	var kinds []Kind
	for _, f := range form.Fields {
		byID[f.Identifier] = f
		kinds = append(kinds, f.Kind)
	}

	assert.Equal(t, []Kind{
		KindText, KindText, KindFile, KindSelect, KindMultiSelect,
		KindRichText, KindCheckbox, KindRadio,
	}, kinds)
	assert.NotContains(t, byID, "csrf")

	assert.Equal(t, "Full Name *", byID["full_name"].Attrs.Label)
	assert.True(t, byID["full_name"].Attrs.Required)
	assert.Equal(t, "Email address", byID["email"].Attrs.Label)
	assert.Equal(t, "Resume", byID["resume_file"].Attrs.Label)
	assert.Equal(t, []string{"remote", "onsite"}, byID["work_type"].Options)
	assert.Equal(t, []string{"Go", "SQL"}, byID["skills"].Options)
	assert.True(t, byID["cover"].Attrs.Required)
	assert.Equal(t, []string{"yes", "no"}, byID["remote_ok"].Options)
	assert.Equal(t, `[name="remote_ok"]`, byID["remote_ok"].Selector())
	assert.Equal(t, `[name="remote_ok"][value="no"]`, byID["remote_ok"].OptionSelector("no"))
	assert.Equal(t, PurposeUnknown, byID["email"].Purpose)
}

func TestParseHTMLRadioGroup(t *testing.T) {
	t.Parallel()

	forms, err := ParseHTML(`<form>
  <fieldset>
    <legend>Willing to relocate? *</legend>
    <label><input type="radio" id="reloc_no" name="willing_to_relocate" value="no"> No</label>
    <label><input type="radio" id="reloc_yes" name="willing_to_relocate" value="yes" required> Yes</label>
  </fieldset>
</form>`)
	require.NoError(t, err)
	require.Len(t, forms[0].Fields, 1)

	group := forms[0].Fields[0]
	assert.Equal(t, "willing_to_relocate", group.Identifier)
	assert.Equal(t, KindRadio, group.Kind)
	assert.Equal(t, []string{"no", "yes"}, group.Options)
	assert.Equal(t, "Willing to relocate? *", group.Attrs.Label)
	assert.True(t, group.Attrs.Required)

	c, err := NewClassifier(DefaultPatterns())
	require.NoError(t, err)
	result := c.Classify(t.Context(), forms[0].Fields)
	require.Len(t, result.Required, 1)

	steps, missing := Plan(result, Profile{"relocation": "yes"})
	require.Empty(t, missing)
	require.Len(t, steps, 1)
	assert.Equal(t, `[name="willing_to_relocate"][value="yes"]`, steps[0].Selector())
}

func TestParseHTMLWithoutForm(t *testing.T) {
	t.Parallel()

	forms, err := ParseHTML(`<div><input name="q" placeholder="Search"><input type="button" name="go"></div>`)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	require.Len(t, forms[0].Fields, 1)
	assert.Equal(t, "q", forms[0].Fields[0].Identifier)
	assert.Empty(t, forms[0].Submit)
}

func TestParseHTMLClassifyRoundTrip(t *testing.T) {
	t.Parallel()

	forms, err := ParseHTML(applicationPage)
	require.NoError(t, err)

	c, err := NewClassifier(DefaultPatterns())
	require.NoError(t, err)

	result := c.Classify(t.Context(), Fields(forms))

	assert.Equal(t, []string{"full_name"}, identifiers(result.Required)[:1])
	assert.Equal(t, []string{"resume_file"}, identifiers(result.FileUploads))
}
