package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyassist/types"
)

func TestClassifyNumericLookup(t *testing.T) {
	questions := []string{
		"How much is the travel allowance?",
		"What is the maximum reimbursement for managers?",
		"What is the limit on remote work days per month?",
		"What percentage of salary goes to the pension fund?",
	}

	for _, q := range questions {
		c := Classify(q)
		assert.Equal(t, types.NumericLookup, c.Label, "question: %s", q)
		assert.Equal(t, 4, c.TopK)
	}
}

func TestClassifyScenarioAnalysis(t *testing.T) {
	questions := []string{
		"What if I miss the submission deadline?",
		"Can I work from home three days a week?",
		"Am I eligible for parental leave after six months?",
		"If I resign without notice, what penalty applies?",
	}

	for _, q := range questions {
		c := Classify(q)
		assert.Equal(t, types.ScenarioAnalysis, c.Label, "question: %s", q)
		assert.Equal(t, 7, c.TopK)
	}
}

func TestClassifySummaryRequest(t *testing.T) {
	c := Classify("Summarize the leave policy")
	assert.Equal(t, types.SummaryRequest, c.Label)
	assert.Equal(t, 10, c.TopK)

	c = Classify("Give me an overview of the code of conduct")
	assert.Equal(t, types.SummaryRequest, c.Label)
}

func TestClassifyPolicyGap(t *testing.T) {
	c := Classify("Is there a policy for bringing pets to the office?")
	assert.Equal(t, types.PolicyGap, c.Label)
	assert.Equal(t, 3, c.TopK)

	c = Classify("Does it cover overtime on public holidays?")
	assert.Equal(t, types.PolicyGap, c.Label)
}

func TestClassifyDefaultsToFactual(t *testing.T) {
	c := Classify("Who approves expense reports?")
	assert.Equal(t, types.FactualLookup, c.Label)
	assert.Equal(t, 5, c.TopK)
	assert.NotEmpty(t, c.Reason)
}

func TestClassifyPrecedence(t *testing.T) {
	// Gap phrasing wins over the numeric keyword "limit".
	c := Classify("Is there a policy for the overtime limit?")
	assert.Equal(t, types.PolicyGap, c.Label)

	// Scenario phrasing wins over the numeric keyword "maximum".
	c = Classify("What if I exceed the maximum leave days?")
	assert.Equal(t, types.ScenarioAnalysis, c.Label)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	lower := Classify("how much vacation do I get?")
	upper := Classify("HOW MUCH VACATION DO I GET?")
	assert.Equal(t, lower.Label, upper.Label)
	assert.Equal(t, types.NumericLookup, lower.Label)
}

func TestClassifyIsPure(t *testing.T) {
	q := "Can I carry over unused leave days?"
	first := Classify(q)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Classify(q))
	}
}

func TestClassifyEveryBranchHasReason(t *testing.T) {
	for _, q := range []string{
		"Is there a policy for sabbaticals?",
		"What happens if I lose my badge?",
		"Summarize the benefits section",
		"What is the daily meal allowance?",
		"Where is the head office?",
	} {
		assert.NotEmpty(t, Classify(q).Reason, "question: %s", q)
	}
}
