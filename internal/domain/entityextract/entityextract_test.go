package entityextract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/domain/entityextract"
)

func TestExtract_EmptyTextReturnsNil(t *testing.T) {
	assert.Nil(t, entityextract.Extract("", entityextract.DefaultConfig()))
}

func TestExtract_MoneyAndPercentage(t *testing.T) {
	text := "Acme Corp announced a $2 billion deal, a 15% jump in revenue."
	entities := entityextract.Extract(text, entityextract.DefaultConfig())

	var hasMoney, hasPercent bool
	for _, e := range entities {
		if e.Type == entity.EntityMoney {
			hasMoney = true
		}
		if e.Type == entity.EntityPercentage {
			hasPercent = true
		}
	}
	assert.True(t, hasMoney)
	assert.True(t, hasPercent)
}

func TestExtract_OrganizationSuffix(t *testing.T) {
	text := "Acme Holdings confirmed the acquisition of Beta Corp today."
	entities := entityextract.Extract(text, entityextract.DefaultConfig())

	var orgNames []string
	for _, e := range entities {
		if e.Type == entity.EntityOrg {
			orgNames = append(orgNames, e.Name)
		}
	}
	assert.Contains(t, orgNames, "Acme Holdings")
}

func TestExtract_TickerRequiresFinancialContext(t *testing.T) {
	withContext := "ACME shares traded on NYSE rose after earnings."
	entities := entityextract.Extract(withContext, entityextract.DefaultConfig())
	var found bool
	for _, e := range entities {
		if e.Type == entity.EntityTicker {
			found = true
		}
	}
	assert.True(t, found)

	withoutContext := "ACME went for a walk in the park yesterday afternoon."
	entities = entityextract.Extract(withoutContext, entityextract.DefaultConfig())
	for _, e := range entities {
		assert.NotEqual(t, entity.EntityTicker, e.Type)
	}
}

func TestExtract_DeduplicatesByNameAndType(t *testing.T) {
	text := "Acme Holdings said Acme Holdings would expand operations next year."
	entities := entityextract.Extract(text, entityextract.DefaultConfig())

	counts := make(map[string]int)
	for _, e := range entities {
		counts[e.Name+"|"+string(e.Type)]++
	}
	for key, c := range counts {
		assert.Equalf(t, 1, c, "expected %s to appear once", key)
	}
}

func TestExtract_RespectsTopN(t *testing.T) {
	text := "Alpha Group and Beta Corp and Gamma Holdings and Delta Ltd and Epsilon Inc discussed a 10% rise and a $5 million fund on January 5, 2026."
	entities := entityextract.Extract(text, entityextract.Config{TopN: 2})
	assert.LessOrEqual(t, len(entities), 2)
}
