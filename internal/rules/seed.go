package rules

import "copilote/internal/core"

// SeedRules returns the built-in keyword table every user starts with. These
// cover the common French bank labels; users refine from here by teaching.
func SeedRules() []core.Rule {
	return []core.Rule{
		{Keyword: "NETFLIX", Label: "Netflix", Category: core.CategoryAbonnements, Subcategory: "Streaming"},
		{Keyword: "LOYER", Label: "Loyer", Category: core.CategoryChargesFixe, Subcategory: "Logement"},
		{Keyword: "CARREFOUR", Label: "Courses (Carrefour)", Category: core.CategoryAlimentation, Subcategory: "Supermarché"},
		{Keyword: "SALAIRE", Label: "Salaire", Category: core.CategoryRevenus, Subcategory: "Salaire"},
		{Keyword: "PAUL", Label: "Boulangerie Paul", Category: core.CategoryAlimentation, Subcategory: "Boulangerie"},
		{Keyword: "AXA", Label: "Assurance AXA", Category: core.CategoryChargesFixe, Subcategory: "Assurances"},
		{Keyword: "RESTAURANT", Label: "Restaurant", Category: core.CategorySorties, Subcategory: "Restaurant"},
		{Keyword: "AMAZON", Label: "Amazon", Category: core.CategoryShopping, Subcategory: "En ligne"},
	}
}
