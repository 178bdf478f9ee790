package models

type CategoryFormat string

const (
	FormatSingleElimination CategoryFormat = "SINGLE_ELIMINATION"
	FormatDoubleElimination CategoryFormat = "DOUBLE_ELIMINATION"
	FormatRoundRobin        CategoryFormat = "ROUND_ROBIN"
)

type CategoryType string

const (
	CategorySingles CategoryType = "SINGLES"
	CategoryDoubles CategoryType = "DOUBLES"
)
