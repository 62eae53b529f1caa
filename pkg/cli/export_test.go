package cli

var (
	ApplySeed  = applySeed
	PrintToken = printToken
)
